package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	triageDecisions metric.Int64Counter
	budgetBlocked   metric.Int64Counter
	budgetWarnings  metric.Int64Counter
	parseFailures   metric.Int64Counter
	usageRecords    metric.Int64Counter
	usageSpend      metric.Float64Counter
	actionsExecuted metric.Int64Counter
	actionFailures  metric.Int64Counter
	sweepDuration   metric.Float64Histogram
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "warden"
	}
	meter := provider.Meter(name)

	m := &Metrics{}
	var err error

	if m.triageDecisions, err = meter.Int64Counter("warden.triage.decisions"); err != nil {
		return nil, err
	}
	if m.budgetBlocked, err = meter.Int64Counter("warden.budget.blocked"); err != nil {
		return nil, err
	}
	if m.budgetWarnings, err = meter.Int64Counter("warden.budget.warnings"); err != nil {
		return nil, err
	}
	if m.parseFailures, err = meter.Int64Counter("warden.triage.parse_failures"); err != nil {
		return nil, err
	}
	if m.usageRecords, err = meter.Int64Counter("warden.usage.records"); err != nil {
		return nil, err
	}
	if m.usageSpend, err = meter.Float64Counter("warden.usage.spend"); err != nil {
		return nil, err
	}
	if m.actionsExecuted, err = meter.Int64Counter("warden.executor.executed"); err != nil {
		return nil, err
	}
	if m.actionFailures, err = meter.Int64Counter("warden.executor.failures"); err != nil {
		return nil, err
	}
	if m.sweepDuration, err = meter.Float64Histogram("warden.executor.sweep_seconds"); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) IncTriageDecision(classification string) {
	if m == nil || m.triageDecisions == nil {
		return
	}
	m.triageDecisions.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("classification", classification)))
}

func (m *Metrics) IncBudgetBlocked() {
	if m == nil || m.budgetBlocked == nil {
		return
	}
	m.budgetBlocked.Add(context.Background(), 1)
}

func (m *Metrics) IncBudgetWarning() {
	if m == nil || m.budgetWarnings == nil {
		return
	}
	m.budgetWarnings.Add(context.Background(), 1)
}

func (m *Metrics) IncParseFailure() {
	if m == nil || m.parseFailures == nil {
		return
	}
	m.parseFailures.Add(context.Background(), 1)
}

func (m *Metrics) AddUsage(callType string, cost float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("call_type", callType))
	if m.usageRecords != nil {
		m.usageRecords.Add(context.Background(), 1, attrs)
	}
	if m.usageSpend != nil {
		m.usageSpend.Add(context.Background(), cost, attrs)
	}
}

func (m *Metrics) IncActionExecuted(action string) {
	if m == nil || m.actionsExecuted == nil {
		return
	}
	m.actionsExecuted.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("action", action)))
}

func (m *Metrics) IncActionFailure(action string) {
	if m == nil || m.actionFailures == nil {
		return
	}
	m.actionFailures.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("action", action)))
}

func (m *Metrics) ObserveSweepDuration(d time.Duration) {
	if m == nil || m.sweepDuration == nil {
		return
	}
	m.sweepDuration.Record(context.Background(), d.Seconds())
}
