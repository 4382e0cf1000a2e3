package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wardenhq/warden/internal/budget"
	casesdomain "github.com/wardenhq/warden/internal/cases/domain"
	casesservice "github.com/wardenhq/warden/internal/cases/service"
	"github.com/wardenhq/warden/internal/clock"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/genai"
	"github.com/wardenhq/warden/internal/pipeline"
	schedactiondomain "github.com/wardenhq/warden/internal/schedaction/domain"
	schedactionservice "github.com/wardenhq/warden/internal/schedaction/service"
	"github.com/wardenhq/warden/internal/triage"
	usagedomain "github.com/wardenhq/warden/internal/usage/domain"
	usageservice "github.com/wardenhq/warden/internal/usage/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubGenAI struct {
	text string
}

func (s *stubGenAI) Complete(context.Context, genai.CompleteRequest) (*genai.Completion, error) {
	return &genai.Completion{Text: s.text, Model: "test-model", Cost: 0.01}, nil
}

func newTestServer(t *testing.T, genText string) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&usagedomain.UsageRecord{},
		&casesdomain.ModerationCase{},
		&schedactiondomain.ScheduledAction{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	cfg := config.Config{
		ListenAddr: ":0",
		Triage: config.TriageConfig{
			MaxTokens:    512,
			DailyBudget:  5.0,
			BudgetWindow: 24 * time.Hour,
			MuteDuration: "10m",
		},
	}

	usage := usageservice.NewService(usageservice.ServiceParam{DB: db, Log: log, GenID: node, Clock: clk})
	gate := budget.NewGate(budget.Params{Usage: usage, Log: log})
	classifier := triage.NewClassifier(triage.Params{
		GenAI: &stubGenAI{text: genText}, Usage: usage, Config: cfg, Log: log,
	})
	cases := casesservice.NewService(casesservice.ServiceParam{DB: db, Log: log, GenID: node, Clock: clk})
	actions := schedactionservice.NewService(schedactionservice.ServiceParam{DB: db, Log: log, GenID: node, Clock: clk})
	pipe := pipeline.NewPipeline(pipeline.Params{
		Gate: gate, Classifier: classifier, Cases: cases, Actions: actions,
		Clock: clk, Config: cfg, Log: log,
	})

	srv := NewServer(ServerParams{
		Cfg: cfg, Usagesvc: usage, Gate: gate, Casesvc: cases,
		Actionsvc: actions, Pipeline: pipe, Clock: clk,
	})
	engine := NewEngine()
	RegisterRoutes(engine, srv)
	return engine, db
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRecordUsage(t *testing.T) {
	engine, _ := newTestServer(t, "")

	rec := doJSON(t, engine, http.MethodPost, "/v1/usage", map[string]any{
		"community_id": "g1",
		"call_type":    "triage",
		"cost":         0.25,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var record usagedomain.UsageRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "g1", record.CommunityID)

	// bad request
	rec = doJSON(t, engine, http.MethodPost, "/v1/usage", map[string]any{
		"community_id": "g1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckBudget(t *testing.T) {
	engine, _ := newTestServer(t, "")

	rec := doJSON(t, engine, http.MethodPost, "/v1/usage", map[string]any{
		"community_id": "g1",
		"call_type":    "triage",
		"cost":         4.4,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/communities/g1/budget", nil)
	res := httptest.NewRecorder()
	engine.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	var verdict budget.Verdict
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &verdict))
	assert.Equal(t, budget.StatusWarning, verdict.Status)
	assert.InDelta(t, 4.4, verdict.Spend, 1e-9)
}

func TestEvaluateAndCaseLookup(t *testing.T) {
	engine, _ := newTestServer(t,
		`{"classification":"moderate","reasoning":"spam","targetMessageIds":["m1"]}`)

	rec := doJSON(t, engine, http.MethodPost, "/v1/communities/g1/evaluate", map[string]any{
		"channel_id": "c1",
		"messages": []map[string]any{
			{"id": "m1", "role": "user", "author_id": "u1", "author_tag": "alice#1", "content": "spam spam"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, triage.ClassificationModerate, result.Decision.Classification)
	require.Len(t, result.Cases, 1)

	// fetch the case back by community and number
	req := httptest.NewRequest(http.MethodGet, "/v1/communities/g1/cases/1", nil)
	res := httptest.NewRecorder()
	engine.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	var record casesdomain.ModerationCase
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &record))
	assert.Equal(t, "u1", record.TargetID)

	// attach a log message reference
	rec = doJSON(t, engine, http.MethodPost,
		"/v1/cases/"+record.ID.String()+"/log-message",
		map[string]any{"log_message_id": "msg-1"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// list by target
	req = httptest.NewRequest(http.MethodGet, "/v1/communities/g1/cases?target_id=u1", nil)
	res = httptest.NewRecorder()
	engine.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"CaseNumber"`)
}

func TestCreateCase_WithDurationSchedulesReversal(t *testing.T) {
	engine, db := newTestServer(t, "")

	rec := doJSON(t, engine, http.MethodPost, "/v1/communities/g1/cases", map[string]any{
		"action":        "mute",
		"target_id":     "u9",
		"moderator_id":  "mod-1",
		"moderator_tag": "mod#1",
		"reason":        "manual mute",
		"duration":      "1d",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var record casesdomain.ModerationCase
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.EqualValues(t, 1, record.CaseNumber)
	require.NotNil(t, record.ExpiresAt)

	var scheduled schedactiondomain.ScheduledAction
	require.NoError(t, db.First(&scheduled).Error)
	assert.Equal(t, schedactiondomain.ActionUnmute, scheduled.Action)
	assert.Equal(t, "u9", scheduled.TargetID)
	require.NotNil(t, scheduled.CaseID)
	assert.Equal(t, record.ID, *scheduled.CaseID)

	// a warn has no reversal to schedule
	rec = doJSON(t, engine, http.MethodPost, "/v1/communities/g1/cases", map[string]any{
		"action":        "warn",
		"target_id":     "u9",
		"moderator_id":  "mod-1",
		"moderator_tag": "mod#1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var actionCount int64
	require.NoError(t, db.Model(&schedactiondomain.ScheduledAction{}).Count(&actionCount).Error)
	assert.EqualValues(t, 1, actionCount)
}

func TestCheckBudget_QueryOverrides(t *testing.T) {
	engine, _ := newTestServer(t, "")

	rec := doJSON(t, engine, http.MethodPost, "/v1/usage", map[string]any{
		"community_id": "g1",
		"call_type":    "triage",
		"cost":         1.0,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// a tighter override trips the gate
	req := httptest.NewRequest(http.MethodGet, "/v1/communities/g1/budget?daily_budget=1.0", nil)
	res := httptest.NewRecorder()
	engine.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	var verdict budget.Verdict
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &verdict))
	assert.Equal(t, budget.StatusExceeded, verdict.Status)

	req = httptest.NewRequest(http.MethodGet, "/v1/communities/g1/budget?window_ms=bogus", nil)
	res = httptest.NewRecorder()
	engine.ServeHTTP(res, req)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestGetCase_NotFound(t *testing.T) {
	engine, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/v1/communities/g1/cases/99", nil)
	res := httptest.NewRecorder()
	engine.ServeHTTP(res, req)
	assert.Equal(t, http.StatusNotFound, res.Code)
}
