package triage

import "go.uber.org/fx"

var Module = fx.Module("triage",
	fx.Provide(NewClassifier),
)
