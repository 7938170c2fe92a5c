package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	defer Set(nil)
	tests := []struct {
		name    string
		mode    string
		level   string
		want    zapcore.Level
		wantErr bool
	}{
		{"development default level", "debug", "", zapcore.InfoLevel, false},
		{"release warn", "release", "warn", zapcore.WarnLevel, false},
		{"debug", "", "debug", zapcore.DebugLevel, false},
		{"bad level", "debug", "loud", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Init(tt.mode, tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Init() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !L().Core().Enabled(tt.want) {
				t.Errorf("level %v should be enabled", tt.want)
			}
			if tt.want > zapcore.DebugLevel && L().Core().Enabled(tt.want-1) {
				t.Errorf("level %v should be disabled", tt.want-1)
			}
		})
	}
}

func TestSetObserver(t *testing.T) {
	defer Set(nil)
	core, logs := observer.New(zapcore.InfoLevel)
	Set(zap.New(core))
	L().Info("committed", zap.Int("inserted", 2))
	if logs.Len() != 1 || logs.All()[0].ContextMap()["inserted"] != int64(2) {
		t.Errorf("observed = %+v", logs.All())
	}
	Set(nil)
	L().Info("dropped")
	Sync()
	if logs.Len() != 1 {
		t.Error("reset logger should not reach the observer")
	}
}
