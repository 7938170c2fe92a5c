package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Server.Transport != "stdio" || cfg.Log.Level != "info" {
		t.Errorf("server/log = %+v %+v", cfg.Server, cfg.Log)
	}
	want := EditorConfig{PaintRadius: 10, EraserRadius: 10, AreaThreshold: 10, FillOpacity: 0.3, Interpolate: true}
	if cfg.Editor != want {
		t.Errorf("Editor = %+v, want %+v", cfg.Editor, want)
	}
	if cfg.Redis.Enabled || cfg.Redis.TTL != 0 {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  transport: http
  port: ":9090"
editor:
  paint_radius: 4
  area_threshold: 25
redis:
  enabled: true
  addr: redis:6379
  ttl: 1h
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Transport != "http" || cfg.Server.Port != ":9090" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Editor.PaintRadius != 4 || cfg.Editor.EraserRadius != 10 || cfg.Editor.AreaThreshold != 25 {
		t.Errorf("Editor = %+v", cfg.Editor)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "redis:6379" || cfg.Redis.TTL != time.Hour {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ANNOTATE_MCP_LOG_LEVEL", "debug")
	t.Setenv("ANNOTATE_MCP_EDITOR_ERASER_RADIUS", "25")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" || cfg.Editor.EraserRadius != 25 {
		t.Errorf("env not applied: log=%q eraser=%d", cfg.Log.Level, cfg.Editor.EraserRadius)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad transport", "server:\n  transport: grpc\n"},
		{"zero radius", "editor:\n  paint_radius: 0\n"},
		{"negative threshold", "editor:\n  area_threshold: -1\n"},
		{"opacity above one", "editor:\n  fill_opacity: 1.5\n"},
		{"malformed yaml", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing) should fail")
	}
}
