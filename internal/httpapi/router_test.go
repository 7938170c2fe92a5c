package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ironsheep/annotate-mcp/internal/server"
	"github.com/ironsheep/annotate-mcp/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *server.Server) {
	t.Helper()
	srv := server.New(server.Options{Logger: zap.NewNop()})
	t.Cleanup(func() { srv.Close() })
	return NewRouter(srv, BuildInfo{Version: "1.2.3"}, zap.NewNop()), srv
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp Response
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not JSON: %v: %s", err, w.Body.String())
		}
	}
	return w, resp
}

func writeImage(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 60, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.Gray{Y: 40})
		}
	}
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHealthAndVersion(t *testing.T) {
	r, _ := newTestRouter(t)

	w, _ := do(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("/health status = %d", w.Code)
	}
	var health map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &health)
	if health["status"] != "ok" || health["version"] != "1.2.3" {
		t.Errorf("/health body = %v", health)
	}
	if _, ok := health["ocr"]; !ok {
		t.Error("/health should report OCR availability")
	}

	w, _ = do(t, r, http.MethodGet, "/version", "")
	var info BuildInfo
	json.Unmarshal(w.Body.Bytes(), &info)
	if w.Code != http.StatusOK || info.Version != "1.2.3" {
		t.Errorf("/version = %d %+v", w.Code, info)
	}
}

func TestListTools(t *testing.T) {
	r, _ := newTestRouter(t)
	w, resp := do(t, r, http.MethodGet, "/api/v1/tools", "")
	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d, success = %v", w.Code, resp.Success)
	}
	tools, ok := resp.Data.([]interface{})
	if !ok || len(tools) != len(server.GetToolDefinitions()) {
		t.Errorf("got %d tools, want %d", len(tools), len(server.GetToolDefinitions()))
	}
}

func TestCallTool_Workflow(t *testing.T) {
	r, _ := newTestRouter(t)
	path := writeImage(t)

	steps := []struct {
		tool string
		body string
	}{
		{"image_open", fmt.Sprintf(`{"path":%q}`, path)},
		{"class_add", `{"name":"cell"}`},
		{"class_select", `{"name":"cell"}`},
		{"paint_stroke", `{"points":[{"x":20,"y":20}],"radius":5}`},
		{"paint_commit", ``},
	}
	for _, s := range steps {
		w, resp := do(t, r, http.MethodPost, "/api/v1/tools/"+s.tool, s.body)
		if w.Code != http.StatusOK || !resp.Success {
			t.Fatalf("%s: status = %d, resp = %+v", s.tool, w.Code, resp)
		}
	}

	w, resp := do(t, r, http.MethodPost, "/api/v1/tools/annotations_list", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("annotations_list status = %d", w.Code)
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["count"] != float64(1) {
		t.Errorf("annotations_list count = %v, want 1", data["count"])
	}
}

func TestCallTool_ErrorStatus(t *testing.T) {
	r, _ := newTestRouter(t)
	tests := []struct {
		name string
		tool string
		body string
		want int
	}{
		{"unknown tool", "no_such_tool", `{}`, http.StatusNotFound},
		{"bad json", "class_add", `{"name":`, http.StatusBadRequest},
		{"wrong arg type", "class_add", `{"name":5}`, http.StatusBadRequest},
		{"no active image", "paint_commit", ``, http.StatusConflict},
		{"missing file", "image_open", `{"path":"/nonexistent/x.png"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := do(t, r, http.MethodPost, "/api/v1/tools/"+tt.tool, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if resp.Success || resp.Message == "" {
				t.Errorf("error envelope = %+v", resp)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", server.ErrInvalidArgs), http.StatusBadRequest},
		{server.ErrUnknownTool, http.StatusNotFound},
		{session.ErrNoActiveImage, http.StatusConflict},
		{fmt.Errorf("open: %w", session.ErrPendingEdits), http.StatusConflict},
		{errors.New("boom"), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

type stubCaller struct {
	gotName string
	gotArgs json.RawMessage
}

func (s *stubCaller) Call(_ context.Context, name string, args json.RawMessage) (interface{}, []server.MCPNotification, error) {
	s.gotName, s.gotArgs = name, args
	return map[string]string{"ok": "yes"}, []server.MCPNotification{{Method: server.ChangedMethod}}, nil
}

func TestCallTool_PassesBodyThrough(t *testing.T) {
	stub := &stubCaller{}
	r := NewRouter(stub, BuildInfo{}, zap.NewNop())

	w, resp := do(t, r, http.MethodPost, "/api/v1/tools/class_add", `{"name":"cell"}`)
	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d", w.Code)
	}
	if stub.gotName != "class_add" || string(stub.gotArgs) != `{"name":"cell"}` {
		t.Errorf("Call(%q, %s)", stub.gotName, stub.gotArgs)
	}
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodGet, "/ping?a=1", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/ping" || fields["query"] != "a=1" || fields["status"] != int64(http.StatusTeapot) {
		t.Errorf("fields = %v", fields)
	}
}
