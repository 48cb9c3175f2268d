package lambda

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"retail-cockpit-api/internal/config"
)

func TestFromAPIGateway(t *testing.T) {
	event := events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		Path:                  "/api/v1/dashboard/summary",
		Headers:               map[string]string{"Authorization": "Bearer x", "X-Forwarded-For": "203.0.113.9, 10.0.0.1"},
		QueryStringParameters: map[string]string{"year": "2024", "store": "Mall"},
		MultiValueQueryStringParameters: map[string][]string{
			"store": {"Mall", "Outlet"},
		},
		Body:            base64.StdEncoding.EncodeToString([]byte(`{"a":1}`)),
		IsBase64Encoded: true,
	}

	req, err := FromAPIGateway(event)
	if err != nil {
		t.Fatalf("FromAPIGateway() error = %v", err)
	}
	if string(req.Body) != `{"a":1}` {
		t.Errorf("body = %q", req.Body)
	}
	if req.QueryParams["store"] != "Mall,Outlet" || req.QueryParams["year"] != "2024" {
		t.Errorf("query = %v", req.QueryParams)
	}

	httpReq, err := req.HTTPRequest(context.Background())
	if err != nil {
		t.Fatalf("HTTPRequest() error = %v", err)
	}
	if httpReq.URL.Path != event.Path || httpReq.URL.Query().Get("store") != "Mall,Outlet" {
		t.Errorf("url = %s", httpReq.URL)
	}
	if httpReq.Header.Get("Authorization") != "Bearer x" {
		t.Errorf("authorization header lost")
	}
	if httpReq.RemoteAddr != "203.0.113.9:0" {
		t.Errorf("remote addr = %q", httpReq.RemoteAddr)
	}

	if _, err := FromAPIGateway(events.APIGatewayProxyRequest{Body: "%%%", IsBase64Encoded: true}); err == nil {
		t.Error("expected error for invalid base64 body")
	}
}

func TestHandlerFor(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write(body)
	})

	resp, err := HandlerFor(h)(context.Background(), &Request{Method: http.MethodPost, Path: "/x", Body: []byte(`{"ok":true}`)})
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated || string(resp.Body) != `{"ok":true}` {
		t.Errorf("response = %d %q", resp.StatusCode, resp.Body)
	}

	out := resp.APIGateway()
	if out.IsBase64Encoded || out.Body != `{"ok":true}` {
		t.Errorf("json should pass through as text: %+v", out)
	}
}

func TestResponseAPIGateway_BinaryBody(t *testing.T) {
	tests := []struct {
		contentType string
		wantBase64  bool
	}{
		{"application/json; charset=utf-8", false},
		{"image/svg+xml; charset=utf-8", false},
		{"text/plain", false},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", true},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			resp := &Response{StatusCode: 200, Headers: map[string]string{"Content-Type": tt.contentType}, Body: []byte{0x50, 0x4b, 0x03}}
			out := resp.APIGateway()
			if out.IsBase64Encoded != tt.wantBase64 {
				t.Errorf("IsBase64Encoded = %v, want %v", out.IsBase64Encoded, tt.wantBase64)
			}
		})
	}

	if resp := JSONError(http.StatusNotFound, "no route"); string(resp.Body) != `{"error":"no route"}` {
		t.Errorf("JSONError body = %s", resp.Body)
	}
}

func TestConnectionManager(t *testing.T) {
	db := config.DefaultDatabaseConfig()
	db.Path = filepath.Join(t.TempDir(), "retail.db")
	db.WALMode = false
	db.BackupEnabled = false

	cfg := &config.Config{
		Server:      config.ServerConfig{Mode: "test"},
		Database:    *db,
		Auth:        config.AuthConfig{JWTSecret: "lambda-test-secret", TokenDuration: time.Hour, BcryptCost: 4},
		RecordStore: config.RecordStoreConfig{Source: config.SourceSQLite},
		Logging:     config.LoggingConfig{Level: "panic"},
	}
	cfg.Storage.Type = "memory"

	cm := NewConnectionManager(cfg, time.Nanosecond)
	if cm.IsHealthy() {
		t.Error("manager should not be healthy before first use")
	}

	first, err := cm.GetContainer(context.Background())
	if err != nil {
		t.Fatalf("GetContainer() error = %v", err)
	}
	version := first.Services.DashboardService.Status().Version

	time.Sleep(time.Millisecond)
	second, err := cm.GetContainer(context.Background())
	if err != nil {
		t.Fatalf("GetContainer() error = %v", err)
	}
	if first != second {
		t.Error("warm invocation should reuse the container")
	}
	if got := second.Services.DashboardService.Status().Version; got <= version {
		t.Errorf("stale dataset was not reloaded: version %d -> %d", version, got)
	}
	if !cm.IsHealthy() {
		t.Error("manager should be healthy after use")
	}

	if err := cm.Cleanup(); err != nil {
		t.Errorf("Cleanup() error = %v", err)
	}
	if cm.IsHealthy() {
		t.Error("manager should not be healthy after cleanup")
	}
}
