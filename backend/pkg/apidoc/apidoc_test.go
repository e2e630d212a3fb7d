package apidoc

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sampleResponse struct {
	Message string   `json:"message"`
	Value   *float64 `json:"value"`
}

type sampleCommand struct {
	State string `json:"state"`
}

func newTestCollector() *OpenAPICollector {
	return NewOpenAPICollector(slog.New(slog.NewTextHandler(io.Discard, nil)), APIInfo{
		Title:   "Test API",
		Version: "v0.0.0",
		Servers: []ServerInfo{{URL: "http://localhost:8080", Description: "Local"}},
	})
}

func sampleRoute(operationID, method, path string) *RouteInfo {
	return &RouteInfo{
		OperationID: operationID,
		Method:      method,
		Path:        path,
		Summary:     "Sample",
		Description: "Sample route",
		Group:       "Core",
		Parameters: []ParameterInfo{
			{Name: "page", In: "query", TypeValue: 0, Description: "Page number"},
		},
		Responses: map[int]ResponseInfo{
			http.StatusOK: {
				Description: "OK",
				TypeValue:   sampleResponse{},
				Examples:    map[string]any{"Success": sampleResponse{Message: "hi"}},
			},
		},
	}
}

func TestRegisterRoute(t *testing.T) {
	t.Parallel()

	c := newTestCollector()

	if err := c.RegisterRoute(sampleRoute("getSample", http.MethodGet, "/api/sample/")); err != nil {
		t.Fatalf("RegisterRoute() error = %v", err)
	}

	post := sampleRoute("createSample", http.MethodPost, "/api/sample")
	post.Request = &RequestBodyInfo{Description: "Body", TypeValue: sampleCommand{}}

	if err := c.RegisterRoute(post); err != nil {
		t.Fatalf("RegisterRoute() error = %v", err)
	}

	if err := c.Validate(context.Background()); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	item := c.Spec().Paths.Value("/api/sample")
	if item == nil {
		t.Fatal("path /api/sample not registered")
	}

	if item.Get == nil || item.Get.OperationID != "getSample" {
		t.Error("GET operation missing")
	}

	if item.Post == nil || item.Post.RequestBody == nil {
		t.Error("POST operation or request body missing")
	}

	if len(item.Get.Parameters) != 1 || item.Get.Parameters[0].Value.In != "query" {
		t.Errorf("unexpected parameters: %+v", item.Get.Parameters)
	}
}

func TestRegisterRouteErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		route func() *RouteInfo
	}{
		{"bad operation id", func() *RouteInfo { return sampleRoute("Get_Sample", http.MethodGet, "/a") }},
		{"no responses", func() *RouteInfo {
			r := sampleRoute("getA", http.MethodGet, "/a")
			r.Responses = nil

			return r
		}},
		{"nil request type", func() *RouteInfo {
			r := sampleRoute("getB", http.MethodPost, "/b")
			r.Request = &RequestBodyInfo{}

			return r
		}},
		{"bad parameter location", func() *RouteInfo {
			r := sampleRoute("getC", http.MethodGet, "/c")
			r.Parameters = []ParameterInfo{{Name: "x", In: "cookie", TypeValue: ""}}

			return r
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := newTestCollector().RegisterRoute(tt.route()); err == nil {
				t.Error("RegisterRoute() should return error")
			}
		})
	}
}

func TestDuplicateOperationID(t *testing.T) {
	t.Parallel()

	c := newTestCollector()

	if err := c.RegisterRoute(sampleRoute("getSample", http.MethodGet, "/a")); err != nil {
		t.Fatalf("RegisterRoute() error = %v", err)
	}

	if err := c.RegisterRoute(sampleRoute("getSample", http.MethodGet, "/b")); err == nil {
		t.Error("duplicate operationID should fail")
	}

	err := c.RegisterMQTTSubscription(&MQTTSubscriptionInfo{OperationID: "getSample", Topic: "a/b", TypeValue: sampleCommand{}})
	if err == nil {
		t.Error("operationIDs are shared between HTTP and MQTT")
	}
}

func TestMQTTExtension(t *testing.T) {
	t.Parallel()

	c := newTestCollector()

	if err := c.RegisterMQTTPublication(&MQTTPublicationInfo{
		OperationID: "publishCommand",
		Topic:       "kebun/pompa",
		Summary:     "Pump command",
		Group:       "Control",
		QoS:         1,
		TypeValue:   "",
	}); err != nil {
		t.Fatalf("RegisterMQTTPublication() error = %v", err)
	}

	if err := c.RegisterMQTTSubscription(&MQTTSubscriptionInfo{
		OperationID: "subscribeSensorData",
		Topic:       "kebun/data",
		Summary:     "Sensor data",
		Group:       "Telemetry",
		TypeValue:   sampleCommand{},
	}); err != nil {
		t.Fatalf("RegisterMQTTSubscription() error = %v", err)
	}

	data, err := c.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	for _, want := range []string{`"x-mqtt"`, `"publishCommand"`, `"subscribeSensorData"`, `"action": "subscribe"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON output missing %s", want)
		}
	}

	yamlData, err := c.YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}

	if !strings.Contains(string(yamlData), "x-mqtt:") {
		t.Error("YAML output missing x-mqtt")
	}
}

func TestHandlerAndWriteFiles(t *testing.T) {
	t.Parallel()

	c := newTestCollector()
	if err := c.RegisterRoute(sampleRoute("getSample", http.MethodGet, "/a")); err != nil {
		t.Fatalf("RegisterRoute() error = %v", err)
	}

	rec := httptest.NewRecorder()
	c.Handler(true).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/openapi.yaml", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("Content-Type = %q", ct)
	}

	if !strings.Contains(rec.Body.String(), "openapi: 3.0.3") {
		t.Errorf("unexpected YAML body: %s", rec.Body.String())
	}

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "docs", "openapi.json")
	yamlPath := filepath.Join(dir, "docs", "openapi.yaml")

	if err := c.WriteFiles(jsonPath, yamlPath); err != nil {
		t.Fatalf("WriteFiles() error = %v", err)
	}

	for _, p := range []string{jsonPath, yamlPath} {
		if info, err := os.Stat(p); err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", p, err)
		}
	}
}

func TestNoopCollectorImplementsInterfaces(t *testing.T) {
	t.Parallel()

	var _ MetadataCollector = NoopCollector{}
	var _ MetadataCollector = (*OpenAPICollector)(nil)
}
