// Package apidoc builds an OpenAPI document from the HTTP routes and MQTT operations the
// server registers. MQTT operations are listed under the x-mqtt extension.
package apidoc

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"irrigation-monitor/backend/pkg/utils"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
	"github.com/oasdiff/yaml"
)

const mqttExtension = "x-mqtt"

type APIInfo struct {
	Title       string
	Version     string
	Description string
	Servers     []ServerInfo
}

type ServerInfo struct {
	URL         string
	Description string
}

// MQTTOperation is the documented form of a publication or subscription.
type MQTTOperation struct {
	OperationID string              `json:"operationId"`
	Action      string              `json:"action"`
	Topic       string              `json:"topic"`
	Summary     string              `json:"summary"`
	Description string              `json:"description,omitempty"`
	Group       string              `json:"group"`
	Deprecated  string              `json:"deprecated,omitempty"`
	QoS         byte                `json:"qos"`
	Retained    bool                `json:"retained"`
	Schema      *openapi3.SchemaRef `json:"schema,omitempty"`
	Examples    map[string]any      `json:"examples,omitempty"`
}

// OpenAPICollector implements MetadataCollector and renders an OpenAPI 3 document.
type OpenAPICollector struct {
	l    *slog.Logger
	mu   sync.Mutex
	spec *openapi3.T
	ops  map[string]struct{}
	mqtt []MQTTOperation
}

func NewOpenAPICollector(l *slog.Logger, info APIInfo) *OpenAPICollector {
	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       info.Title,
			Version:     info.Version,
			Description: info.Description,
		},
		Paths:      openapi3.NewPaths(),
		Components: &openapi3.Components{},
	}

	for _, s := range info.Servers {
		spec.Servers = append(spec.Servers, &openapi3.Server{URL: s.URL, Description: s.Description})
	}

	return &OpenAPICollector{
		l:    l.With(slog.String("component", "apidoc")),
		spec: spec,
		ops:  map[string]struct{}{},
	}
}

func (g *OpenAPICollector) RegisterRoute(route *RouteInfo) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.claimOperationID(route.OperationID); err != nil {
		return err
	}

	op := openapi3.NewOperation()
	op.OperationID = route.OperationID
	op.Summary = route.Summary
	op.Description = route.Description
	op.Tags = []string{route.Group}

	if route.Deprecated != "" {
		op.Deprecated = true
		op.Description = strings.TrimSpace(op.Description + "\n\nDeprecated: " + route.Deprecated)
	}

	for _, p := range route.Parameters {
		param, err := newParameter(p)
		if err != nil {
			return fmt.Errorf("parameter %s in route [%s]: %w", p.Name, route.OperationID, err)
		}

		op.AddParameter(param)
	}

	if route.Request != nil {
		if isNilOrNilPointer(route.Request.TypeValue) {
			return fmt.Errorf("request TypeValue must not be nil when Request is provided in route [%s]", route.OperationID)
		}

		schema, err := schemaFor(route.Request.TypeValue)
		if err != nil {
			return fmt.Errorf("failed to process request type in route [%s]: %w", route.OperationID, err)
		}

		body := openapi3.NewRequestBody().WithDescription(route.Request.Description).WithJSONSchemaRef(schema).WithRequired(true)
		setExamples(body.Content.Get("application/json"), route.Request.Examples)
		op.RequestBody = &openapi3.RequestBodyRef{Value: body}
	}

	if len(route.Responses) == 0 {
		return fmt.Errorf("route [%s] must document at least one response", route.OperationID)
	}

	op.Responses = openapi3.NewResponsesWithCapacity(len(route.Responses))

	for _, code := range slices.Sorted(maps.Keys(route.Responses)) {
		r := route.Responses[code]

		resp := openapi3.NewResponse().WithDescription(r.Description)

		if !isNilOrNilPointer(r.TypeValue) {
			schema, err := schemaFor(r.TypeValue)
			if err != nil {
				return fmt.Errorf("failed to process response type for status %d in route [%s]: %w", code, route.OperationID, err)
			}

			resp = resp.WithJSONSchemaRef(schema)
			setExamples(resp.Content.Get("application/json"), r.Examples)
		}

		op.Responses.Set(strconv.Itoa(code), &openapi3.ResponseRef{Value: resp})
	}

	path := SanitizePath(route.Path)

	item := g.spec.Paths.Value(path)
	if item == nil {
		item = &openapi3.PathItem{}
		g.spec.Paths.Set(path, item)
	}

	if item.GetOperation(route.Method) != nil {
		return fmt.Errorf("duplicate route %s %s", route.Method, path)
	}

	item.SetOperation(route.Method, op)

	return nil
}

func (g *OpenAPICollector) RegisterMQTTPublication(pub *MQTTPublicationInfo) error {
	return g.registerMQTT(MQTTOperation{
		OperationID: pub.OperationID,
		Action:      "publish",
		Topic:       pub.Topic,
		Summary:     pub.Summary,
		Description: pub.Description,
		Group:       pub.Group,
		Deprecated:  pub.Deprecated,
		QoS:         pub.QoS,
		Retained:    pub.Retained,
		Examples:    pub.Examples,
	}, pub.TypeValue)
}

func (g *OpenAPICollector) RegisterMQTTSubscription(sub *MQTTSubscriptionInfo) error {
	return g.registerMQTT(MQTTOperation{
		OperationID: sub.OperationID,
		Action:      "subscribe",
		Topic:       sub.Topic,
		Summary:     sub.Summary,
		Description: sub.Description,
		Group:       sub.Group,
		Deprecated:  sub.Deprecated,
		QoS:         sub.QoS,
		Examples:    sub.Examples,
	}, sub.TypeValue)
}

func (g *OpenAPICollector) registerMQTT(op MQTTOperation, typeValue any) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.claimOperationID(op.OperationID); err != nil {
		return err
	}

	if isNilOrNilPointer(typeValue) {
		return fmt.Errorf("message type must not be nil in operation [%s]", op.OperationID)
	}

	schema, err := schemaFor(typeValue)
	if err != nil {
		return fmt.Errorf("failed to process message type in operation [%s]: %w", op.OperationID, err)
	}

	op.Schema = schema
	g.mqtt = append(g.mqtt, op)

	return nil
}

// Spec returns the document built so far.
func (g *OpenAPICollector) Spec() *openapi3.T {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.mqtt) > 0 {
		if g.spec.Extensions == nil {
			g.spec.Extensions = map[string]any{}
		}

		g.spec.Extensions[mqttExtension] = slices.Clone(g.mqtt)
	}

	return g.spec
}

// Validate checks the document structure. Examples are documentation only and are not
// checked against their schemas.
func (g *OpenAPICollector) Validate(ctx context.Context) error {
	return g.Spec().Validate(ctx, openapi3.DisableExamplesValidation())
}

func (g *OpenAPICollector) JSON() ([]byte, error) {
	return utils.ToJSONIndent(g.Spec())
}

func (g *OpenAPICollector) YAML() ([]byte, error) {
	return yaml.Marshal(g.Spec())
}

// Handler serves the document as JSON, or YAML when asYAML is set.
func (g *OpenAPICollector) Handler(asYAML bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		render, contentType := g.JSON, "application/json"
		if asYAML {
			render, contentType = g.YAML, "application/yaml"
		}

		data, err := render()
		if err != nil {
			g.l.Error("failed to render API document", utils.ErrAttr(err))
			http.Error(w, "failed to render API document", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	}
}

// WriteFiles writes the JSON and YAML documents, creating parent directories.
func (g *OpenAPICollector) WriteFiles(jsonPath, yamlPath string) error {
	for path, render := range map[string]func() ([]byte, error){jsonPath: g.JSON, yamlPath: g.YAML} {
		if path == "" {
			continue
		}

		data, err := render()
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", path, err)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}

		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		g.l.Info("API document written", slog.String("file", path))
	}

	return nil
}

func (g *OpenAPICollector) claimOperationID(operationID string) error {
	if err := validateOperationIDFormat(operationID); err != nil {
		return err
	}

	if _, exists := g.ops[operationID]; exists {
		return fmt.Errorf("duplicate operationID: %s", operationID)
	}

	g.ops[operationID] = struct{}{}

	return nil
}

func schemaFor(v any) (*openapi3.SchemaRef, error) {
	return openapi3gen.NewSchemaRefForValue(v, nil)
}

func newParameter(p ParameterInfo) (*openapi3.Parameter, error) {
	var param *openapi3.Parameter

	switch p.In {
	case openapi3.ParameterInPath:
		param = openapi3.NewPathParameter(p.Name)
	case openapi3.ParameterInQuery:
		param = openapi3.NewQueryParameter(p.Name)
	case openapi3.ParameterInHeader:
		param = openapi3.NewHeaderParameter(p.Name)
	default:
		return nil, fmt.Errorf("unsupported parameter location %q", p.In)
	}

	schema, err := schemaFor(p.TypeValue)
	if err != nil {
		return nil, err
	}

	return param.WithDescription(p.Description).WithRequired(p.Required).WithSchema(schema.Value), nil
}

func setExamples(mt *openapi3.MediaType, examples map[string]any) {
	if mt == nil || len(examples) == 0 {
		return
	}

	mt.Examples = make(openapi3.Examples, len(examples))
	for name, value := range examples {
		mt.Examples[name] = &openapi3.ExampleRef{Value: openapi3.NewExample(value)}
	}
}
