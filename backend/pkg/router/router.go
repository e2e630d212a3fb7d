package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"irrigation-monitor/backend/pkg/apidoc"
	"irrigation-monitor/backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// ParameterIn is where a parameter is read from.
type ParameterIn string

const (
	ParameterInPath   ParameterIn = "path"
	ParameterInQuery  ParameterIn = "query"
	ParameterInHeader ParameterIn = "header"
)

// ParameterSpec documents a request parameter.
type ParameterSpec struct {
	In          ParameterIn
	Description string
	Type        any
	Required    bool
}

// ResponseSpec documents one response status.
type ResponseSpec struct {
	Description string
	Type        any
	Examples    map[string]any
}

// RequestBodySpec documents a JSON request body.
type RequestBodySpec struct {
	Description string
	Type        any
	Examples    map[string]any
}

// RouteSpec describes an HTTP route and its documentation.
type RouteSpec struct {
	OperationID string
	Summary     string
	Description string
	Group       string
	Deprecated  string
	Parameters  map[string]ParameterSpec
	RequestType *RequestBodySpec
	Responses   map[int]ResponseSpec
	Handler     http.HandlerFunc

	method   string
	fullPath string
}

// RouteBuilder registers documented routes on a chi router.
type RouteBuilder struct {
	l         *slog.Logger
	router    chi.Router
	collector apidoc.RouteMetadataCollector
	prefix    string
}

func NewRouteBuilder(l *slog.Logger, collector apidoc.RouteMetadataCollector) (*RouteBuilder, error) {
	if collector == nil {
		return nil, fmt.Errorf("collector is required")
	}

	return &RouteBuilder{
		l:         l.With(slog.String("component", "route-builder")),
		router:    chi.NewRouter(),
		collector: collector,
	}, nil
}

// Router returns the underlying chi router for undocumented handlers (static files, pages).
func (rb *RouteBuilder) Router() chi.Router {
	return rb.router
}

// Use appends middlewares to the current router level.
func (rb *RouteBuilder) Use(middlewares ...func(http.Handler) http.Handler) {
	rb.router.Use(middlewares...)
}

// Route mounts a sub-router under pattern.
func (rb *RouteBuilder) Route(pattern string, fn func(rb *RouteBuilder)) {
	rb.router.Route(pattern, func(r chi.Router) {
		fn(&RouteBuilder{
			l:         rb.l,
			router:    r,
			collector: rb.collector,
			prefix:    apidoc.SanitizePath(rb.prefix + pattern),
		})
	})
}

// Register validates and documents spec, then mounts its handler.
func (rb *RouteBuilder) Register(method, path string, spec RouteSpec) error {
	spec.method = method
	spec.fullPath = apidoc.SanitizePath(rb.prefix + "/" + path)

	if err := validateRouteSpec(spec); err != nil {
		return fmt.Errorf("invalid route spec for %s %s: %w", method, spec.fullPath, err)
	}

	params, err := generateParameters(spec)
	if err != nil {
		return err
	}

	info := &apidoc.RouteInfo{
		OperationID: spec.OperationID,
		Method:      method,
		Path:        spec.fullPath,
		Summary:     spec.Summary,
		Description: spec.Description,
		Group:       spec.Group,
		Deprecated:  spec.Deprecated,
		Parameters:  params,
		Responses:   make(map[int]apidoc.ResponseInfo, len(spec.Responses)),
	}

	if spec.RequestType != nil {
		info.Request = &apidoc.RequestBodyInfo{
			Description: spec.RequestType.Description,
			TypeValue:   spec.RequestType.Type,
			Examples:    spec.RequestType.Examples,
		}
	}

	for code, resp := range spec.Responses {
		info.Responses[code] = apidoc.ResponseInfo{
			Description: resp.Description,
			TypeValue:   resp.Type,
			Examples:    resp.Examples,
		}
	}

	if err := rb.collector.RegisterRoute(info); err != nil {
		return fmt.Errorf("failed to document %s %s: %w", method, spec.fullPath, err)
	}

	rb.router.Method(method, path, spec.Handler)
	rb.l.Debug("Registered route", slog.String("method", method), slog.String("path", spec.fullPath), slog.String("operationID", spec.OperationID))

	return nil
}

// MustRegister registers a route and terminates the program if an error occurs.
func (rb *RouteBuilder) MustRegister(method, path string, spec RouteSpec) {
	if err := rb.Register(method, path, spec); err != nil {
		rb.l.Error("Failed to register route", slog.String("method", method), slog.String("path", path), utils.ErrAttr(err))
		os.Exit(1)
	}
}

func (rb *RouteBuilder) MustGet(path string, spec RouteSpec) {
	rb.MustRegister(http.MethodGet, path, spec)
}

func (rb *RouteBuilder) MustPost(path string, spec RouteSpec) {
	rb.MustRegister(http.MethodPost, path, spec)
}
