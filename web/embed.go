package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
)

//go:embed all:static
var staticFS embed.FS

//go:embed templates/*.html
var templatesFS embed.FS

// Page names accepted by Pages.Render.
const (
	PageHome    = "home.html"
	PageHistory = "history.html"
	PageStatus  = "status.html"
	PageRelay   = "relay.html"
)

type Router interface {
	HandleFunc(pattern string, handler http.HandlerFunc)
	Mount(pattern string, handler http.Handler)
}

// StaticApp serves the embedded JS and CSS under /static/.
func StaticApp() (*WebApp, error) {
	return NewWebApp("static", staticFS, "static", "/static/")
}

type WebApp struct {
	name    string
	l       *slog.Logger
	fs      fs.FS
	urlBase string
}

func NewWebApp(name string, app fs.FS, subDir string, urlBase string) (*WebApp, error) {
	subFS, err := fs.Sub(app, subDir)
	if err != nil {
		return nil, err
	}

	// Ensure urlBase starts with / and ends with /
	urlBase = strings.TrimSuffix(urlBase, "/")
	urlBase = strings.TrimPrefix(urlBase, "/")
	urlBase = "/" + urlBase + "/"

	return &WebApp{
		name:    name,
		fs:      subFS,
		urlBase: urlBase,
		l:       slog.Default().With(slog.String("component", name)),
	}, nil
}

func (wa *WebApp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")

	f, err := fs.Stat(wa.fs, path)
	if err != nil || f.IsDir() {
		wa.l.Warn("File not found", slog.String("path", path))
		http.NotFound(w, r)

		return
	}

	http.ServeFileFS(w, r, wa.fs, path)
}

// Handler returns an http.Handler that serves the WebApp at the given path.
func (wa *WebApp) Handler(path string) http.Handler {
	return http.StripPrefix(path, wa)
}

// Register registers the WebApp with the given router.
func (wa *WebApp) Register(mux Router, l *slog.Logger) {
	wa.l = l.With(slog.String("app", wa.name), slog.String("urlBase", wa.urlBase), slog.String("component", "file-server"))
	wa.l.Info("Registering web app")

	mux.Mount(strings.TrimSuffix(wa.urlBase, "/"), wa.Handler(wa.urlBase))
}

// Pages renders the server-side HTML pages. Each page is parsed together with layout.html.
type Pages struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
	"deref": func(p *float64) string {
		if p == nil {
			return "-"
		}

		return fmt.Sprintf("%.1f", *p)
	},
}

func NewPages() (*Pages, error) {
	p := &Pages{pages: map[string]*template.Template{}}

	for _, name := range []string{PageHome, PageHistory, PageStatus, PageRelay} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}

		p.pages[name] = t
	}

	return p, nil
}

// Render executes the page into a buffer first so a template error never produces a partial page.
func (p *Pages) Render(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := p.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %s", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)

	return err
}
