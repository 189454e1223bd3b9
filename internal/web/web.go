// Package web renders the dashboard page and the per-view HTML fragments
// that the page and the websocket swap into the content panel.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"

	"nhsdash/internal/charts"
	"nhsdash/internal/dashboard"
	"nhsdash/internal/web/templates"
)

// Options controls chart sizing and where echarts is loaded from.
type Options struct {
	ChartWidth  string
	ChartHeight string
	AssetsHost  string
}

// Page is the data behind the full dashboard page.
type Page struct {
	Title         string
	Subtitle      string
	Version       string
	Views         []dashboard.View
	Providers     []dashboard.ProviderOption
	View          string
	Provider      string
	Content       template.HTML
	WebSocketPath string
	EChartsURL    string
}

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl *template.Template
	opts Options
}

// NewRenderer parses the embedded templates.
func NewRenderer(opts Options) (*Renderer, error) {
	if opts.AssetsHost == "" {
		opts.AssetsHost = charts.DefaultAssetsHost
	}
	tmpl, err := template.New("web").ParseFS(templates.Templates, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, opts: opts}, nil
}

// EChartsURL is the script URL of the echarts library.
func (r *Renderer) EChartsURL() string {
	return strings.TrimSuffix(r.opts.AssetsHost, "/") + "/echarts.min.js"
}

// Fragment renders the content panel markup for a.
func (r *Renderer) Fragment(a dashboard.Artifact) (template.HTML, error) {
	switch a.Kind {
	case dashboard.KindCards:
		return r.execute("cards", a.Cards)
	case dashboard.KindTable:
		if a.Table == nil {
			return "", fmt.Errorf("view %q: table artifact without data", a.View)
		}
		return r.execute("table", a.Table)
	case dashboard.KindChart:
		snippet, err := charts.Render(a.Chart, charts.Options{
			ChartID:    "chart_" + a.View,
			Width:      r.opts.ChartWidth,
			Height:     r.opts.ChartHeight,
			AssetsHost: r.opts.AssetsHost,
		})
		if err != nil {
			return "", fmt.Errorf("view %q: %w", a.View, err)
		}
		return r.execute("chart", snippet)
	case dashboard.KindMessage:
		return r.Message(a.Message)
	}
	return "", fmt.Errorf("view %q: unsupported artifact kind %q", a.View, a.Kind)
}

// Message renders a plain notice in place of a view.
func (r *Renderer) Message(text string) (template.HTML, error) {
	return r.execute("message", text)
}

// Page writes the full dashboard document to w.
func (r *Renderer) Page(w io.Writer, p Page) error {
	if p.EChartsURL == "" {
		p.EChartsURL = r.EChartsURL()
	}
	return r.tmpl.ExecuteTemplate(w, "page", p)
}

func (r *Renderer) execute(name string, data interface{}) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s fragment: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}
