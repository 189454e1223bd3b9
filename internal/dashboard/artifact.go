package dashboard

import (
	"encoding/json"
	"math"
)

// Kind tells the presentation layer how to draw an Artifact.
type Kind string

const (
	KindCards   Kind = "cards"
	KindTable   Kind = "table"
	KindChart   Kind = "chart"
	KindMessage Kind = "message"
)

// ChartType names the chart family of a Chart.
type ChartType string

const (
	ChartBar     ChartType = "bar"
	ChartPie     ChartType = "pie"
	ChartScatter ChartType = "scatter"
	ChartHeatmap ChartType = "heatmap"
)

// Float is a float64 that encodes NaN and ±Inf as JSON null.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// IsFinite reports whether f is neither NaN nor infinite.
func (f Float) IsFinite() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Artifact is the rendered output of one (view, provider) selection.
// Artifacts returned by a Renderer are shared between callers and must
// be treated as read-only.
type Artifact struct {
	View     string     `json:"view"`
	Provider string     `json:"provider"`
	Kind     Kind       `json:"kind"`
	Cards    []Card     `json:"cards,omitempty"`
	Table    *TableData `json:"table,omitempty"`
	Chart    *Chart     `json:"chart,omitempty"`
	Message  string     `json:"message,omitempty"`
}

// Card is one labelled summary figure.
type Card struct {
	Label string `json:"label"`
	Value string `json:"value"`
	// Raw is the unformatted aggregate behind Value.
	Raw Float `json:"raw"`
}

// TableData is a rectangular grid of display strings.
type TableData struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Axis describes one chart axis.
type Axis struct {
	Title     string  `json:"title"`
	TickAngle float64 `json:"tick_angle,omitempty"`
}

// Legend controls legend visibility and heading.
type Legend struct {
	Show  bool   `json:"show"`
	Title string `json:"title,omitempty"`
}

// Series is one named data series. Bar series align Values with
// Chart.Categories; scatter series use Points.
type Series struct {
	Name       string   `json:"name"`
	Color      string   `json:"color,omitempty"`
	Values     []Float  `json:"values,omitempty"`
	ItemColors []string `json:"item_colors,omitempty"`
	Points     []Point  `json:"points,omitempty"`
}

// Point is a single scatter marker. Size is the marker diameter in pixels.
type Point struct {
	X     Float   `json:"x"`
	Y     Float   `json:"y"`
	Size  float64 `json:"size"`
	Label string  `json:"label,omitempty"`
}

// Slice is one pie sector. Pull is the fraction of the radius the sector
// is offset from the centre.
type Slice struct {
	Name  string  `json:"name"`
	Value Float   `json:"value"`
	Pull  float64 `json:"pull,omitempty"`
}

// Heatmap is a labelled square matrix.
type Heatmap struct {
	Labels     []string  `json:"labels"`
	Matrix     [][]Float `json:"matrix"`
	TextFormat string    `json:"text_format"`
	ColorScale string    `json:"color_scale"`
}

// Chart is a renderer-neutral chart description.
type Chart struct {
	Type       ChartType `json:"type"`
	Title      string    `json:"title"`
	XAxis      Axis      `json:"x_axis"`
	YAxis      Axis      `json:"y_axis"`
	Legend     Legend    `json:"legend"`
	BarMode    string    `json:"bar_mode,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Series     []Series  `json:"series,omitempty"`
	Slices     []Slice   `json:"slices,omitempty"`
	Heatmap    *Heatmap  `json:"heatmap,omitempty"`
}

func floatValues(vs ...float64) []Float {
	out := make([]Float, len(vs))
	for i, v := range vs {
		out[i] = Float(v)
	}
	return out
}
