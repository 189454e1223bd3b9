package charts

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	gecharts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/render"
	"github.com/google/uuid"

	"nhsdash/internal/dashboard"
)

// Missing is the value echarts treats as an absent data point.
const Missing = "-"

// DefaultAssetsHost serves echarts.min.js when Options.AssetsHost is empty.
const DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// Options controls the container a chart renders into.
type Options struct {
	ChartID    string
	Width      string
	Height     string
	AssetsHost string
}

func (o Options) withDefaults() Options {
	if o.ChartID == "" {
		o.ChartID = "chart_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}
	// The id becomes part of a JS identifier in the init script.
	o.ChartID = strings.NewReplacer("-", "_", " ", "_").Replace(o.ChartID)
	if o.Width == "" {
		o.Width = "100%"
	}
	if o.Height == "" {
		o.Height = "450px"
	}
	if o.AssetsHost == "" {
		o.AssetsHost = DefaultAssetsHost
	}
	return o
}

// Snippet is a chart ready to be embedded in a page. Option is the bare
// echarts option object as JSON, for clients that call setOption
// themselves.
type Snippet struct {
	ChartID string `json:"chart_id"`
	Element string `json:"element"`
	Script  string `json:"script"`
	Option  string `json:"option"`
}

// HTML joins the container element and its init script.
func (s Snippet) HTML() template.HTML {
	return template.HTML(s.Element + s.Script)
}

// bluesScale is the sequential "Blues" scale, the only one the correlation
// heatmap asks for.
var bluesScale = []string{"#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6", "#4292c6", "#2171b5", "#08519c", "#08306b"}

// Render converts chart into an echarts snippet.
func Render(chart *dashboard.Chart, o Options) (Snippet, error) {
	if chart == nil {
		return Snippet{}, fmt.Errorf("render chart: nil chart")
	}
	o = o.withDefaults()

	var r render.Renderer
	switch chart.Type {
	case dashboard.ChartBar:
		r = barChart(chart, o)
	case dashboard.ChartPie:
		r = pieChart(chart, o)
	case dashboard.ChartScatter:
		r = scatterChart(chart, o)
	case dashboard.ChartHeatmap:
		if chart.Heatmap == nil {
			return Snippet{}, fmt.Errorf("render chart %q: heatmap has no matrix", chart.Title)
		}
		r = heatmapChart(chart, o)
	default:
		return Snippet{}, fmt.Errorf("render chart %q: unsupported type %q", chart.Title, chart.Type)
	}

	snippet, err := renderSnippet(r)
	if err != nil {
		return Snippet{}, fmt.Errorf("render chart %q: %w", chart.Title, err)
	}
	return Snippet{
		ChartID: o.ChartID,
		Element: snippet.Element,
		Script:  snippet.Script,
		Option:  strings.TrimSuffix(strings.TrimSpace(snippet.Option), ";"),
	}, nil
}

// renderSnippet turns template panics inside go-echarts into errors.
func renderSnippet(r render.Renderer) (snippet render.ChartSnippet, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("echarts template: %v", p)
		}
	}()
	return r.RenderSnippet(), nil
}

func globalOpts(chart *dashboard.Chart, o Options) []gecharts.GlobalOpts {
	legend := opts.Legend{Show: opts.Bool(chart.Legend.Show), Type: "scroll", Top: "30"}
	return []gecharts.GlobalOpts{
		gecharts.WithInitializationOpts(opts.Initialization{
			ChartID:    o.ChartID,
			Width:      o.Width,
			Height:     o.Height,
			AssetsHost: o.AssetsHost,
		}),
		gecharts.WithTitleOpts(opts.Title{Title: chart.Title}),
		gecharts.WithLegendOpts(legend),
		gecharts.WithGridOpts(opts.Grid{Top: "80", Bottom: "60", ContainLabel: opts.Bool(true)}),
	}
}

func xAxis(a dashboard.Axis, typ string) opts.XAxis {
	ax := opts.XAxis{Name: a.Title, Type: typ, NameLocation: "middle", NameGap: 30}
	if a.TickAngle != 0 {
		ax.AxisLabel = &opts.AxisLabel{Rotate: a.TickAngle, Interval: "0"}
		ax.NameGap = 80
	}
	return ax
}

func yAxis(a dashboard.Axis, typ string) opts.YAxis {
	return opts.YAxis{Name: a.Title, Type: typ}
}

func barChart(chart *dashboard.Chart, o Options) *gecharts.Bar {
	bar := gecharts.NewBar()
	bar.SetGlobalOptions(append(globalOpts(chart, o),
		gecharts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		gecharts.WithXAxisOpts(xAxis(chart.XAxis, "category")),
		gecharts.WithYAxisOpts(yAxis(chart.YAxis, "value")),
	)...)
	bar.SetXAxis(chart.Categories)

	for _, s := range chart.Series {
		data := make([]opts.BarData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.BarData{Name: category(chart.Categories, i), Value: value(v)}
			if i < len(s.ItemColors) && s.ItemColors[i] != "" {
				data[i].ItemStyle = &opts.ItemStyle{Color: s.ItemColors[i]}
			}
		}
		var so []gecharts.SeriesOpts
		if s.Color != "" {
			so = append(so, gecharts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}))
		}
		if chart.BarMode == "stack" {
			so = append(so, gecharts.WithBarChartOpts(opts.BarChart{Stack: "total"}))
		}
		bar.AddSeries(s.Name, data, so...)
	}
	return bar
}

func pieChart(chart *dashboard.Chart, o Options) *gecharts.Pie {
	pie := gecharts.NewPie()
	pie.SetGlobalOptions(append(globalOpts(chart, o),
		gecharts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item", Formatter: "{b}: {d}%"}),
	)...)

	data := make([]opts.PieData, 0, len(chart.Slices))
	for _, sl := range chart.Slices {
		if !sl.Value.IsFinite() {
			continue
		}
		d := opts.PieData{Name: sl.Name, Value: float64(sl.Value)}
		if sl.Pull > 0 {
			d.Selected = opts.Bool(true)
		}
		data = append(data, d)
	}
	pie.AddSeries(chart.Title, data,
		gecharts.WithPieChartOpts(opts.PieChart{Radius: []string{"0%", "65%"}, Center: []string{"50%", "58%"}}),
		gecharts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{d}%"}),
		gecharts.WithSeriesOpts(func(s *gecharts.SingleSeries) {
			s.SelectedMode = opts.Bool(true)
		}),
	)
	return pie
}

func scatterChart(chart *dashboard.Chart, o Options) *gecharts.Scatter {
	sc := gecharts.NewScatter()
	sc.SetGlobalOptions(append(globalOpts(chart, o),
		gecharts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		gecharts.WithXAxisOpts(xAxis(chart.XAxis, "value")),
		gecharts.WithYAxisOpts(yAxis(chart.YAxis, "value")),
	)...)

	for _, s := range chart.Series {
		data := make([]opts.ScatterData, 0, len(s.Points))
		for _, p := range s.Points {
			if !p.X.IsFinite() || !p.Y.IsFinite() {
				continue
			}
			data = append(data, opts.ScatterData{
				Name:       p.Label,
				Value:      []float64{float64(p.X), float64(p.Y)},
				SymbolSize: symbolSize(p.Size),
			})
		}
		var so []gecharts.SeriesOpts
		if s.Color != "" {
			so = append(so, gecharts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color, Opacity: opts.Float(0.8)}))
		}
		sc.AddSeries(s.Name, data, so...)
	}
	return sc
}

func heatmapChart(chart *dashboard.Chart, o Options) *gecharts.HeatMap {
	hm := chart.Heatmap

	x := xAxis(chart.XAxis, "category")
	x.Data = hm.Labels
	x.SplitArea = &opts.SplitArea{Show: opts.Bool(true)}
	if x.AxisLabel == nil {
		x.AxisLabel = &opts.AxisLabel{Rotate: 30, Interval: "0"}
	}
	y := yAxis(chart.YAxis, "category")
	y.Data = hm.Labels
	y.Inverse = opts.Bool(true)
	y.SplitArea = &opts.SplitArea{Show: opts.Bool(true)}

	heat := gecharts.NewHeatMap()
	heat.SetGlobalOptions(append(globalOpts(chart, o),
		gecharts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		gecharts.WithXAxisOpts(x),
		gecharts.WithYAxisOpts(y),
		gecharts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        -1,
			Max:        1,
			Orient:     "vertical",
			Right:      "0",
			Top:        "middle",
			InRange:    &opts.VisualMapInRange{Color: bluesScale},
		}),
	)...)

	var data []opts.HeatMapData
	for i, row := range hm.Matrix {
		for j, v := range row {
			cell := value(v)
			if v.IsFinite() {
				cell = round2(float64(v))
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{j, i, cell}})
		}
	}
	heat.AddSeries(chart.Title, data,
		gecharts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}),
	)
	return heat
}

func category(cats []string, i int) string {
	if i < len(cats) {
		return cats[i]
	}
	return ""
}

// value maps non-finite numbers to the echarts missing marker, which
// also keeps the option JSON-encodable.
func value(v dashboard.Float) interface{} {
	if !v.IsFinite() {
		return Missing
	}
	return float64(v)
}

func symbolSize(size float64) int {
	if math.IsNaN(size) || size < 1 {
		return 1
	}
	return int(math.Round(size))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
