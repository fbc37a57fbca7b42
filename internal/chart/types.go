package chart

// Point is a single sample of a time series. Time is expressed in unix
// seconds; callers are expected to supply points in chronological order.
type Point struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// Options customises a chart instance.
type Options struct {
	Width       int
	Height      int
	Title       string
	Description string
	AxisColor   string
	GridColor   string
	FillColor   string
	Padding     float64
	TickCount   int
	ShowDots    bool
	// TimeLayout formats the x axis labels. Defaults to DefaultTimeLayout.
	TimeLayout string
}

// SeriesOpts customises a line series.
type SeriesOpts struct {
	Title     string
	Color     string
	LineWidth float64
}

// Defaults for charts created without explicit sizing.
const (
	DefaultWidth      = 800
	DefaultHeight     = 400
	DefaultPadding    = 32.0
	DefaultTicks      = 6
	DefaultTimeLayout = "2006-01-02 15:04"
)

var palette = []string{"#2563eb", "#f97316", "#16a34a", "#9333ea", "#dc2626"}
