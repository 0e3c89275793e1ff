package history

import (
	"fmt"
	"strings"
)

// LineChart renders a fixed-size SVG line chart. Output is fully
// deterministic for a given input, so regenerated charts never churn in git.
type LineChart struct {
	Title   string
	Width   int
	Height  int
	padding int
	xLabels []string
	series  []chartSeries
}

type chartSeries struct {
	data  []int
	label string
	color string
}

func NewLineChart(title string) *LineChart {
	return &LineChart{Title: title, Width: 800, Height: 400, padding: 80}
}

func (c *LineChart) SetXLabels(labels []string) {
	c.xLabels = labels
}

func (c *LineChart) AddLine(data []int, label, color string) {
	c.series = append(c.series, chartSeries{data: data, label: label, color: color})
}

// Generate renders the SVG document. Empty when no series carries data.
func (c *LineChart) Generate() string {
	maxVal := 0
	hasData := false
	for _, s := range c.series {
		for _, v := range s.data {
			hasData = true
			if v > maxVal {
				maxVal = v
			}
		}
	}
	if !hasData {
		return ""
	}

	plotBottom := float64(c.Height - c.padding)
	plotTop := float64(c.padding)
	plotLeft := float64(c.padding)
	plotRight := float64(c.Width - c.padding)

	getY := func(val float64) float64 {
		if maxVal == 0 {
			return plotBottom
		}
		ratio := val / float64(maxVal)
		return plotBottom - ratio*(plotBottom-plotTop)
	}
	getX := func(idx, count int) float64 {
		plotWidth := plotRight - plotLeft
		if count <= 1 {
			return plotLeft + plotWidth/2
		}
		return plotLeft + float64(idx)*plotWidth/float64(count-1)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`+"\n", c.Width, c.Height)
	b.WriteString(`<rect width="100%" height="100%" fill="white" />` + "\n")
	fmt.Fprintf(&b, `<text x="%g" y="30" text-anchor="middle" font-family="sans-serif" font-size="20" font-weight="bold">%s</text>`+"\n",
		float64(c.Width)/2, c.Title)

	// Axes
	fmt.Fprintf(&b, `<line x1="%g" y1="%g" x2="%g" y2="%g" stroke="black" stroke-width="2"/>`+"\n",
		plotLeft, plotBottom, plotRight, plotBottom)
	fmt.Fprintf(&b, `<line x1="%g" y1="%g" x2="%g" y2="%g" stroke="black" stroke-width="2"/>`+"\n",
		plotLeft, plotBottom, plotLeft, plotTop)

	// Y gridlines and labels, 5 steps
	for i := 0; i <= 5; i++ {
		val := float64(maxVal) * float64(i) / 5
		y := getY(val)
		fmt.Fprintf(&b, `<line x1="%g" y1="%g" x2="%g" y2="%g" stroke="black"/>`+"\n", plotLeft-5, y, plotLeft, y)
		fmt.Fprintf(&b, `<text x="%g" y="%g" text-anchor="end" font-family="sans-serif" font-size="12">%d</text>`+"\n",
			plotLeft-10, y+5, int(val))
		fmt.Fprintf(&b, `<line x1="%g" y1="%g" x2="%g" y2="%g" stroke="#ddd" stroke-dasharray="4"/>`+"\n",
			plotLeft, y, plotRight, y)
	}

	// X labels, sampled down to at most ~10
	count := len(c.xLabels)
	step := count / 10
	if step < 1 {
		step = 1
	}
	for i := 0; i < count; i += step {
		x := getX(i, count)
		fmt.Fprintf(&b, `<line x1="%g" y1="%g" x2="%g" y2="%g" stroke="black"/>`+"\n", x, plotBottom, x, plotBottom+5)
		fmt.Fprintf(&b, `<text x="%g" y="%g" text-anchor="start" font-family="sans-serif" font-size="10" transform="rotate(45, %g, %g)">%s</text>`+"\n",
			x, plotBottom+10, x, plotBottom+10, c.xLabels[i])
	}

	// Legend
	legendX := plotRight - 150
	for i, s := range c.series {
		ly := plotTop + float64(i*20)
		fmt.Fprintf(&b, `<rect x="%g" y="%g" width="10" height="10" fill="%s"/>`+"\n", legendX, ly, s.color)
		fmt.Fprintf(&b, `<text x="%g" y="%g" font-family="sans-serif" font-size="12">%s</text>`+"\n",
			legendX+15, ly+10, s.label)
	}

	// Series polylines
	for _, s := range c.series {
		points := make([]string, len(s.data))
		for i, v := range s.data {
			points[i] = fmt.Sprintf("%g,%g", getX(i, len(s.data)), getY(float64(v)))
		}
		fmt.Fprintf(&b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`+"\n",
			strings.Join(points, " "), s.color)
	}

	b.WriteString("</svg>\n")
	return b.String()
}
