package scope

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/chewxy/math32"
)

var (
	gridColor    = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor   = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	traceColor   = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	impulseColor = color.RGBA{R: 100, G: 200, B: 255, A: 255}
	recordColor  = color.RGBA{R: 230, G: 40, B: 40, A: 255}
)

const (
	marginLeft   = 50
	marginRight  = 20
	marginTop    = 30
	marginBottom = 30

	hDivisions = 4
	vDivisions = 10
)

// Rect is the plot area inside the widget.
type Rect struct {
	X, Y, Width, Height float32
}

// plotArea returns the plot rectangle for a widget of the given size.
func plotArea(size fyne.Size) Rect {
	return Rect{
		X:      marginLeft,
		Y:      marginTop,
		Width:  math32.Max(0, size.Width-marginLeft-marginRight),
		Height: math32.Max(0, size.Height-marginTop-marginBottom),
	}
}

// Points projects values onto r. Value i is drawn at x = i on a [0, window]
// axis; values outside [yMin, yMax] are clamped to the plot edges.
func Points(values []float64, window int, yMin, yMax float64, r Rect) []fyne.Position {
	if window <= 0 || yMax <= yMin {
		return nil
	}

	points := make([]fyne.Position, 0, len(values))
	for i, v := range values {
		fx := float32(i) / float32(window)
		fy := float32((v - yMin) / (yMax - yMin))
		if math32.IsNaN(fy) {
			fy = 0
		}
		fy = math32.Min(1, math32.Max(0, fy))

		points = append(points, fyne.NewPos(r.X+fx*r.Width, r.Y+r.Height-fy*r.Height))
	}
	return points
}

// renderer renders the scope widget.
type renderer struct {
	scope *Widget

	background *canvas.Rectangle
	objects    []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *renderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *renderer) Layout(size fyne.Size) {
	r.background.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh rebuilds the canvas objects from the current frame.
func (r *renderer) Refresh() {
	frame := r.scope.Frame()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.background}
	area := plotArea(size)

	r.drawGrid(area)
	r.drawTrace(area, frame)
	r.drawStatus(area, frame)
}

// drawGrid draws fixed horizontal (µS) and vertical (sample) divisions.
func (r *renderer) drawGrid(area Rect) {
	yMin, yMax := r.scope.yMin, r.scope.yMax

	for i := range hDivisions + 1 {
		y := area.Y + float32(i)*area.Height/hDivisions
		r.addLine(fyne.NewPos(area.X, y), fyne.NewPos(area.X+area.Width, y), gridColor, 1)

		value := yMax - float64(i)*(yMax-yMin)/hDivisions
		r.addText(fmt.Sprintf("%g", value), fyne.NewPos(area.X-5, y-6), fyne.TextAlignTrailing, labelColor, 10)
	}

	for i := range vDivisions + 1 {
		x := area.X + float32(i)*area.Width/vDivisions
		r.addLine(fyne.NewPos(x, area.Y), fyne.NewPos(x, area.Y+area.Height), gridColor, 1)

		sampleIndex := i * r.scope.window / vDivisions
		r.addText(fmt.Sprintf("%d", sampleIndex), fyne.NewPos(x-10, area.Y+area.Height+5), fyne.TextAlignCenter, labelColor, 10)
	}

	r.addText("GSR (µS)", fyne.NewPos(5, 5), fyne.TextAlignLeading, labelColor, 11)
}

// drawTrace draws the conductance curve. The last segment is highlighted
// when the latest sample is an impulse.
func (r *renderer) drawTrace(area Rect, frame Frame) {
	points := Points(frame.Values, r.scope.window, r.scope.yMin, r.scope.yMax, area)

	for i := range len(points) - 1 {
		c := traceColor
		if frame.Impulse && i == len(points)-2 {
			c = impulseColor
		}
		r.addLine(points[i], points[i+1], c, 2)
	}
}

// drawStatus draws the latest value and the impulse/recording indicators.
func (r *renderer) drawStatus(area Rect, frame Frame) {
	right := area.X + area.Width

	if n := len(frame.Values); n > 0 {
		r.addText(FormatConductance(frame.Values[n-1]), fyne.NewPos(right-160, 5), fyne.TextAlignTrailing, traceColor, 14)
	}
	if frame.Impulse {
		r.addText("IMPULSE", fyne.NewPos(right-80, 5), fyne.TextAlignTrailing, impulseColor, 14)
	}
	if frame.Recording {
		r.addText("● REC", fyne.NewPos(right, 5), fyne.TextAlignTrailing, recordColor, 14)
	}
}

func (r *renderer) addLine(p1, p2 fyne.Position, c color.Color, width float32) {
	line := canvas.NewLine(c)
	line.Position1 = p1
	line.Position2 = p2
	line.StrokeWidth = width
	r.objects = append(r.objects, line)
}

func (r *renderer) addText(s string, pos fyne.Position, align fyne.TextAlign, c color.Color, size float32) {
	text := canvas.NewText(s, c)
	text.TextSize = size
	text.Alignment = align
	text.Move(pos)
	r.objects = append(r.objects, text)
}

// Objects returns all canvas objects for rendering.
func (r *renderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *renderer) Destroy() {}

// FormatConductance renders a conductance value for labels.
func FormatConductance(us float64) string {
	return fmt.Sprintf("%.2f µS", us)
}
