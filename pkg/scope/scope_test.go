package scope

import (
	"context"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/itohio/goeda/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoints(t *testing.T) {
	area := Rect{X: 50, Y: 30, Width: 100, Height: 200}

	points := Points([]float64{0, 10, 20}, 100, 0, 20, area)
	require.Len(t, points, 3)

	assert.Equal(t, fyne.NewPos(50, 230), points[0]) // origin: bottom left
	assert.Equal(t, fyne.NewPos(51, 130), points[1]) // mid range
	assert.Equal(t, fyne.NewPos(52, 30), points[2])  // top edge
}

func TestPoints_ClampsOutOfRange(t *testing.T) {
	area := Rect{Width: 100, Height: 100}

	points := Points([]float64{-5, 25, 500}, 100, 0, 20, area)
	require.Len(t, points, 3)

	assert.Equal(t, float32(100), points[0].Y)
	assert.Equal(t, float32(0), points[1].Y)
	assert.Equal(t, float32(0), points[2].Y)
}

func TestPoints_FullWindowSpansWidth(t *testing.T) {
	area := Rect{Width: 200, Height: 100}
	values := make([]float64, 101)

	points := Points(values, 100, 0, 20, area)
	require.Len(t, points, 101)
	assert.Equal(t, float32(0), points[0].X)
	assert.Equal(t, float32(200), points[100].X)
}

func TestPoints_Degenerate(t *testing.T) {
	assert.Nil(t, Points([]float64{1}, 0, 0, 20, Rect{Width: 10, Height: 10}))
	assert.Nil(t, Points([]float64{1}, 100, 5, 5, Rect{Width: 10, Height: 10}))
	assert.Empty(t, Points(nil, 100, 0, 20, Rect{Width: 10, Height: 10}))
}

func TestPlotArea(t *testing.T) {
	area := plotArea(fyne.NewSize(470, 360))
	assert.Equal(t, Rect{X: 50, Y: 30, Width: 400, Height: 300}, area)

	tiny := plotArea(fyne.NewSize(10, 10))
	assert.Equal(t, float32(0), tiny.Width)
	assert.Equal(t, float32(0), tiny.Height)
}

func TestFormatConductance(t *testing.T) {
	assert.Equal(t, "6.36 µS", FormatConductance(6.363636))
	assert.Equal(t, "0.00 µS", FormatConductance(0))
}

func TestNew_Defaults(t *testing.T) {
	w := New(config.DisplayConfig{})
	assert.Equal(t, 100, w.window)
	assert.Equal(t, 0.0, w.yMin)
	assert.Equal(t, 20.0, w.yMax)
}

func TestWidget_UpdateAndRender(t *testing.T) {
	test.NewTempApp(t)

	w := New(config.Default().Display)
	w.Resize(fyne.NewSize(470, 360))

	f := Frame{Values: []float64{5, 6, 7}, Impulse: true, Recording: true}
	w.Update(f)
	assert.Equal(t, f, w.Frame())

	r := test.WidgetRenderer(w)
	r.Refresh()

	// background, 5 + 11 grid lines with labels, axis title, 2 trace segments, 3 status labels
	assert.Len(t, r.Objects(), 1+2*(hDivisions+1)+2*(vDivisions+1)+1+2+3)
}

func TestPoll_StopsOnCancel(t *testing.T) {
	test.NewTempApp(t)

	w := New(config.Default().Display)
	calls := make(chan struct{}, 16)
	source := SourceFunc(func() Frame {
		select {
		case calls <- struct{}{}:
		default:
		}
		return Frame{Values: []float64{1}}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Poll(ctx, w, source, 5*time.Millisecond)
		close(done)
	}()

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("source was never polled")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Poll did not return after cancel")
	}
}
