package tilemap

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// LineSource provides polylines in the coordinates of a projection
type LineSource interface {
	Lines(code string) (orb.MultiLineString, error)
}

var _ Layer = (*VectorLayer)(nil)

// VectorLayer draws polylines on top of the base layer
type VectorLayer struct {
	layerState

	source LineSource
	Color  color.Color
	Width  float32
	log    *zap.Logger
}

// NewVectorLayer creates an overlay layer drawing the lines of source
func NewVectorLayer(name string, source LineSource, log *zap.Logger) *VectorLayer {
	if log == nil {
		log = zap.NewNop()
	}
	return &VectorLayer{
		layerState: layerState{name: name, visible: true},
		source:     source,
		Color:      color.RGBA{R: 255, G: 215, A: 255},
		Width:      1,
		log:        log.With(zap.String("layer", name)),
	}
}

// Draw strokes every segment that intersects the view
func (l *VectorLayer) Draw(screen *ebiten.Image, m *Map, debugMode bool) {
	lines, err := l.source.Lines(m.Projection())
	if err != nil {
		l.log.Debug("no lines for projection", zap.String("projection", m.Projection()), zap.Error(err))
		return
	}

	view := m.ViewExtent().Bound()
	for _, ls := range lines {
		if !ls.Bound().Intersects(view) {
			continue
		}
		for i := 1; i < len(ls); i++ {
			x0, y0 := m.MapToScreen(ls[i-1][0], ls[i-1][1])
			x1, y1 := m.MapToScreen(ls[i][0], ls[i][1])
			vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), l.Width, l.Color, true)
		}
	}
}
