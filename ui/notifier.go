package ui

import (
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// DefaultAlertDuration is how long an alert banner stays visible
const DefaultAlertDuration = 5 * time.Second

var _ Component = (*Notifier)(nil)

// Notifier shows user-facing error messages as a banner across the top of
// the window. Alerts never block; a new alert replaces the previous one.
type Notifier struct {
	Duration time.Duration

	mu      sync.Mutex
	message string
	expires time.Time
	now     func() time.Time

	windowWidth int
	parent      Container
}

func NewNotifier() *Notifier {
	return &Notifier{
		Duration:    DefaultAlertDuration,
		now:         time.Now,
		windowWidth: 800,
	}
}

// Alert shows msg until the alert duration has passed
func (n *Notifier) Alert(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.message = msg
	n.expires = n.now().Add(n.Duration)
}

// Message returns the visible alert, if any
func (n *Notifier) Message() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.message == "" || !n.now().Before(n.expires) {
		return "", false
	}
	return n.message, true
}

// Dismiss hides the current alert
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.message = ""
}

func (n *Notifier) UpdateWindowSize(width, height int) {
	n.windowWidth = width
}

func (n *Notifier) Update() error {
	if _, ok := n.Message(); !ok {
		n.Dismiss()
	}
	return nil
}

func (n *Notifier) Draw(screen *ebiten.Image) {
	msg, ok := n.Message()
	if !ok {
		return
	}
	b := n.Bounds()
	vector.DrawFilledRect(screen, float32(b.X), float32(b.Y), float32(b.Width), float32(b.Height),
		color.RGBA{183, 28, 28, 230}, false)
	ebitenutil.DebugPrintAt(screen, msg, int(b.X)+8, int(b.Y)+4)
}

func (n *Notifier) Bounds() Rectangle {
	return Rectangle{X: 0, Y: 0, Width: float64(n.windowWidth), Height: 24}
}

// HandleInput dismisses a visible banner when it is clicked
func (n *Notifier) HandleInput(x, y float64, pressed bool) bool {
	if _, ok := n.Message(); !ok || !n.Bounds().Contains(x, y) {
		return false
	}
	if pressed {
		n.Dismiss()
	}
	return true
}

func (n *Notifier) SetParent(parent Container) {
	n.parent = parent
}

func (n *Notifier) GetParent() Container {
	return n.parent
}
