// Package interactive draws the terminal UI. It is a passive sink:
// the playback controller pushes RenderState snapshots at it, and the
// key loop forwards commands back through the Controls interface.
package interactive

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/gdamore/tcell/v2/encoding"
	"github.com/mattn/go-runewidth"
	"github.com/mjsorribas/PopcornCast/internal/screen"
)

const (
	seekStep   = 10.0
	volumeStep = 0.05
)

// Controls is the subset of playback operations the key loop drives.
type Controls interface {
	TogglePlay() error
	Stop() error
	StopApp() error
	ToggleMute() error
	AdjustVolume(delta float64) error
	SeekBy(delta float64) error
}

// NewScreen .
type NewScreen struct {
	Current tcell.Screen
	Player  Controls

	exitCTXfunc func()
	finiOnce    sync.Once
	mu          sync.RWMutex
	state       screen.RenderState
}

var _ screen.Screen = (*NewScreen)(nil)

// InitTcellNewScreen .
func InitTcellNewScreen(exitFunc func()) (*NewScreen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, errors.New("can't start new interactive screen")
	}
	return &NewScreen{
		Current:     s,
		exitCTXfunc: exitFunc,
	}, nil
}

func (p *NewScreen) emitStr(x, y int, style tcell.Style, str string) {
	s := p.Current
	for _, c := range str {
		var comb []rune
		w := runewidth.RuneWidth(c)
		if w == 0 {
			comb = []rune{c}
			c = ' '
			w = 1
		}
		s.SetContent(x, y, c, comb, style)
		x += w
	}
}

// Render draws a full playback snapshot. Method to implement the
// screen interface. It must never call back into the controller.
func (p *NewScreen) Render(st screen.RenderState) {
	p.mu.Lock()
	p.state = st
	p.mu.Unlock()
	p.draw()
}

// EmitMsg replaces the status line only. Method to implement the
// screen interface.
func (p *NewScreen) EmitMsg(inputtext string) {
	p.mu.Lock()
	p.state.Message = inputtext
	p.mu.Unlock()
	p.draw()
}

func (p *NewScreen) draw() {
	p.mu.RLock()
	st := p.state
	p.mu.RUnlock()

	s := p.Current
	w, h := s.Size()

	boldStyle := tcell.StyleDefault.
		Background(tcell.ColorBlack).
		Foreground(tcell.ColorWhite).Bold(true)
	blinkStyle := tcell.StyleDefault.
		Background(tcell.ColorBlack).
		Foreground(tcell.ColorWhite).Blink(true)

	s.Clear()

	p.emitStr(1, 1, tcell.StyleDefault, "Press ESC to stop and exit.")

	title := "Title: " + st.MediaTitle
	p.emitStr(w/2-len(title)/2, h/2-4, tcell.StyleDefault, title)

	target := targetLine(st)
	p.emitStr(w/2-len(target)/2, h/2-2, tcell.StyleDefault, target)

	msgStyle := boldStyle
	if statusBlinks(st.Message) {
		msgStyle = blinkStyle
	}
	p.emitStr(w/2-len(st.Message)/2, h/2, msgStyle, st.Message)

	bar := progressLine(st)
	p.emitStr(w/2-len(bar)/2, h/2+2, tcell.StyleDefault, bar)

	vol := volumeLine(st)
	volStyle := tcell.StyleDefault
	if st.Muted {
		volStyle = blinkStyle
	}
	p.emitStr(w/2-len(vol)/2, h/2+4, volStyle, vol)

	help1 := `"p" (Play/Pause) "s" (Stop) "m" (Mute/Unmute)`
	help2 := `"Left/Right" (Seek) "Page Up/Down" (Volume)`
	p.emitStr(w/2-len(help1)/2, h/2+6, tcell.StyleDefault, help1)
	p.emitStr(w/2-len(help2)/2, h/2+8, tcell.StyleDefault, help2)

	s.Show()
}

// InterInit starts the interactive terminal. It sends nil on started
// once the screen is up, then blocks on the event loop until Fini.
func (p *NewScreen) InterInit(started chan<- error) {
	encoding.Register()
	s := p.Current
	if err := s.Init(); err != nil {
		started <- fmt.Errorf("interactive init: %w", err)
		return
	}

	defStyle := tcell.StyleDefault.
		Background(tcell.ColorBlack).
		Foreground(tcell.ColorWhite)
	s.SetStyle(defStyle)

	p.mu.Lock()
	if p.state.Message == "" {
		p.state.Message = "Waiting for status..."
	}
	p.mu.Unlock()
	p.draw()

	started <- nil

	for {
		switch ev := s.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			s.Sync()
			p.draw()
		case *tcell.EventKey:
			p.handleKeyEvent(ev)
		}
	}
}

func (p *NewScreen) handleKeyEvent(ev *tcell.EventKey) {
	if p.Player == nil {
		return
	}

	if ev.Key() == tcell.KeyEscape || ev.Rune() == 'q' {
		_ = p.Player.Stop()
		_ = p.Player.StopApp()
		p.Fini()
		return
	}

	switch ev.Key() {
	case tcell.KeyPgUp:
		_ = p.Player.AdjustVolume(volumeStep)
	case tcell.KeyPgDn:
		_ = p.Player.AdjustVolume(-volumeStep)
	case tcell.KeyLeft:
		_ = p.Player.SeekBy(-seekStep)
	case tcell.KeyRight:
		_ = p.Player.SeekBy(seekStep)
	}

	switch ev.Rune() {
	case 'p':
		_ = p.Player.TogglePlay()
	case 'm':
		_ = p.Player.ToggleMute()
	case 's':
		_ = p.Player.Stop()
	}
}

// Fini closes the screen and signals the exit function. Method to
// implement the screen interface. Safe to call more than once, the key
// loop and the shutdown path can both reach it.
func (p *NewScreen) Fini() {
	p.finiOnce.Do(func() {
		p.Current.Fini()
		if p.exitCTXfunc != nil {
			p.exitCTXfunc()
		}
	})
}

// statusBlinks reports whether a status message describes an operation
// still in flight. Those render with the blink attribute.
func statusBlinks(msg string) bool {
	return strings.HasSuffix(msg, "...")
}

// targetLine names where playback is going.
func targetLine(st screen.RenderState) string {
	if st.Mode == "Cast" {
		return "Casting to " + st.ReceiverName
	}
	return "Playing locally"
}

// progressLine builds the one-line progress bar. Fill is the count of
// elapsed cells and Offset the cursor cell, both already clamped to
// the bar width.
func progressLine(st screen.RenderState) string {
	if st.BarWidth <= 0 {
		return st.Elapsed + " / " + st.Total
	}

	cells := make([]rune, st.BarWidth)
	for i := range cells {
		switch {
		case i == st.Offset:
			cells[i] = '>'
		case i < st.Fill:
			cells[i] = '='
		default:
			cells[i] = ' '
		}
	}

	return st.Elapsed + " [" + string(cells) + "] " + st.Total
}

func volumeLine(st screen.RenderState) string {
	line := fmt.Sprintf("Volume: %d%%", int(math.Round(st.VolumeLevel*100)))
	if st.Muted {
		line += " [MUTED]"
	}
	return line
}
