// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"visualizer/internal/log"
	"visualizer/internal/render"
	"visualizer/internal/sink"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultRefresh is the terminal redraw interval (~30 fps).
const DefaultRefresh = 33 * time.Millisecond

const halfBlock = "▀"

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#840084")).
			Padding(0, 1).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777"))
)

// keyMap documents the controls. The keys themselves are resolved by
// sink.CommandForKey so the SDL window behaves the same.
type keyMap struct {
	VolumeUp   key.Binding
	VolumeDown key.Binding
	Playback   key.Binding
	Connect    key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	VolumeUp:   key.NewBinding(key.WithKeys("+", "=", "up"), key.WithHelp("+", "volume up")),
	VolumeDown: key.NewBinding(key.WithKeys("-", "_", "down"), key.WithHelp("-", "volume down")),
	Playback:   key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
	Connect:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect")),
	Quit:       key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) help() string {
	parts := make([]string, 0, 5)
	for _, b := range []key.Binding{k.VolumeUp, k.VolumeDown, k.Playback, k.Connect, k.Quit} {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

// Terminal is a display surface drawn into the terminal with bubbletea. Each
// character cell shows two framebuffer pixels stacked with a half block, the
// upper one as foreground and the lower one as background colour. The frame
// loop draws into the embedded Framebuffer; the bubbletea program picks up
// the last presented frame on its own schedule.
type Terminal struct {
	*render.Framebuffer

	program *tea.Program
	started atomic.Bool
	closed  atomic.Bool
	done    chan struct{}
	runErr  error
	once    sync.Once
}

// NewTerminal creates a terminal display of w×h pixels. Key presses are
// applied to state.
func NewTerminal(w, h int, state *sink.State, refresh time.Duration, opts ...tea.ProgramOption) (*Terminal, error) {
	fb, err := render.NewFramebuffer(w, h)
	if err != nil {
		return nil, err
	}
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	t := &Terminal{
		Framebuffer: fb,
		done:        make(chan struct{}),
	}
	m := newDisplayModel(fb, state, refresh)
	m.onQuit = func() { t.closed.Store(true) }
	t.program = tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
	return t, nil
}

// Start runs the bubbletea program in the background.
func (t *Terminal) Start() {
	if t.started.Swap(true) {
		return
	}
	go func() {
		defer close(t.done)
		_, err := t.program.Run()
		t.runErr = err
		t.closed.Store(true)
		if err != nil {
			log.Errorf("Terminal: %v", err)
		}
	}()
}

// Present publishes the frame. Once the user has quit it returns
// render.ErrClosed.
func (t *Terminal) Present() error {
	if err := t.Framebuffer.Present(); err != nil {
		return err
	}
	if t.closed.Load() {
		return render.ErrClosed
	}
	return nil
}

// Close stops the program and restores the terminal.
func (t *Terminal) Close() error {
	t.once.Do(func() {
		t.closed.Store(true)
		if !t.started.Load() {
			return
		}
		t.program.Quit()
		<-t.done
	})
	return t.runErr
}

type tickMsg time.Time

// displayModel is the bubbletea model of the terminal display.
type displayModel struct {
	fb      *render.Framebuffer
	state   *sink.State
	refresh time.Duration
	onQuit  func()

	pixels    []render.Color
	presented uint64
	backlight bool
	snap      sink.Snapshot
}

func newDisplayModel(fb *render.Framebuffer, state *sink.State, refresh time.Duration) *displayModel {
	return &displayModel{
		fb:      fb,
		state:   state,
		refresh: refresh,
	}
}

func (m *displayModel) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *displayModel) Init() tea.Cmd {
	return m.tick()
}

func (m *displayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state.Apply(sink.CommandForKey(msg.String())) {
			if m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Quit
		}
		m.snap = m.state.Snapshot()

	case tickMsg:
		m.refreshFrame()
		return m, m.tick()
	}
	return m, nil
}

// refreshFrame copies the last presented frame if there is a new one.
func (m *displayModel) refreshFrame() {
	m.snap = m.state.Snapshot()
	m.backlight = m.fb.BacklightOn()
	if n := m.fb.Presented(); n != m.presented || m.pixels == nil {
		m.pixels = m.fb.Snapshot(m.pixels)
		m.presented = n
	}
}

func (m *displayModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.header())
	sb.WriteByte('\n')
	m.writePixels(&sb)
	sb.WriteString(helpStyle.Render(keys.help()))
	return sb.String()
}

func (m *displayModel) header() string {
	s := m.snap
	title := "No track"
	if s.HasMetadata {
		title = s.Metadata.Title
		if s.Metadata.Artist != "" {
			title += " - " + s.Metadata.Artist
		}
	}
	link := "connected"
	if !s.Connected {
		link = "disconnected"
	}
	status := fmt.Sprintf(" vol %3d  %s  %s", s.Volume, s.Playback, link)
	return headerStyle.Render(title) + statusStyle.Render(status)
}

// writePixels renders the frame two rows per line, merging runs of cells
// with the same colours into one styled string. A dark backlight shows a
// blank area of the same size.
func (m *displayModel) writePixels(sb *strings.Builder) {
	w, h := m.fb.Size()
	if !m.backlight || len(m.pixels) < w*h {
		blank := strings.Repeat(" ", w)
		for y := 0; y < h; y += 2 {
			sb.WriteString(blank)
			sb.WriteByte('\n')
		}
		return
	}

	for y := 0; y < h; y += 2 {
		x := 0
		for x < w {
			top, bottom := m.cell(x, y, w, h)
			run := 1
			for x+run < w {
				t, b := m.cell(x+run, y, w, h)
				if t != top || b != bottom {
					break
				}
				run++
			}
			style := lipgloss.NewStyle().Foreground(hexColor(top)).Background(hexColor(bottom))
			sb.WriteString(style.Render(strings.Repeat(halfBlock, run)))
			x += run
		}
		sb.WriteByte('\n')
	}
}

func (m *displayModel) cell(x, y, w, h int) (top, bottom render.Color) {
	top = m.pixels[y*w+x]
	if y+1 < h {
		bottom = m.pixels[(y+1)*w+x]
	}
	return top, bottom
}

func hexColor(c render.Color) lipgloss.Color {
	r, g, b := c.Components()
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, b))
}

var _ render.Surface = (*Terminal)(nil)
var _ render.Backlight = (*Terminal)(nil)
