package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/pidview/errors"
	"github.com/wippyai/pidview/present"
	"github.com/wippyai/pidview/session"
	"github.com/wippyai/pidview/source"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Reload key.Binding
	Open   key.Binding
	Info   key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Reload, k.Open, k.Info, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Reload, k.Open, k.Info, k.Quit}}
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
	Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Open:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open file")),
	Info:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "header")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type viewerState int

const (
	stateViewing viewerState = iota
	stateOpening
)

type viewerModel struct {
	err      error
	dec      *session.Decoder
	canvas   *present.Canvas
	log      *zap.Logger
	header   *source.Header
	filename string
	help     help.Model
	view     viewport.Model
	input    textinput.Model
	state    viewerState
	width    int
	ready    bool
	loading  bool
	showInfo bool
}

type loadedMsg struct {
	err      error
	header   *source.Header
	filename string
}

func newViewerModel(dec *session.Decoder, filename string, log *zap.Logger) *viewerModel {
	ti := textinput.New()
	ti.Prompt = "open: "
	ti.Placeholder = "path/to/image.pid"
	ti.Width = 50

	return &viewerModel{
		dec:      dec,
		canvas:   present.NewCanvas(),
		log:      log,
		filename: filename,
		help:     help.New(),
		input:    ti,
		showInfo: true,
		loading:  true,
	}
}

func (m *viewerModel) Init() tea.Cmd {
	return m.load(m.filename)
}

// load decodes path onto the canvas. Every failure, including one to open
// the file, replaces what the canvas shows. Header errors are not fatal here;
// the decode reports its own failure.
func (m *viewerModel) load(path string) tea.Cmd {
	dec, canvas := m.dec, m.canvas
	return func() tea.Msg {
		ctx := context.Background()
		src, err := source.Open(path)
		if err != nil {
			canvas.Fail(ctx, err)
			return loadedMsg{filename: path, err: err}
		}
		msg := loadedMsg{filename: path}
		if h, herr := source.ReadHeader(src); herr == nil {
			msg.header = &h
		}
		msg.err = dec.Load(ctx, src, canvas)
		return msg
	}
}

func (m *viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		height := msg.Height - 4
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.view = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.view.Width = msg.Width
			m.view.Height = height
		}
		m.refresh()
		return m, nil

	case loadedMsg:
		m.loading = false
		m.filename = msg.filename
		m.header = msg.header
		m.err = msg.err
		if msg.err != nil {
			m.log.Debug("viewer load failed", zap.String("file", msg.filename), zap.Error(msg.err))
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.state == stateOpening {
			return m.updateOpening(msg)
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Reload):
			m.loading = true
			return m, m.load(m.filename)
		case key.Matches(msg, keys.Open):
			m.state = stateOpening
			m.input.SetValue("")
			return m, m.input.Focus()
		case key.Matches(msg, keys.Info):
			m.showInfo = !m.showInfo
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m *viewerModel) updateOpening(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = stateViewing
		m.input.Blur()
		return m, nil
	case "enter":
		path := strings.TrimSpace(m.input.Value())
		m.state = stateViewing
		m.input.Blur()
		if path == "" {
			return m, nil
		}
		m.loading = true
		return m, m.load(path)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// refresh re-renders the canvas into the viewport at the current width.
func (m *viewerModel) refresh() {
	if !m.ready {
		return
	}
	if m.err != nil {
		m.view.SetContent(errorStyle.Render(errors.UserMessage(m.err)))
		return
	}
	m.view.SetContent(present.Render(m.canvas.Snapshot(), m.width, lipgloss.DefaultRenderer()))
	m.view.GotoTop()
}

func (m *viewerModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("PID Viewer"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	if m.loading {
		b.WriteString(" (decoding...)")
	}
	b.WriteString("\n")

	if m.showInfo && m.header != nil {
		w, h := m.canvas.Size()
		b.WriteString(infoStyle.Render(fmt.Sprintf("%s  shown %dx%d  cached %d",
			m.header, w, h, m.dec.CachedFrames())))
	}
	b.WriteString("\n")

	b.WriteString(m.view.View())
	b.WriteString("\n")

	if m.state == stateOpening {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(m.help.View(keys))
	}
	return b.String()
}

func runInteractive(path string, opts options, log *zap.Logger) error {
	ctx := context.Background()
	dec, err := session.New(ctx, decoderConfig(opts, log, true))
	if err != nil {
		return err
	}
	defer dec.Close(ctx)

	p := tea.NewProgram(newViewerModel(dec, path, log), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
