//go:build !gui

package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/metcalfc/flowread/internal/condition"
	"github.com/metcalfc/flowread/internal/reader"
	"github.com/metcalfc/flowread/internal/token"
)

const frameInterval = time.Second / 30

var (
	erpStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF0000"))

	wordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	highlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#FFAA00"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	rateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	rateActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)
)

type keyMap struct {
	Play        key.Binding
	Step        key.Binding
	Faster      key.Binding
	Slower      key.Binding
	Prev        key.Binding
	Next        key.Binding
	Wider       key.Binding
	Narrower    key.Binding
	Stride      key.Binding
	Progression key.Binding
	Mode        key.Binding
	Unit        key.Binding
	Direction   key.Binding
	Rate        key.Binding
	Reset       key.Binding
	Copy        key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Faster, k.Slower, k.Prev, k.Next, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Step, k.Faster, k.Slower, k.Reset, k.Copy},
		{k.Prev, k.Next, k.Wider, k.Narrower, k.Stride},
		{k.Progression, k.Mode, k.Unit, k.Direction, k.Rate},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Play:        key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/play")),
	Step:        key.NewBinding(key.WithKeys("enter", "n"), key.WithHelp("enter", "step")),
	Faster:      key.NewBinding(key.WithKeys("up", "+", "="), key.WithHelp("↑/+", "faster")),
	Slower:      key.NewBinding(key.WithKeys("down", "-"), key.WithHelp("↓/-", "slower")),
	Prev:        key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "prev sentence")),
	Next:        key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next sentence")),
	Wider:       key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "wider window")),
	Narrower:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "narrower window")),
	Stride:      key.NewBinding(key.WithKeys("."), key.WithHelp(".", "cycle step size")),
	Progression: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "step/scroll")),
	Mode:        key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "rsvp/paragraph")),
	Unit:        key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "cycle unit")),
	Direction:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "scroll direction")),
	Rate:        key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "mouse rate control")),
	Reset:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
	Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy passage")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:        key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "quit")),
}

var clipboardWrite = clipboard.WriteAll

type stepMsg struct{ gen uint64 }

type frameMsg struct {
	gen uint64
	at  time.Time
}

// teaWaker turns Reader timer requests into bubbletea commands. Requests
// made while handling one message are returned together by flush.
type teaWaker struct {
	cmds []tea.Cmd
}

func (w *teaWaker) AfterStep(gen uint64, d time.Duration) {
	w.cmds = append(w.cmds, tea.Tick(d, func(time.Time) tea.Msg {
		return stepMsg{gen: gen}
	}))
}

func (w *teaWaker) NextFrame(gen uint64) {
	w.cmds = append(w.cmds, tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg{gen: gen, at: t}
	}))
}

func (w *teaWaker) flush() tea.Cmd {
	cmds := w.cmds
	w.cmds = nil
	return tea.Batch(cmds...)
}

type model struct {
	*reader.Reader
	waker     *teaWaker
	help      help.Model
	quitting  bool
	width     int
	height    int
	lastArrow time.Time
	onRate    bool
	marquee   string
	notice    string
}

func newModel(doc *reader.Document, spec condition.Spec, opts ...reader.Option) model {
	w := &teaWaker{}
	r := reader.NewReader(doc.Text, spec, w, opts...)
	r.SetChapters(doc.Chapters, doc.TOC)
	m := model{
		Reader: r,
		waker:  w,
		help:   help.New(),
		width:  80,
		height: 24,
	}
	m.remeasure()
	return m
}

func (m model) Init() tea.Cmd {
	return m.waker.flush()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			m.Close()
			return m, tea.Quit
		}
		m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.remeasure()

	case stepMsg:
		m.Step(msg.gen)

	case frameMsg:
		m.Frame(msg.gen, msg.at)
	}
	return m, m.waker.flush()
}

func (m *model) handleKey(msg tea.KeyMsg) {
	spec := m.Condition()
	m.notice = ""
	switch {
	case key.Matches(msg, keys.Play):
		m.SetAutoplay(!spec.Motion.Autoplay)

	case key.Matches(msg, keys.Step):
		m.ManualAdvance()

	case key.Matches(msg, keys.Faster):
		m.SetSpeed(nudgeSpeed(spec, 1))

	case key.Matches(msg, keys.Slower):
		m.SetSpeed(nudgeSpeed(spec, -1))

	case key.Matches(msg, keys.Prev):
		m.arrowPause()
		m.JumpToPrevSentence()

	case key.Matches(msg, keys.Next):
		m.arrowPause()
		m.JumpToNextSentence()

	case key.Matches(msg, keys.Wider):
		if spec.Window.Size < condition.MaxWindowSize {
			spec.Window.Size++
			m.SetCondition(spec)
		}

	case key.Matches(msg, keys.Narrower):
		if spec.Window.Size > 1 {
			spec.Window.Size--
			spec.Window.Step = min(spec.Window.Step, spec.Window.Size)
			m.SetCondition(spec)
		}

	case key.Matches(msg, keys.Stride):
		m.SetViewportStep(spec.Window.Step%max(spec.Window.Size, 1) + 1)

	case key.Matches(msg, keys.Progression):
		if spec.ContinuousProgression() {
			m.SetProgression(condition.Step)
		} else {
			m.SetProgression(condition.Continuous)
		}
		m.remeasure()

	case key.Matches(msg, keys.Mode):
		if spec.Mode == condition.Paragraph {
			m.SetMode(condition.RSVP)
		} else {
			m.SetMode(condition.Paragraph)
		}

	case key.Matches(msg, keys.Unit):
		spec.Tokenization.Unit = nextUnit(spec.Tokenization.Unit)
		m.SetCondition(spec)
		m.remeasure()

	case key.Matches(msg, keys.Direction):
		if spec.Motion.Direction == condition.Vertical {
			spec.Motion.Direction = condition.Horizontal
		} else {
			spec.Motion.Direction = condition.Vertical
		}
		m.SetCondition(spec)
		m.remeasure()

	case key.Matches(msg, keys.Rate):
		spec.Motion.RateControl.Enabled = !spec.Motion.RateControl.Enabled
		m.onRate = false
		m.SetCondition(spec)

	case key.Matches(msg, keys.Reset):
		m.Reset()

	case key.Matches(msg, keys.Copy):
		if err := clipboardWrite(m.Current()); err != nil {
			m.notice = "copy failed: " + err.Error()
		} else {
			m.notice = "copied"
		}

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.remeasure()
	}
}

// arrowPause pauses on the first of a burst of sentence jumps.
func (m *model) arrowPause() {
	now := time.Now()
	if now.Sub(m.lastArrow) > 500*time.Millisecond {
		m.SetAutoplay(false)
	}
	m.lastArrow = now
}

// handleMouse treats the rate bar row as the rate control surface.
func (m *model) handleMouse(msg tea.MouseMsg) {
	if !m.Condition().Motion.RateControl.Enabled {
		return
	}
	if msg.Y != m.rateRow() || msg.X < 0 || msg.X >= m.width {
		if m.onRate {
			m.onRate = false
			m.PointerLeave()
		}
		return
	}
	m.onRate = true
	m.PointerMove(float64(msg.X) / float64(max(m.width-1, 1)))
}

func (m model) helpView() string {
	return m.help.View(keys)
}

// avail is the number of rows between the status line and the rate bar.
func (m model) avail() int {
	return max(m.height-2-lipgloss.Height(m.helpView()), 1)
}

func (m model) rateRow() int {
	return 1 + m.avail()
}

// remeasure reports terminal extents to the Reader in the same pixel units
// the configured speed uses: one cell is one approximate glyph advance and
// one row is one line height.
func (m *model) remeasure() {
	spec := m.Condition()
	if spec.Motion.Direction == condition.Vertical {
		m.marquee = ""
		line := spec.Typography.LineHeightPx()
		m.Measure(float64(len(m.Tokens()))*line, float64(m.avail())*line)
		return
	}
	m.marquee = strings.ReplaceAll(m.FullText(), "\n", " ")
	cell := spec.Typography.ApproxCharPx()
	m.Measure(float64(runewidth.StringWidth(m.marquee))*cell, float64(m.width)*cell)
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	tokens := m.Tokens()
	if len(tokens) == 0 {
		return "No text to read."
	}
	spec := m.Condition()

	var body []string
	switch {
	case spec.ContinuousProgression() && spec.Motion.Direction == condition.Vertical:
		body = m.scrollColumn(spec)
	case spec.ContinuousProgression():
		body = []string{m.scrollLine(spec)}
	case spec.Mode == condition.Paragraph:
		body = m.paragraph(spec)
	default:
		body = m.rsvp(spec)
	}

	avail := m.avail()
	if len(body) > avail {
		body = body[:avail]
	}
	top := 0
	if !spec.ContinuousProgression() || spec.Motion.Direction == condition.Horizontal {
		top = (avail - len(body)) / 2
	}

	var sb strings.Builder
	sb.WriteString(m.status())
	sb.WriteString("\n")
	for i := 0; i < avail; i++ {
		if i >= top && i-top < len(body) {
			sb.WriteString(body[i-top])
		}
		sb.WriteString("\n")
	}
	sb.WriteString(m.rateBar(spec))
	sb.WriteString("\n")
	sb.WriteString(m.helpView())
	return sb.String()
}

func (m model) status() string {
	out := statusStyle.Render(statusText(m.Reader))
	if !m.Playing() {
		out += pausedStyle.Render(" [PAUSED]")
	}
	if m.notice != "" {
		out += dimStyle.Render(" " + m.notice)
	}
	return out
}

func (m model) rsvp(spec condition.Spec) []string {
	text := m.Current()
	if spec.Window.Size == 1 && spec.Tokenization.Unit != token.Sentence && runewidth.StringWidth(text) < m.width {
		return []string{anchorORPText(formatWord(text), text, m.width)}
	}
	wrapped := lipgloss.NewStyle().
		Width(m.width).
		Align(lipgloss.Center).
		Render(wordStyle.Render(text))
	return strings.Split(wrapped, "\n")
}

func formatWord(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return ""
	}
	orp := min(reader.GetORPPosition(word), len(runes)-1)
	return wordStyle.Render(string(runes[:orp])) +
		erpStyle.Render(string(runes[orp])) +
		wordStyle.Render(string(runes[orp+1:]))
}

func anchorORPText(text string, word string, width int) string {
	runes := []rune(word)
	orp := min(reader.GetORPPosition(word), max(len(runes)-1, 0))
	pad := width/2 - runewidth.StringWidth(string(runes[:orp]))
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + text
}

// paragraphSpan bounds how many tokens around the position are laid out.
const paragraphSpan = 400

func (m model) paragraph(spec condition.Spec) []string {
	tokens := m.Tokens()
	n := len(tokens)
	index := m.Index()
	size := max(spec.Window.Size, 1)
	inWindow := func(i int) bool { return token.Wrap(i-index, n) < size }

	from := max(index-paragraphSpan, 0)
	to := min(index+size+paragraphSpan, n)
	lines := wrapTokens(tokens, spec.Tokenization.Unit, from, to, m.width)

	focus := 0
	for li, line := range lines {
		if len(line) > 0 && line[len(line)-1].tok >= index {
			focus = li
			break
		}
	}
	first := max(focus-m.avail()/3, 0)
	last := min(first+m.avail(), len(lines))

	sep := " "
	if spec.Tokenization.Unit == token.Char {
		sep = ""
	}
	out := make([]string, 0, last-first)
	for _, line := range lines[first:last] {
		var sb strings.Builder
		for i, p := range line {
			if i > 0 {
				sb.WriteString(sep)
			}
			if inWindow(p.tok) {
				sb.WriteString(highlightStyle.Render(p.text))
			} else {
				sb.WriteString(dimStyle.Render(p.text))
			}
		}
		out = append(out, sb.String())
	}
	return out
}

type piece struct {
	text string
	tok  int
}

// wrapTokens lays tokens[from:to] out in lines of at most width cells.
// Longer tokens are split at spaces; each piece remembers its token.
func wrapTokens(tokens []string, unit token.Unit, from, to, width int) [][]piece {
	sep := 1
	if unit == token.Char {
		sep = 0
	}
	var lines [][]piece
	var line []piece
	used := 0
	for i := from; i < to; i++ {
		parts := []string{tokens[i]}
		if unit != token.Char {
			parts = strings.Fields(tokens[i])
		}
		for _, p := range parts {
			w := runewidth.StringWidth(p)
			if len(line) > 0 && used+sep+w > width {
				lines = append(lines, line)
				line, used = nil, 0
			}
			if len(line) == 0 {
				if strings.TrimSpace(p) == "" {
					continue
				}
				line = append(line, piece{p, i})
				used = w
				continue
			}
			line = append(line, piece{p, i})
			used += sep + w
		}
	}
	if len(line) > 0 {
		lines = append(lines, line)
	}
	return lines
}

// scrollLine renders the horizontal marquee. At offset zero the text starts
// at the right edge and moves left.
func (m model) scrollLine(spec condition.Spec) string {
	shift := int(math.Floor(m.Offset() / spec.Typography.ApproxCharPx()))
	lead := m.width - shift
	if lead > 0 {
		return strings.Repeat(" ", lead) + runewidth.Truncate(m.marquee, m.width-lead, "")
	}
	return runewidth.Truncate(skipCells(m.marquee, -lead), m.width, "")
}

// skipCells drops the first n cells of s.
func skipCells(s string, n int) string {
	for i, r := range s {
		if n <= 0 {
			return s[i:]
		}
		n -= runewidth.RuneWidth(r)
	}
	return ""
}

// scrollColumn renders the vertical scroll: one token per row, entering at
// the bottom and moving up.
func (m model) scrollColumn(spec condition.Spec) []string {
	tokens := m.Tokens()
	avail := m.avail()
	shift := int(math.Floor(m.Offset() / spec.Typography.LineHeightPx()))

	rows := make([]string, avail)
	for row := range rows {
		i := row + shift - avail
		if i >= 0 && i < len(tokens) {
			line := strings.Join(strings.Fields(tokens[i]), " ")
			rows[row] = runewidth.Truncate(line, m.width, "…")
		}
	}
	return rows
}

func (m model) rateBar(spec condition.Spec) string {
	if !spec.Motion.RateControl.Enabled || m.width < 2 {
		return ""
	}
	marker := int(math.Round(ratePosition(spec) * float64(m.width-1)))

	style := rateStyle
	if m.onRate {
		style = rateActiveStyle
	}
	return style.Render(strings.Repeat("─", marker) + "●" + strings.Repeat("─", m.width-1-marker))
}

func main() {
	cfg := registerFlags(flag.CommandLine)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Flowread - Terminal RSVP and Scrolling Reader\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  flowread [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nSupported formats: %s; other files and stdin are detected by content\n", strings.Join(reader.SupportedFormats(), ", "))
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  flowread file.txt                       Read one word at a time at 25 cps\n")
		fmt.Fprintf(os.Stderr, "  flowread -w 300 book.epub               Read at 300 WPM\n")
		fmt.Fprintf(os.Stderr, "  flowread -unit sentence -window 2 f.md  Two sentences at a time\n")
		fmt.Fprintf(os.Stderr, "  flowread -progression continuous f.txt  Scroll the text continuously\n")
		fmt.Fprintf(os.Stderr, "  flowread -config read.toml -export x.json\n")
		fmt.Fprintf(os.Stderr, "  cat file.txt | flowread                 Read from stdin\n")
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  SPACE    Pause/play\n")
		fmt.Fprintf(os.Stderr, "  ENTER    Step once while paused\n")
		fmt.Fprintf(os.Stderr, "  ↑/↓      Increase/decrease speed by 1 cps\n")
		fmt.Fprintf(os.Stderr, "  ←/→      Jump to previous/next sentence\n")
		fmt.Fprintf(os.Stderr, "  [/]      Shrink/grow the window\n")
		fmt.Fprintf(os.Stderr, "  S        Switch between stepping and scrolling\n")
		fmt.Fprintf(os.Stderr, "  C        Mouse rate control on the bar above the help line\n")
		fmt.Fprintf(os.Stderr, "  Y        Copy the current passage\n")
		fmt.Fprintf(os.Stderr, "  ?        All keys\n")
		fmt.Fprintf(os.Stderr, "  Q        Quit\n")
	}
	flag.Parse()

	base := condition.Default()
	base.Motion.Autoplay = true
	spec, doc, log, done, err := prepare(cfg, flag.Args(), "flowread", base)
	if err != nil {
		fatal("flowread", err)
	}
	if done {
		return
	}
	defer log.Close()

	m := newModel(doc, spec, reader.WithLogger(log.Logger))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())

	if _, err := p.Run(); err != nil {
		log.Error("program exited", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
