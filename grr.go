//go:build gui

package main

import (
	"flag"
	"fmt"
	"image/color"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/metcalfc/flowread/internal/condition"
	"github.com/metcalfc/flowread/internal/reader"
)

var (
	focusColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	stripColor = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	knobColor  = color.RGBA{R: 0, G: 0xcc, B: 0, A: 0xff}
)

// paragraphContext bounds how many tokens around the window paragraph mode shows.
const paragraphContext = 150

// fyneWaker runs Reader timers on the fyne main goroutine: steps through
// time.AfterFunc and frames through a repeating animation.
type fyneWaker struct {
	onStep  func(gen uint64)
	onFrame func(gen uint64, now time.Time) bool
	anim    *fyne.Animation
	animGen uint64
}

func (w *fyneWaker) AfterStep(gen uint64, d time.Duration) {
	time.AfterFunc(d, func() {
		fyne.Do(func() { w.onStep(gen) })
	})
}

func (w *fyneWaker) NextFrame(gen uint64) {
	if w.anim != nil && w.animGen == gen {
		return
	}
	w.stop()
	w.animGen = gen
	w.anim = fyne.NewAnimation(time.Second, func(float32) {
		if !w.onFrame(gen, time.Now()) && w.animGen == gen {
			w.stop()
		}
	})
	w.anim.RepeatCount = fyne.AnimationRepeatForever
	w.anim.Start()
}

func (w *fyneWaker) stop() {
	if w.anim != nil {
		w.anim.Stop()
		w.anim = nil
	}
}

type model struct {
	*reader.Reader
	waker      *fyneWaker
	fontSize   float32
	tocVisible bool
	lastArrow  time.Time

	display *fyne.Container
	status  *widget.Label
	strip   *rateStrip
	scroll  *marquee
}

func newModel(doc *reader.Document, spec condition.Spec, opts ...reader.Option) *model {
	m := &model{
		waker:    &fyneWaker{},
		fontSize: float32(spec.Typography.FontSizePx),
		scroll:   newMarquee(),
	}
	m.Reader = reader.NewReader(doc.Text, spec, m.waker, opts...)
	m.SetChapters(doc.Chapters, doc.TOC)
	m.waker.onStep = func(gen uint64) {
		if m.Step(gen) {
			m.updateDisplay()
		}
	}
	m.waker.onFrame = func(gen uint64, now time.Time) bool {
		if !m.Frame(gen, now) {
			return false
		}
		m.scroll.show(float32(m.Offset()))
		return true
	}
	return m
}

func createWordDisplay(word string, fontSize float32, windowWidth float32) *fyne.Container {
	runes := []rune(word)
	orp := reader.GetORPPosition(word)

	// Ensure orp is within bounds
	if orp >= len(runes) {
		orp = len(runes) - 1
	}
	if orp < 0 {
		orp = 0
	}

	var before, focus, after string
	if len(runes) > 0 {
		before = string(runes[:orp])
		focus = string(runes[orp])
		after = string(runes[orp+1:])
	}

	beforeText := canvas.NewText(before, color.White)
	beforeText.TextSize = fontSize
	beforeText.TextStyle.Bold = true

	focusText := canvas.NewText(focus, focusColor)
	focusText.TextSize = fontSize
	focusText.TextStyle.Bold = true

	afterText := canvas.NewText(after, color.White)
	afterText.TextSize = fontSize
	afterText.TextStyle.Bold = true

	// Horizontal: anchor ORP at center
	centerX := windowWidth / 2
	beforeX := max(centerX-beforeText.MinSize().Width, 0)
	afterX := centerX + focusText.MinSize().Width

	c := &fyne.Container{
		Layout:  &centerVerticalLayout{},
		Objects: []fyne.CanvasObject{beforeText, focusText, afterText},
	}
	beforeText.Move(fyne.NewPos(beforeX, 0))
	focusText.Move(fyne.NewPos(centerX, 0))
	afterText.Move(fyne.NewPos(afterX, 0))
	return c
}

type centerVerticalLayout struct{}

func (l *centerVerticalLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	var maxH float32
	for _, o := range objects {
		maxH = max(maxH, o.MinSize().Height)
	}
	return fyne.NewSize(0, maxH)
}

func (l *centerVerticalLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	y := max((size.Height-l.MinSize(objects).Height)/2, 0)

	// X is set by the creator; only Y is laid out here.
	for _, o := range objects {
		o.Move(fyne.NewPos(o.Position().X, y))
		o.Resize(o.MinSize())
	}
}

// windowDisplay shows a multi-token window wrapped and centered.
func windowDisplay(text string) fyne.CanvasObject {
	rt := widget.NewRichText(&widget.TextSegment{
		Text: text,
		Style: widget.RichTextStyle{
			Alignment: fyne.TextAlignCenter,
			SizeName:  theme.SizeNameHeadingText,
			TextStyle: fyne.TextStyle{Bold: true},
		},
	})
	rt.Wrapping = fyne.TextWrapWord
	return container.NewCenter(rt)
}

// paragraphDisplay shows the text around the position with the window highlighted.
func paragraphDisplay(tokens []string, index, size int, joiner string) fyne.CanvasObject {
	n := len(tokens)
	from := max(index-paragraphContext, 0)
	to := min(index+size+paragraphContext, n)
	inWindow := func(i int) bool { return (i-index+n)%n < size }

	var segs []widget.RichTextSegment
	var run strings.Builder
	runLit := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		style := widget.RichTextStyleInline
		if runLit {
			style = widget.RichTextStyle{
				Inline:    true,
				ColorName: theme.ColorNamePrimary,
				TextStyle: fyne.TextStyle{Bold: true},
			}
		}
		segs = append(segs, &widget.TextSegment{Text: run.String(), Style: style})
		run.Reset()
	}
	for i := from; i < to; i++ {
		if lit := inWindow(i); lit != runLit {
			flush()
			runLit = lit
		}
		run.WriteString(tokens[i])
		run.WriteString(joiner)
	}
	flush()

	rt := widget.NewRichText(segs...)
	rt.Wrapping = fyne.TextWrapWord
	return container.NewVScroll(rt)
}

// marquee draws the continuous display, keeping only the tokens in view on the canvas.
type marquee struct {
	root     *container.Scroll
	layer    *fyne.Container
	line     *canvas.Text
	rows     []*canvas.Text
	starts   []float32
	tokens   []string
	lineH    float32
	size     fyne.Size
	vertical bool
}

func newMarquee() *marquee {
	mq := &marquee{line: canvas.NewText("", color.White)}
	mq.layer = container.NewWithoutLayout(mq.line)
	mq.root = container.NewScroll(mq.layer)
	mq.root.Direction = container.ScrollNone
	return mq
}

// measure lays tokens out and returns the content and viewport extents along the scroll axis.
func (mq *marquee) measure(tokens []string, vertical bool, fontSize, lineHeight float32, size fyne.Size) (content, viewport float32) {
	mq.tokens, mq.vertical, mq.size = tokens, vertical, size
	style := fyne.TextStyle{Bold: true}

	if vertical {
		mq.lineH = fontSize * lineHeight
		mq.rows = mq.rows[:0]
		objs := make([]fyne.CanvasObject, 0, int(size.Height/mq.lineH)+2)
		for range cap(objs) {
			t := canvas.NewText("", color.White)
			t.TextSize = fontSize
			t.TextStyle = style
			mq.rows = append(mq.rows, t)
			objs = append(objs, t)
		}
		mq.layer.Objects = objs
		return float32(len(tokens)) * mq.lineH, size.Height
	}

	space := fyne.MeasureText(" ", fontSize, style).Width
	mq.starts = make([]float32, len(tokens)+1)
	for i, t := range tokens {
		mq.starts[i+1] = mq.starts[i] + fyne.MeasureText(t, fontSize, style).Width + space
	}
	mq.line.TextSize = fontSize
	mq.line.TextStyle = style
	mq.layer.Objects = []fyne.CanvasObject{mq.line}
	return mq.starts[len(tokens)], size.Width
}

// show positions the text for offset. At offset zero the text sits just past
// the trailing edge of the viewport.
func (mq *marquee) show(offset float32) {
	if mq.vertical {
		if mq.lineH <= 0 {
			return
		}
		y0 := mq.size.Height - offset
		first := int(math.Floor(float64(-y0 / mq.lineH)))
		for r, row := range mq.rows {
			i := first + r
			row.Text = ""
			if i >= 0 && i < len(mq.tokens) {
				row.Text = mq.tokens[i]
			}
			row.Move(fyne.NewPos(0, y0+float32(i)*mq.lineH))
			row.Resize(row.MinSize())
			row.Refresh()
		}
		return
	}

	if len(mq.starts) == 0 {
		return
	}
	n := len(mq.tokens)
	x0 := mq.size.Width - offset
	first := sort.Search(n, func(i int) bool { return mq.starts[i+1]+x0 > 0 })
	last := sort.Search(n, func(i int) bool { return mq.starts[i]+x0 >= mq.size.Width })
	mq.line.Text = ""
	if first < last {
		mq.line.Text = strings.Join(mq.tokens[first:last], " ")
	}
	mq.line.Move(fyne.NewPos(x0+mq.starts[first], (mq.size.Height-mq.line.MinSize().Height)/2))
	mq.line.Resize(mq.line.MinSize())
	mq.line.Refresh()
}

// rateStrip is the pointer surface for rate control. Hover position maps
// left to right onto the configured cps range.
type rateStrip struct {
	widget.BaseWidget
	pos     float64
	onMove  func(p float64)
	onLeave func()
}

func newRateStrip(onMove func(float64), onLeave func()) *rateStrip {
	s := &rateStrip{onMove: onMove, onLeave: onLeave}
	s.ExtendBaseWidget(s)
	return s
}

func (s *rateStrip) CreateRenderer() fyne.WidgetRenderer {
	return &rateStripRenderer{
		strip: s,
		bg:    canvas.NewRectangle(stripColor),
		knob:  canvas.NewRectangle(knobColor),
	}
}

func (s *rateStrip) MouseIn(e *desktop.MouseEvent) { s.MouseMoved(e) }

func (s *rateStrip) MouseMoved(e *desktop.MouseEvent) {
	if w := s.Size().Width; w > 0 {
		s.onMove(float64(e.Position.X / w))
	}
}

func (s *rateStrip) MouseOut() { s.onLeave() }

// SetPosition moves the knob to p in [0, 1].
func (s *rateStrip) SetPosition(p float64) {
	s.pos = p
	s.Refresh()
}

type rateStripRenderer struct {
	strip *rateStrip
	bg    *canvas.Rectangle
	knob  *canvas.Rectangle
}

func (r *rateStripRenderer) Layout(size fyne.Size) {
	const knobWidth = 6
	r.bg.Resize(size)
	r.knob.Resize(fyne.NewSize(knobWidth, size.Height))
	r.knob.Move(fyne.NewPos(float32(r.strip.pos)*(size.Width-knobWidth), 0))
}

func (r *rateStripRenderer) MinSize() fyne.Size { return fyne.NewSize(120, 18) }

func (r *rateStripRenderer) Refresh() {
	r.Layout(r.strip.Size())
	r.bg.Refresh()
	r.knob.Refresh()
}

func (r *rateStripRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.bg, r.knob}
}

func (r *rateStripRenderer) Destroy() {}

func (m *model) canvasSize() fyne.Size {
	size := m.display.Size()
	if size.Width <= 0 || size.Height <= 0 {
		spec := m.Condition()
		return fyne.NewSize(float32(spec.Window.ViewportWidthPx), float32(spec.Window.ViewportHeightPx))
	}
	return size
}

// remeasure lays out the continuous display and reports its extents to the Reader.
func (m *model) remeasure() {
	spec := m.Condition()
	content, viewport := m.scroll.measure(m.Tokens(), spec.Motion.Direction == condition.Vertical,
		m.fontSize, float32(spec.Typography.LineHeight), m.canvasSize())
	m.Measure(float64(content), float64(viewport))
}

func (m *model) updateDisplay() {
	spec := m.Condition()

	var view fyne.CanvasObject
	switch {
	case len(m.Tokens()) == 0:
		view = container.NewCenter(widget.NewLabel("No text to read."))
	case spec.ContinuousProgression():
		m.scroll.show(float32(m.Offset()))
		view = m.scroll.root
	case spec.Mode == condition.Paragraph:
		view = paragraphDisplay(m.Tokens(), m.Index(), max(spec.Window.Size, 1), spec.Tokenization.Unit.Joiner())
	case spec.Window.Size == 1:
		view = createWordDisplay(m.Current(), m.fontSize, m.canvasSize().Width)
	default:
		view = windowDisplay(m.Current())
	}
	m.display.Objects = []fyne.CanvasObject{view}
	m.display.Refresh()

	status := statusText(m.Reader) + fmt.Sprintf(" | Font: %.0f", m.fontSize)
	if !m.Playing() {
		status += " [PAUSED]"
	}
	m.status.SetText(status)

	if spec.Motion.RateControl.Enabled {
		m.strip.SetPosition(ratePosition(spec))
		m.strip.Show()
	} else {
		m.strip.Hide()
	}
}

// apply replaces the configuration and redraws.
func (m *model) apply(spec condition.Spec) {
	m.SetCondition(spec)
	m.remeasure()
	m.updateDisplay()
}

func (m *model) setFontSize(size float32) {
	m.fontSize = size
	spec := m.Condition()
	spec.Typography.FontSizePx = float64(size)
	m.apply(spec)
}

// arrowPause pauses on the first of a burst of sentence jumps.
func (m *model) arrowPause() {
	now := time.Now()
	if now.Sub(m.lastArrow) > 500*time.Millisecond {
		m.SetAutoplay(false)
	}
	m.lastArrow = now
}

func main() {
	cfg := registerFlags(flag.CommandLine)
	showTOC := flag.Bool("toc", false, "Show table of contents at startup")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Grr - GUI RSVP and Scrolling Reader\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  grr [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  grr file.txt                       Read from file at 25 cps\n")
		fmt.Fprintf(os.Stderr, "  grr -w 500 file.txt                Read from file at 500 WPM\n")
		fmt.Fprintf(os.Stderr, "  grr -progression continuous f.md   Scroll the text\n")
		fmt.Fprintf(os.Stderr, "  grr -toc book.epub                 Show TOC panel at startup\n")
		fmt.Fprintf(os.Stderr, "  cat file.txt | grr                 Read from stdin\n")
	}
	flag.Parse()

	base := condition.Default()
	base.Typography.FontSizePx = 72
	spec, doc, log, done, err := prepare(cfg, flag.Args(), "grr", base)
	if err != nil {
		fatal("grr", err)
	}
	if done {
		return
	}
	defer log.Close()

	a := app.New()
	w := a.NewWindow("grr - Speed Reader")

	m := newModel(doc, spec, reader.WithLogger(log.Logger))
	m.tocVisible = *showTOC && len(m.TOC) > 0

	m.status = widget.NewLabel("")
	m.status.Alignment = fyne.TextAlignCenter

	tocHint := ""
	if len(m.TOC) > 0 {
		tocHint = "  T: TOC"
	}
	controlsLabel := widget.NewLabel("SPACE: pause  ENTER: step  ↑/↓: speed  +/-: font  ←/→: sentence  S: scroll  M: mode  C: rate  R: restart" + tocHint + "  F: fullscreen  Q: quit")
	controlsLabel.Alignment = fyne.TextAlignCenter
	controlsLabel.Wrapping = fyne.TextWrapWord

	m.display = container.NewStack()
	m.strip = newRateStrip(
		func(p float64) {
			m.PointerMove(p)
			m.updateDisplay()
		},
		func() {
			m.PointerLeave()
			m.updateDisplay()
		},
	)

	readingContent := container.NewBorder(
		m.status,
		container.NewVBox(m.strip, controlsLabel),
		nil, nil,
		m.display,
	)

	var tocPanel *container.Split
	var mainContainer *fyne.Container

	if len(m.TOC) > 0 {
		tocList := widget.NewList(
			func() int { return len(m.TOC) },
			func() fyne.CanvasObject {
				return container.NewVBox(
					widget.NewLabel("Title"),
					widget.NewLabel("Preview"),
				)
			},
			func(id widget.ListItemID, obj fyne.CanvasObject) {
				entry := m.TOC[id]
				vbox := obj.(*fyne.Container)
				titleLabel := vbox.Objects[0].(*widget.Label)
				previewLabel := vbox.Objects[1].(*widget.Label)

				indent := strings.Repeat("  ", entry.Level)
				titleLabel.SetText(indent + entry.Title)
				titleLabel.TextStyle.Bold = true

				preview := []rune(entry.Preview)
				if len(preview) > 50 {
					preview = append(preview[:50], []rune("...")...)
				}
				previewLabel.SetText(indent + string(preview))
			},
		)

		tocContainer := container.NewBorder(
			widget.NewLabel("Table of Contents"),
			widget.NewLabel("Click to jump • T to close"),
			nil, nil,
			tocList,
		)
		tocPanel = container.NewHSplit(tocContainer, readingContent)
		tocPanel.Offset = 0.33

		tocList.OnSelected = func(id widget.ListItemID) {
			if id < len(m.TOC) {
				m.JumpToChapter(m.TOC[id].WordIndex)
				m.tocVisible = false
				tocPanel.Leading.Hide()
				tocPanel.Refresh()
				m.updateDisplay()
			}
		}
		if !m.tocVisible {
			tocContainer.Hide()
		}
		mainContainer = container.NewStack(tocPanel)
	} else {
		mainContainer = container.NewStack(readingContent)
	}

	quit := func() {
		m.Close()
		m.waker.stop()
		a.Quit()
	}

	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		spec := m.Condition()
		switch key.Name {
		case fyne.KeySpace:
			m.SetAutoplay(!spec.Motion.Autoplay)

		case fyne.KeyReturn, fyne.KeyEnter:
			m.ManualAdvance()

		case fyne.KeyUp:
			m.SetSpeed(nudgeSpeed(spec, 1))

		case fyne.KeyDown:
			m.SetSpeed(nudgeSpeed(spec, -1))

		case fyne.KeyLeft:
			m.arrowPause()
			m.JumpToPrevSentence()

		case fyne.KeyRight:
			m.arrowPause()
			m.JumpToNextSentence()

		case fyne.KeyF:
			w.SetFullScreen(!w.FullScreen())

		case fyne.KeyQ:
			quit()
			return
		}
		m.updateDisplay()
	})

	w.Canvas().SetOnTypedRune(func(r rune) {
		spec := m.Condition()
		switch r {
		case 't', 'T':
			if tocPanel != nil {
				m.tocVisible = !m.tocVisible
				if m.tocVisible {
					m.SetAutoplay(false)
					tocPanel.Leading.Show()
				} else {
					tocPanel.Leading.Hide()
				}
				tocPanel.Refresh()
			}

		case 'r', 'R':
			m.Reset()

		case 's', 'S':
			if spec.ContinuousProgression() {
				spec.Motion.Progression = condition.Step
			} else {
				spec.Motion.Progression = condition.Continuous
			}
			m.apply(spec)

		case 'm', 'M':
			if spec.Mode == condition.Paragraph {
				spec.Mode = condition.RSVP
			} else {
				spec.Mode = condition.Paragraph
			}
			m.apply(spec)

		case 'd', 'D':
			if spec.Motion.Direction == condition.Vertical {
				spec.Motion.Direction = condition.Horizontal
			} else {
				spec.Motion.Direction = condition.Vertical
			}
			m.apply(spec)

		case 'u', 'U':
			spec.Tokenization.Unit = nextUnit(spec.Tokenization.Unit)
			m.apply(spec)

		case 'c', 'C':
			spec.Motion.RateControl.Enabled = !spec.Motion.RateControl.Enabled
			m.apply(spec)

		case ']':
			if spec.Window.Size < condition.MaxWindowSize {
				spec.Window.Size++
				m.apply(spec)
			}

		case '[':
			if spec.Window.Size > 1 {
				spec.Window.Size--
				spec.Window.Step = min(spec.Window.Step, spec.Window.Size)
				m.apply(spec)
			}

		case '+', '=':
			if m.fontSize < 200 {
				m.setFontSize(m.fontSize + 5)
			}

		case '-':
			if m.fontSize > 20 {
				m.setFontSize(m.fontSize - 5)
			}
		}
		m.updateDisplay()
	})

	w.Resize(fyne.NewSize(800, 600))
	w.SetContent(mainContainer)
	w.SetOnClosed(func() {
		m.Close()
		m.waker.stop()
	})

	// The canvas has no resize callback; poll and re-lay out.
	var lastSize fyne.Size
	go func() {
		for range time.Tick(100 * time.Millisecond) {
			fyne.Do(func() {
				if size := m.display.Size(); size != lastSize && size.Width > 0 {
					lastSize = size
					m.remeasure()
					m.updateDisplay()
				}
			})
		}
	}()

	m.remeasure()
	m.updateDisplay()
	w.ShowAndRun()
}
