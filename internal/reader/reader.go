// Package reader provides core RSVP (Rapid Serial Visual Presentation) and
// continuous-scroll reading sessions.
package reader

import (
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/metcalfc/flowread/internal/condition"
	"github.com/metcalfc/flowread/internal/playback"
	"github.com/metcalfc/flowread/internal/rate"
	"github.com/metcalfc/flowread/internal/scroll"
	"github.com/metcalfc/flowread/internal/token"
)

// Waker arms the host's timers for a Reader. The host must deliver the
// resulting callbacks (Reader.Step and Reader.Frame) on the goroutine that
// drives the Reader.
type Waker interface {
	AfterStep(gen uint64, d time.Duration)
	NextFrame(gen uint64)
}

type nopWaker struct{}

func (nopWaker) AfterStep(uint64, time.Duration) {}
func (nopWaker) NextFrame(uint64)                {}

// Reader holds the state for a reading session.
type Reader struct {
	text           string
	tokens         []string
	spec           condition.Spec
	SentenceStarts []int
	wordTokens     []int

	// Chapter support
	Chapters       []Chapter
	TOC            []TOCEntry
	CurrentChapter int

	steps    *playback.Scheduler
	anim     scroll.Animator
	rate     rate.Controller
	waker    Waker
	log      *slog.Logger
	content  float64
	viewport float64
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger engine transitions are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) { r.log = l }
}

// WithClock sets the clock used to timestamp playback events.
func WithClock(now func() time.Time) Option {
	return func(r *Reader) { r.steps = playback.New(now) }
}

// NewReader creates a Reader over text. A nil waker never fires.
func NewReader(text string, spec condition.Spec, waker Waker, opts ...Option) *Reader {
	if waker == nil {
		waker = nopWaker{}
	}
	spec.Window = spec.Window.Clamped()
	r := &Reader{
		text:  text,
		spec:  spec,
		waker: waker,
		log:   slog.New(slog.DiscardHandler),
		steps: playback.New(nil),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.retokenize()
	r.sync()
	return r
}

func (r *Reader) Text() string              { return r.text }
func (r *Reader) Tokens() []string          { return r.tokens }
func (r *Reader) Condition() condition.Spec { return r.spec }
func (r *Reader) Index() int                { return r.steps.Index() }
func (r *Reader) Offset() float64           { return r.anim.Offset() }

// Events returns recent playback transitions, oldest first.
func (r *Reader) Events() []playback.Event { return r.steps.Events() }

// Playing reports whether either engine is running.
func (r *Reader) Playing() bool { return r.steps.Running() || r.anim.Running() }

// SetText replaces the source text and starts over from the beginning.
func (r *Reader) SetText(text string) {
	r.text = text
	r.retokenize()
	r.restart()
	r.sync()
}

// SetCondition replaces the configuration. Position survives unless the
// tokenization changed. The window is clamped into range.
func (r *Reader) SetCondition(next condition.Spec) {
	next.Window = next.Window.Clamped()
	prev := r.spec
	r.spec = next

	if !condition.SameTokenization(prev, next) {
		r.retokenize()
		r.restart()
	}
	if !next.Motion.RateControl.Enabled {
		r.rate.Disable()
	}
	if r.anim.Running() &&
		(prev.Motion.Direction != next.Motion.Direction || prev.Motion.Speed != next.Motion.Speed) {
		r.waker.NextFrame(r.anim.Restart())
	}
	r.sync()
}

// SetAutoplay starts or stops timed playback.
func (r *Reader) SetAutoplay(on bool) {
	next := r.spec
	next.Motion.Autoplay = on
	r.SetCondition(next)
}

// SetMode changes how the step position is displayed.
func (r *Reader) SetMode(mode condition.Mode) {
	next := r.spec
	next.Mode = mode
	r.SetCondition(next)
}

// SetProgression switches between the step and continuous engines.
func (r *Reader) SetProgression(p condition.Progression) {
	next := r.spec
	next.Motion.Progression = p
	r.SetCondition(next)
}

// SetSpeed replaces the base speed.
func (r *Reader) SetSpeed(speed condition.Speed) {
	next := r.spec
	next.Motion.Speed = speed
	r.SetCondition(next)
}

// SetViewportStep sets how many tokens one step crosses, clamped into the window size.
func (r *Reader) SetViewportStep(step int) {
	next := r.spec
	next.Window.Step = step
	r.SetCondition(next)
}

// ManualAdvance steps once. It does nothing during autoplay or continuous progression.
func (r *Reader) ManualAdvance() bool {
	if !r.steps.Manual(r.params()) {
		return false
	}
	r.updateCurrentChapter()
	return true
}

// Reset returns to the first token and the start of the scroll cycle.
func (r *Reader) Reset() {
	r.restart()
	r.updateCurrentChapter()
}

// PointerMove feeds a rate control sample at normalized position p.
func (r *Reader) PointerMove(p float64) {
	r.spec = r.rate.Sample(r.spec, p)
}

// PointerLeave ends a rate control gesture.
func (r *Reader) PointerLeave() {
	r.spec = r.rate.Leave(r.spec)
}

// Measure records the rendered extent of FullText and of the viewport along
// the scroll axis. A non-positive viewport falls back to the configured one.
func (r *Reader) Measure(content, viewport float64) {
	r.content = content
	r.viewport = viewport
}

// CycleLength is the scroll distance before the continuous display wraps.
func (r *Reader) CycleLength() float64 {
	viewport := r.viewport
	if viewport <= 0 {
		viewport = r.spec.ViewportExtent()
	}
	return scroll.CycleLength(r.content, viewport)
}

// Step handles a timer armed through Waker.AfterStep.
func (r *Reader) Step(gen uint64) bool {
	running := r.steps.Running()
	task, ok := r.steps.Fire(gen, r.params())
	if !ok {
		if running && !r.steps.Running() {
			r.log.Debug("step playback stopped", "reason", "no tokens")
		}
		return false
	}
	r.updateCurrentChapter()
	r.waker.AfterStep(task.Gen, task.Delay)
	return true
}

// Frame handles a frame callback armed through Waker.NextFrame.
func (r *Reader) Frame(gen uint64, now time.Time) bool {
	if !r.anim.Frame(gen, now, scroll.PixelsPerSecond(r.spec), r.CycleLength()) {
		return false
	}
	r.waker.NextFrame(gen)
	return true
}

// Close stops both engines; no callback mutates the Reader afterwards.
func (r *Reader) Close() {
	r.steps.Stop()
	r.anim.Stop()
}

// Current returns the window of text shown at the current index.
func (r *Reader) Current() string {
	return token.Window(r.tokens, r.steps.Index(), r.spec.Window.Size, r.spec.Tokenization.Unit)
}

// FullText joins every token for continuous display along the scroll axis.
func (r *Reader) FullText() string {
	return strings.Join(r.tokens, r.spec.Motion.Direction.Joiner())
}

// Progress returns the current position and total token count.
func (r *Reader) Progress() (current, total int) {
	if len(r.tokens) == 0 {
		return 0, 0
	}
	return r.steps.Index() + 1, len(r.tokens)
}

func (r *Reader) params() playback.Params {
	p := playback.Params{
		Tokens:   r.tokens,
		Unit:     r.spec.Tokenization.Unit,
		Step:     r.spec.EffectiveStep(),
		SpeedCps: r.spec.CharsPerSecond(),
		MinStep:  playback.MinStep,
		Discrete: !r.spec.ContinuousProgression(),
	}
	if pause := r.spec.Motion.PauseAtPunctuation; pause.Enabled {
		p.PunctuationPause = time.Duration(pause.DelayMs) * time.Millisecond
	}
	return p
}

// sync starts or stops engines so that exactly the one selected by the
// configuration runs while autoplay is on.
func (r *Reader) sync() {
	playing := r.spec.Motion.Autoplay && len(r.tokens) > 0
	continuous := r.spec.ContinuousProgression()

	if (!playing || continuous) && r.steps.Stop() {
		r.log.Debug("step playback stopped", "index", r.steps.Index())
	}
	if (!playing || !continuous) && r.anim.Stop() {
		r.log.Debug("scroll stopped", "offset", r.anim.Offset())
	}
	if !playing {
		return
	}
	if continuous {
		if gen, ok := r.anim.Start(); ok {
			r.log.Debug("scroll started", "direction", r.spec.Motion.Direction)
			r.waker.NextFrame(gen)
		}
		return
	}
	if task, ok := r.steps.Start(r.params()); ok {
		r.log.Debug("step playback started", "index", r.steps.Index(), "delay", task.Delay)
		r.waker.AfterStep(task.Gen, task.Delay)
	}
}

func (r *Reader) retokenize() {
	t := r.spec.Tokenization
	r.tokens = token.Tokenize(r.text, t.Unit, t.ChunkSize)
	r.SentenceStarts = FindSentenceStarts(r.tokens)
	r.wordTokens = WordTokens(r.tokens, t.Unit)
	r.log.Debug("tokenized", "unit", t.Unit, "chunk", t.ChunkSize, "tokens", len(r.tokens))
}

func (r *Reader) restart() {
	r.steps.Reset()
	r.anim.Reset()
}

// FindSentenceStarts returns indices of tokens that start sentences.
func FindSentenceStarts(tokens []string) []int {
	starts := []int{0}
	for i := 0; i < len(tokens); i++ {
		if !token.EndsSentence(tokens[i]) {
			continue
		}
		j := i + 1
		for j < len(tokens) && strings.TrimSpace(tokens[j]) == "" {
			j++
		}
		if j < len(tokens) {
			starts = append(starts, j)
		}
		i = j - 1
	}
	return starts
}

// GetORPPosition returns the Optimal Recognition Point index for a word.
// This is the character (rune) position where the eye should focus for fastest recognition.
func GetORPPosition(word string) int {
	length := utf8.RuneCountInString(word)
	if length <= 1 {
		return 0
	} else if length <= 5 {
		return 1
	}
	return length / 3
}

func (r *Reader) seek(i int) {
	if len(r.tokens) == 0 {
		return
	}
	r.steps.Seek(i, len(r.tokens))
	r.updateCurrentChapter()
}

// JumpToPrevSentence moves to the start of the previous sentence.
func (r *Reader) JumpToPrevSentence() {
	for i := len(r.SentenceStarts) - 1; i >= 0; i-- {
		if r.SentenceStarts[i] < r.steps.Index() {
			r.seek(r.SentenceStarts[i])
			return
		}
	}
	r.seek(0)
}

// JumpToNextSentence moves to the start of the next sentence.
func (r *Reader) JumpToNextSentence() {
	for _, start := range r.SentenceStarts {
		if start > r.steps.Index() {
			r.seek(start)
			return
		}
	}
	r.seek(len(r.tokens) - 1)
}

// JumpToChapter jumps to the token holding the given word and updates the current chapter.
func (r *Reader) JumpToChapter(wordIndex int) {
	if wordIndex >= 0 && wordIndex < len(r.wordTokens) {
		r.seek(r.wordTokens[wordIndex])
	}
}

// WordTokens maps each whitespace separated word of the text to the token it starts in.
func WordTokens(tokens []string, unit token.Unit) []int {
	var out []int
	inWord := false
	for i, tok := range tokens {
		if unit != token.Char {
			inWord = false
		}
		for _, c := range tok {
			if unicode.IsSpace(c) {
				inWord = false
			} else if !inWord {
				out = append(out, i)
				inWord = true
			}
		}
	}
	return out
}

// updateCurrentChapter sets CurrentChapter based on the current position.
func (r *Reader) updateCurrentChapter() {
	if len(r.Chapters) == 0 {
		return
	}
	r.CurrentChapter = chapterAt(r.Chapters, sort.SearchInts(r.wordTokens, r.steps.Index()))
}

// CurrentChapterTitle returns the title of the current chapter.
func (r *Reader) CurrentChapterTitle() string {
	if r.CurrentChapter >= 0 && r.CurrentChapter < len(r.Chapters) {
		return r.Chapters[r.CurrentChapter].Title
	}
	return ""
}

// SetChapters sets the chapter data and updates the current chapter.
func (r *Reader) SetChapters(chapters []Chapter, toc []TOCEntry) {
	r.Chapters = chapters
	r.TOC = toc
	r.updateCurrentChapter()
}
