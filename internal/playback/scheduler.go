// Package playback drives discrete, step-by-step advancement through a token sequence.
//
// A Scheduler never owns a real timer. Start and Fire hand back a Task naming
// the delay until the next step and a generation token; the host arms a timer
// for it and reports back through Fire. Stop, and every Fire, moves to a new
// generation, so a callback from a cancelled or already used Task is ignored.
package playback

import (
	"math"
	"time"

	"github.com/metcalfc/flowread/internal/token"
)

// MinStep is the shortest delay ever scheduled between two steps.
const MinStep = 20 * time.Millisecond

// Params is the configuration read at each step. Callers build it from the
// current configuration so that changes apply from the next step on.
type Params struct {
	Tokens   []string
	Unit     token.Unit
	Step     int
	SpeedCps float64
	MinStep  time.Duration
	// PunctuationPause is added after landing on a sentence end. Zero disables it.
	PunctuationPause time.Duration
	// Discrete is false while continuous progression is selected.
	Discrete bool
}

// Task is a single pending step.
type Task struct {
	Gen   uint64
	Delay time.Duration
}

// Scheduler owns the playback index and the Idle/Running state.
type Scheduler struct {
	index   int
	running bool
	gen     uint64
	log     *EventLog
	now     func() time.Time
}

// New returns an idle Scheduler at index 0. A nil now uses time.Now.
func New(now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		log: NewEventLog(DefaultLogSize),
		now: now,
	}
}

func (s *Scheduler) Index() int    { return s.index }
func (s *Scheduler) Running() bool { return s.running }

// Events returns the recent transitions, oldest first.
func (s *Scheduler) Events() []Event { return s.log.Events() }

// Start moves Idle to Running and returns the first step to arm. It reports
// false when already running or when there is nothing to play.
func (s *Scheduler) Start(p Params) (Task, bool) {
	if s.running || len(p.Tokens) == 0 {
		return Task{}, false
	}
	s.running = true
	s.index = token.Wrap(s.index, len(p.Tokens))
	s.record(EventStart)
	return s.arm(p, s.index), true
}

// Stop moves Running to Idle. Any Task handed out before is void afterwards.
func (s *Scheduler) Stop() bool {
	if !s.running {
		return false
	}
	s.halt()
	return true
}

// Fire performs the timed step for task generation gen and returns the next
// Task. Stale generations are ignored. An empty sequence stops the scheduler.
func (s *Scheduler) Fire(gen uint64, p Params) (Task, bool) {
	if !s.running || gen != s.gen {
		return Task{}, false
	}
	if len(p.Tokens) == 0 {
		s.halt()
		return Task{}, false
	}
	from := s.advance(p)
	s.record(EventTick)
	return s.arm(p, from), true
}

// Manual steps once on user request. It only acts while idle in discrete progression.
func (s *Scheduler) Manual(p Params) bool {
	if s.running || !p.Discrete || len(p.Tokens) == 0 {
		return false
	}
	s.advance(p)
	s.record(EventManual)
	return true
}

// Reset returns to index 0 without changing the running state.
func (s *Scheduler) Reset() {
	s.index = 0
	s.record(EventReset)
}

// Seek jumps to index i of an n token sequence.
func (s *Scheduler) Seek(i, n int) {
	s.index = token.Wrap(i, n)
	s.record(EventSeek)
}

func (s *Scheduler) halt() {
	s.running = false
	s.gen++
	s.record(EventStop)
}

// advance moves the index one effective step and returns where it came from.
func (s *Scheduler) advance(p Params) int {
	from := token.Wrap(s.index, len(p.Tokens))
	s.index = token.Wrap(from+stepSize(p), len(p.Tokens))
	return from
}

func (s *Scheduler) arm(p Params, from int) Task {
	chars := token.AdvanceLength(p.Tokens, from, stepSize(p), p.Unit)
	delay := StepDelay(chars, p.SpeedCps, p.MinStep)
	if p.Discrete && p.PunctuationPause > 0 && token.EndsSentence(p.Tokens[s.index]) {
		delay += p.PunctuationPause
	}
	s.gen++
	return Task{Gen: s.gen, Delay: delay}
}

func (s *Scheduler) record(kind EventKind) {
	s.log.Add(Event{Kind: kind, Index: s.index, At: s.now()})
}

func stepSize(p Params) int {
	if p.Step < 1 {
		return 1
	}
	return p.Step
}

// StepDelay is the time needed to read chars characters at cps, never less
// than floor. A zero floor means MinStep.
func StepDelay(chars int, cps float64, floor time.Duration) time.Duration {
	if floor <= 0 {
		floor = MinStep
	}
	if cps <= 0 || math.IsNaN(cps) || math.IsInf(cps, 0) {
		return floor
	}
	ms := math.Round(float64(chars) * 1000 / cps)
	d := time.Duration(ms) * time.Millisecond
	if d < floor {
		return floor
	}
	return d
}
