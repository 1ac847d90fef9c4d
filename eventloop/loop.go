// Package eventloop runs timer callbacks and an idle task on a single
// goroutine.
//
// It models the cooperative scheduler of small firmware SDKs: callbacks are
// never preempted and never overlap, a timer can be re-armed with a new
// callback from inside its own callback, and an idle task runs whenever no
// timer is due.
package eventloop

import (
	"context"
	"sync"
	"time"
)

// Opts configures a Loop.
type Opts struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Loop dispatches timers. The zero value is not usable; call New.
type Loop struct {
	now func() time.Time

	mu     sync.Mutex
	timers []*Timer // armed timers
	seq    uint64
	idle   func()

	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

// New returns an idle loop. opts may be nil.
func New(opts *Opts) *Loop {
	l := &Loop{
		now:  time.Now,
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
	if opts != nil && opts.Now != nil {
		l.now = opts.Now
	}
	return l
}

// Timer is a one-shot or periodic callback owned by a Loop.
type Timer struct {
	l  *Loop
	fn func()

	when   time.Time
	period time.Duration
	repeat bool
	armed  bool
	seq    uint64 // arm order, breaks ties between equal deadlines
}

// NewTimer returns a disarmed timer that calls fn.
func (l *Loop) NewTimer(fn func()) *Timer {
	return &Timer{l: l, fn: fn}
}

// SetFunc replaces the callback. It takes effect on the next expiry.
func (t *Timer) SetFunc(fn func()) {
	t.l.mu.Lock()
	t.fn = fn
	t.l.mu.Unlock()
}

// Arm schedules the timer d from now, replacing any pending expiry. A
// repeating timer fires every d after that; d must then be positive.
func (t *Timer) Arm(d time.Duration, repeat bool) {
	if d < 0 {
		d = 0
	}
	if repeat && d == 0 {
		panic("eventloop: periodic timer needs a positive period")
	}

	l := t.l
	l.mu.Lock()
	t.when = l.now().Add(d)
	t.period = d
	t.repeat = repeat
	l.seq++
	t.seq = l.seq
	if !t.armed {
		t.armed = true
		l.timers = append(l.timers, t)
	}
	l.mu.Unlock()
	l.poke()
}

// Disarm cancels the pending expiry, if any.
func (t *Timer) Disarm() {
	l := t.l
	l.mu.Lock()
	l.remove(t)
	l.mu.Unlock()
}

// Armed reports whether the timer has a pending expiry.
func (t *Timer) Armed() bool {
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	return t.armed
}

// Idle sets the task run when no timer is due. nil removes it.
func (l *Loop) Idle(fn func()) {
	l.mu.Lock()
	l.idle = fn
	l.mu.Unlock()
}

// RunDue calls every timer due at now and returns how many ran. Timers run
// in deadline order, and in arm order for equal deadlines. Each timer runs
// at most once per call.
func (l *Loop) RunDue(now time.Time) int {
	type due struct {
		t   *Timer
		seq uint64
	}

	l.mu.Lock()
	var batch []due
	for _, t := range l.timers {
		if !t.when.After(now) {
			batch = append(batch, due{t, t.seq})
		}
	}
	l.mu.Unlock()

	// Small insertion sort; the timer list holds a handful of entries.
	for i := 1; i < len(batch); i++ {
		for j := i; j > 0 && before(batch[j].t, batch[j-1].t); j-- {
			batch[j], batch[j-1] = batch[j-1], batch[j]
		}
	}

	n := 0
	for _, d := range batch {
		t := d.t
		l.mu.Lock()
		// Skip timers disarmed or re-armed by an earlier callback.
		if !t.armed || t.seq != d.seq {
			l.mu.Unlock()
			continue
		}
		if t.repeat {
			t.when = t.when.Add(t.period)
			if !t.when.After(now) {
				// Missed periods are dropped.
				t.when = now.Add(t.period)
			}
		} else {
			l.remove(t)
		}
		fn := t.fn
		l.mu.Unlock()

		if fn != nil {
			fn()
		}
		n++
	}
	return n
}

func before(a, b *Timer) bool {
	if a.when.Equal(b.when) {
		return a.seq < b.seq
	}
	return a.when.Before(b.when)
}

// Run dispatches timers on the calling goroutine until Stop is called or
// ctx is done. It returns nil after Stop and ctx.Err() otherwise.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return nil
		default:
		}

		if l.RunDue(l.now()) > 0 {
			continue
		}

		l.mu.Lock()
		idle := l.idle
		l.mu.Unlock()
		if idle != nil {
			idle()
		}

		if err := l.wait(ctx); err != nil {
			return err
		}
	}
}

// wait blocks until the next deadline, a change to the timers, Stop or the
// end of ctx.
func (l *Loop) wait(ctx context.Context) error {
	var expired <-chan time.Time
	if next, ok := l.next(); ok {
		d := next.Sub(l.now())
		if d <= 0 {
			return nil
		}
		t := time.NewTimer(d)
		defer t.Stop()
		expired = t.C
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stop:
		return nil
	case <-l.wake:
	case <-expired:
	}
	return nil
}

// next returns the earliest deadline.
func (l *Loop) next() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var first *Timer
	for _, t := range l.timers {
		if first == nil || before(t, first) {
			first = t
		}
	}
	if first == nil {
		return time.Time{}, false
	}
	return first.when, true
}

// Stop makes Run return. It is safe to call more than once and from any
// goroutine, callbacks included.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Loop) poke() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// remove drops t from the armed list. l.mu must be held.
func (l *Loop) remove(t *Timer) {
	if !t.armed {
		return
	}
	t.armed = false
	for i, x := range l.timers {
		if x == t {
			l.timers = append(l.timers[:i], l.timers[i+1:]...)
			return
		}
	}
}
