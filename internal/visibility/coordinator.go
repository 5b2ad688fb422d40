// Package visibility coordinates the single lead form modal shared by every
// trigger on a page: open/close state, the source of the last open, the
// one-shot auto-prompt, and the page scroll lock held while the modal is open.
package visibility

import (
	"sync"
	"time"

	"github.com/skolarrs/leadintake/pkg/logging"
)

// AutoPromptSource is recorded when the form is opened by the auto-prompt timer.
const AutoPromptSource = "Auto Prompt"

// DefaultAutoPromptDelay is the countdown armed by Start.
const DefaultAutoPromptDelay = 15 * time.Second

// State is a snapshot of the coordinator.
type State struct {
	IsOpen           bool
	Source           string
	HasUserTriggered bool
	AutoPromptFired  bool
}

// ScrollLocker suppresses page scrolling while the modal is open.
type ScrollLocker interface {
	Lock()
	Unlock()
}

// Opener is anything that can open the form with a source label.
type Opener interface {
	Open(source string)
}

type stopper interface {
	Stop() bool
}

type scheduleFunc func(d time.Duration, f func()) stopper

func realSchedule(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

// Options configures a Coordinator.
type Options struct {
	AutoPromptDelay time.Duration
	ScrollLocker    ScrollLocker
	Logger          *logging.Logger
}

type subscriber struct {
	id int
	fn func(State)
}

// Coordinator owns the modal visibility state for one page session.
type Coordinator struct {
	mu       sync.Mutex
	state    State
	subs     []subscriber
	nextID   int
	locker   ScrollLocker
	locked   bool
	delay    time.Duration
	schedule scheduleFunc
	timer    stopper
	started  bool
	closed   bool
	logger   *logging.Logger
}

// New creates a Coordinator in the closed state. Call Start to arm the
// auto-prompt and defer Shutdown to release the timer and scroll lock.
func New(opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.AutoPromptDelay <= 0 {
		opts.AutoPromptDelay = DefaultAutoPromptDelay
	}
	return &Coordinator{
		locker:   opts.ScrollLocker,
		delay:    opts.AutoPromptDelay,
		schedule: realSchedule,
		logger:   opts.Logger,
	}
}

// State returns the current snapshot.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive every state change. Callbacks run on the
// goroutine that caused the change, after the coordinator lock is released.
func (c *Coordinator) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, sub := range c.subs {
				if sub.id == id {
					c.subs = append(c.subs[:i], c.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Start arms the one-shot auto-prompt. Later calls are no-ops.
func (c *Coordinator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.closed {
		return
	}
	c.started = true
	if c.state.HasUserTriggered {
		return
	}
	c.timer = c.schedule(c.delay, c.autoPrompt)
}

// Open shows the form for source. A user open permanently suppresses the
// auto-prompt for this session.
func (c *Coordinator) Open(source string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state.HasUserTriggered = true
	c.cancelTimerLocked()
	c.openLocked(source)
	snapshot, subs := c.state, c.subscribersLocked()
	c.mu.Unlock()

	c.notify(snapshot, subs)
}

// Close hides the form and restores page scrolling. Form instances reset
// their own values when they next observe an open transition.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed || !c.state.IsOpen {
		c.mu.Unlock()
		return
	}
	c.state.IsOpen = false
	c.unlockScrollLocked()
	snapshot, subs := c.state, c.subscribersLocked()
	c.mu.Unlock()

	c.notify(snapshot, subs)
}

// Shutdown cancels a pending auto-prompt and releases the scroll lock if it
// is held. Safe to call more than once.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancelTimerLocked()
	c.unlockScrollLocked()
	c.subs = nil
}

func (c *Coordinator) autoPrompt() {
	c.mu.Lock()
	c.timer = nil
	if c.closed || c.state.HasUserTriggered || c.state.AutoPromptFired {
		c.mu.Unlock()
		return
	}
	c.state.AutoPromptFired = true
	c.openLocked(AutoPromptSource)
	snapshot, subs := c.state, c.subscribersLocked()
	c.mu.Unlock()

	c.logger.Debug("lead form auto-prompt fired")
	c.notify(snapshot, subs)
}

func (c *Coordinator) openLocked(source string) {
	c.state.IsOpen = true
	c.state.Source = source
	if c.locker != nil && !c.locked {
		c.locker.Lock()
		c.locked = true
	}
}

func (c *Coordinator) unlockScrollLocked() {
	if c.locker != nil && c.locked {
		c.locker.Unlock()
		c.locked = false
	}
}

func (c *Coordinator) cancelTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) subscribersLocked() []func(State) {
	fns := make([]func(State), len(c.subs))
	for i, sub := range c.subs {
		fns[i] = sub.fn
	}
	return fns
}

func (c *Coordinator) notify(state State, subs []func(State)) {
	for _, fn := range subs {
		fn(state)
	}
}
