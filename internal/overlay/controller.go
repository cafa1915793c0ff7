// Package overlay implements the overlay controller: the state machine that
// drives the transient capture surface from a global keyboard chord,
// validates drops and pastes, and hands validated captures to the engine's
// ingest entry points. It is modeled as a single value owning its state
// machine and timers explicitly, rather than package-level globals, so a
// handler can be called with the controller it should act on.
package overlay

import (
	"context"
	"sync"
	"time"

	"github.com/InfinitIQFlow/AltDump/internal/config"
	"github.com/InfinitIQFlow/AltDump/internal/model"
)

// State is the closed set of overlay states.
type State string

const (
	StateHidden       State = "hidden"
	StatePressing     State = "pressing"
	StateLatched      State = "latched"
	StateSaving       State = "saving"
	StateConfirmation State = "confirmation"
	StateError        State = "error"
)

const (
	keyModifier = "alt"
	keyActivator = "d"
)

// Ingester is the subset of the engine's entry points the controller calls
// once a capture is validated. Each call is expected to return before
// enrichment runs.
type Ingester interface {
	IngestText(ctx context.Context, text string) (model.Item, error)
	IngestLink(ctx context.Context, url, title string) (model.Item, error)
	IngestFile(ctx context.Context, path string) (model.Item, error)
}

// Controller is the overlay's single state-machine value. All event
// handlers are safe for concurrent use: the keyboard hook, drag/drop
// events, and save completions may arrive from different goroutines.
type Controller struct {
	mu sync.Mutex

	state            State
	cameFrom         State // hidden or latched; which state "pressing" was entered from
	enteredHiddenFrom State // records what state preceded the most recent transition to hidden

	dragActive bool
	dragDepth  int

	keysDown    map[string]bool
	pendingKeyUp map[string]*time.Timer
	holdTimer   *time.Timer
	dismissTimer *time.Timer

	cfg      config.OverlayConfig
	rules    model.ExtensionRules
	ingester Ingester

	lastErrorReason string
	lastSavedItem   model.Item

	onShow         func(reopenInTextMode bool)
	onHide         func()
	onConfirmation func(item model.Item)
	onError        func(reason string)
}

// New builds a Controller in the hidden state.
func New(cfg config.OverlayConfig, rules model.ExtensionRules, ingester Ingester) *Controller {
	return &Controller{
		state:        StateHidden,
		keysDown:     make(map[string]bool),
		pendingKeyUp: make(map[string]*time.Timer),
		cfg:          cfg,
		rules:        rules,
		ingester:     ingester,
	}
}

// OnShow, OnHide, OnConfirmation, and OnError register the UI collaborator's
// callbacks. The controller never calls back into itself from within a
// callback.
func (c *Controller) OnShow(f func(reopenInTextMode bool))      { c.onShow = f }
func (c *Controller) OnHide(f func())                           { c.onHide = f }
func (c *Controller) OnConfirmation(f func(item model.Item))    { c.onConfirmation = f }
func (c *Controller) OnError(f func(reason string))             { c.onError = f }

// State reports the controller's current state, for tests and diagnostics.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the reason reported by the most recent failed save, for
// UI collaborators that render the error state.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErrorReason
}

func (c *Controller) chordActiveLocked() bool {
	return c.keysDown[keyModifier] && c.keysDown[keyActivator]
}

// HandleKeyDown processes a raw key-down event from the OS-wide hook. Key
// repeat is filtered: a key already recorded as down is a no-op.
func (c *Controller) HandleKeyDown(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.pendingKeyUp[key]; ok {
		// A release is still debouncing; this key-down annuls it, since the
		// key was never logically released, so there is nothing further to do.
		t.Stop()
		delete(c.pendingKeyUp, key)
		return
	}
	if c.keysDown[key] {
		return
	}

	wasActive := c.chordActiveLocked()
	c.keysDown[key] = true
	if c.chordActiveLocked() && !wasActive {
		c.onChordActiveLocked()
	}
}

// HandleKeyUp processes a raw key-up event, debounced by
// cfg.KeyUpDebounce: if a matching key-down arrives within the window, this
// key-up is annulled.
func (c *Controller) HandleKeyUp(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.keysDown[key] {
		return
	}

	debounce := c.cfg.KeyUpDebounce
	timer := time.AfterFunc(debounce, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.pendingKeyUp, key)
		wasActive := c.chordActiveLocked()
		c.keysDown[key] = false
		if !c.chordActiveLocked() && wasActive {
			c.onChordInactiveLocked()
		}
	})
	c.pendingKeyUp[key] = timer
}

// onChordActiveLocked handles "chord becomes active". Caller holds c.mu.
func (c *Controller) onChordActiveLocked() {
	switch c.state {
	case StateHidden:
		reopenText := c.enteredHiddenFrom == StateError
		if c.dragActive {
			// context-aware open: skip the hold timer, land in drop mode
			c.state = StateLatched
			c.cameFrom = StateHidden
			c.notifyShow(false)
			return
		}
		c.state = StatePressing
		c.cameFrom = StateHidden
		c.startHoldTimerLocked()
		c.notifyShow(reopenText)
	case StateLatched:
		c.state = StatePressing
		c.cameFrom = StateLatched
		c.startHoldTimerLocked()
		c.notifyShow(false)
	default:
		// saving, confirmation, error: chord transitions ignored while a
		// save is in flight or an outcome is being shown.
	}
}

// onChordInactiveLocked handles "chord becomes inactive". Caller holds c.mu.
func (c *Controller) onChordInactiveLocked() {
	if c.state != StatePressing {
		// latched: no-op; only a fresh press released before the hold
		// threshold dismisses it.
		return
	}
	c.cancelHoldTimerLocked()

	if c.dragActive {
		// A drag in progress keeps the overlay visible even though the
		// chord was released.
		c.state = StateLatched
		return
	}

	switch c.cameFrom {
	case StateHidden, StateLatched:
		c.state = StateHidden
		c.enteredHiddenFrom = StatePressing
		c.notifyHide()
	}
}

func (c *Controller) startHoldTimerLocked() {
	c.cancelHoldTimerLocked()
	c.holdTimer = time.AfterFunc(c.cfg.HoldThreshold, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state == StatePressing {
			c.state = StateLatched
		}
	})
}

func (c *Controller) cancelHoldTimerLocked() {
	if c.holdTimer != nil {
		c.holdTimer.Stop()
		c.holdTimer = nil
	}
}

// HandleDragEnter raises the drag-active flag and a nesting depth counter
// so the overlay doesn't flicker when the pointer crosses internal
// boundaries.
func (c *Controller) HandleDragEnter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dragDepth++
	c.dragActive = true
}

// HandleDragLeave lowers the depth counter; dragActive only clears at depth
// zero.
func (c *Controller) HandleDragLeave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dragDepth > 0 {
		c.dragDepth--
	}
	if c.dragDepth == 0 {
		c.dragActive = false
	}
}

// HandleCancel dismisses a visible, non-saving overlay without ingesting
// anything.
func (c *Controller) HandleCancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StatePressing, StateLatched, StateError:
		c.cancelHoldTimerLocked()
		c.dragActive = false
		c.dragDepth = 0
		c.state = StateHidden
		c.enteredHiddenFrom = StateHidden
		c.notifyHide()
	}
}

// Dismiss clears an error or confirmation state explicitly.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateError && c.state != StateConfirmation {
		return
	}
	c.cancelDismissTimerLocked()
	prev := c.state
	c.state = StateHidden
	c.enteredHiddenFrom = prev
	c.notifyHide()
}

func (c *Controller) cancelDismissTimerLocked() {
	if c.dismissTimer != nil {
		c.dismissTimer.Stop()
		c.dismissTimer = nil
	}
}

func (c *Controller) notifyShow(reopenInTextMode bool) {
	if c.onShow != nil {
		c.onShow(reopenInTextMode)
	}
}

func (c *Controller) notifyHide() {
	if c.onHide != nil {
		c.onHide()
	}
}
