package overlay

import (
	"context"
	"time"

	"github.com/InfinitIQFlow/AltDump/internal/model"
	"github.com/InfinitIQFlow/AltDump/internal/vaulterr"
	"github.com/InfinitIQFlow/AltDump/internal/vaultlog"
)

// HandleTextSubmit and HandlePaste both handle typed or pasted text: it is
// classified as a link or as plain text and routed to the matching ingest
// entry point. Both are accepted in any state except saving.
func (c *Controller) HandleTextSubmit(text string) {
	c.handleTextPayload(text)
}

// HandlePaste is an alias for HandleTextSubmit: paste and typed submission
// are treated identically once the payload reaches validation.
func (c *Controller) HandlePaste(text string) {
	c.handleTextPayload(text)
}

func (c *Controller) handleTextPayload(text string) {
	if !c.beginSavingFor("text") {
		return
	}
	if model.IsURL(text) {
		item, err := c.ingester.IngestLink(context.Background(), text, "")
		c.finishSave(item, err)
		return
	}
	item, err := c.ingester.IngestText(context.Background(), text)
	c.finishSave(item, err)
}

// HandleDrop handles a drop event. Every dropped path is classified before
// any ingest call runs; if any path is rejected, nothing is ingested and
// the controller enters the error state with that path's reason, so a
// multi-file drop never ingests a partial subset.
func (c *Controller) HandleDrop(paths []string) {
	c.mu.Lock()
	rules := c.rules
	c.mu.Unlock()

	for _, p := range paths {
		if _, ok, reason := rules.ClassifyPath(p); !ok {
			c.mu.Lock()
			c.dragActive = false
			c.dragDepth = 0
			c.enterErrorLocked(reason)
			c.mu.Unlock()
			return
		}
	}

	if !c.beginSavingFor("drop") {
		return
	}
	c.mu.Lock()
	c.dragActive = false
	c.dragDepth = 0
	c.mu.Unlock()

	var lastItem model.Item
	for _, p := range paths {
		item, err := c.ingester.IngestFile(context.Background(), p)
		if err != nil {
			c.finishSave(model.Item{}, err)
			return
		}
		lastItem = item
	}
	c.finishSave(lastItem, nil)
}

// beginSavingFor transitions into saving from any non-saving state. It
// reports false (and does nothing else) if a save is already underway.
func (c *Controller) beginSavingFor(kind string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSaving {
		vaultlog.Log.WithField("kind", kind).Debug("overlay: dropping event, a save is already in flight")
		return false
	}
	c.cancelHoldTimerLocked()
	c.state = StateSaving
	return true
}

// finishSave applies the "saved" or "save_failed" transition.
func (c *Controller) finishSave(item model.Item, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		vaultlog.Log.WithError(err).Warn("overlay: ingest failed")
		c.enterErrorLocked(vaulterr.Reason(err))
		return
	}

	c.lastSavedItem = item
	c.state = StateConfirmation
	if c.onConfirmation != nil {
		c.onConfirmation(item)
	}
	c.cancelDismissTimerLocked()
	c.dismissTimer = time.AfterFunc(c.cfg.ConfirmationTime, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state == StateConfirmation {
			c.state = StateHidden
			c.enteredHiddenFrom = StateConfirmation
			c.notifyHide()
		}
	})
}

// enterErrorLocked moves into the error state, which only clears on an
// explicit Dismiss. Caller holds c.mu.
func (c *Controller) enterErrorLocked(reason string) {
	c.cancelDismissTimerLocked()
	c.lastErrorReason = reason
	c.state = StateError
	if c.onError != nil {
		c.onError(reason)
	}
}
