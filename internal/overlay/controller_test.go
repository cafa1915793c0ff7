package overlay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/InfinitIQFlow/AltDump/internal/config"
	"github.com/InfinitIQFlow/AltDump/internal/model"
)

// stubIngester is a fake Ingester: each method returns whatever was queued,
// and records the calls it received.
type stubIngester struct {
	textItem, linkItem, fileItem model.Item
	err                          error
	textCalls                    []string
	linkCalls                    []string
	fileCalls                    []string
}

func (s *stubIngester) IngestText(ctx context.Context, text string) (model.Item, error) {
	s.textCalls = append(s.textCalls, text)
	return s.textItem, s.err
}

func (s *stubIngester) IngestLink(ctx context.Context, url, title string) (model.Item, error) {
	s.linkCalls = append(s.linkCalls, url)
	return s.linkItem, s.err
}

func (s *stubIngester) IngestFile(ctx context.Context, path string) (model.Item, error) {
	s.fileCalls = append(s.fileCalls, path)
	return s.fileItem, s.err
}

func testConfig() config.OverlayConfig {
	return config.OverlayConfig{
		HoldThreshold:    30 * time.Millisecond,
		KeyUpDebounce:    10 * time.Millisecond,
		ConfirmationTime: 30 * time.Millisecond,
	}
}

func newTestController(t *testing.T, ing Ingester) *Controller {
	t.Helper()
	rules := model.NewExtensionRules(nil, nil)
	return New(testConfig(), rules, ing)
}

func pressChord(c *Controller) {
	c.HandleKeyDown(keyModifier)
	c.HandleKeyDown(keyActivator)
}

func releaseChord(c *Controller) {
	c.HandleKeyUp(keyActivator)
	c.HandleKeyUp(keyModifier)
}

func TestChordPressEntersPressingThenLatchesAfterHold(t *testing.T) {
	c := newTestController(t, &stubIngester{})
	require.Equal(t, StateHidden, c.State())

	pressChord(c)
	require.Equal(t, StatePressing, c.State())

	require.Eventually(t, func() bool { return c.State() == StateLatched }, time.Second, time.Millisecond)
}

func TestQuickReleaseBeforeHoldHidesOverlay(t *testing.T) {
	c := newTestController(t, &stubIngester{})
	pressChord(c)
	require.Equal(t, StatePressing, c.State())
	releaseChord(c)

	require.Eventually(t, func() bool { return c.State() == StateHidden }, time.Second, time.Millisecond)
}

func TestHoldThenReleaseStaysLatched(t *testing.T) {
	c := newTestController(t, &stubIngester{})
	pressChord(c)
	require.Eventually(t, func() bool { return c.State() == StateLatched }, time.Second, time.Millisecond)
	releaseChord(c)
	// Latched ignores chord-inactive; a release after latching must not hide.
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateLatched, c.State())
}

func TestBriefPressAfterLatchHidesOnRelease(t *testing.T) {
	// Hold past the threshold, release, brief press/release: overlay hides.
	c := newTestController(t, &stubIngester{})
	pressChord(c)
	require.Eventually(t, func() bool { return c.State() == StateLatched }, time.Second, time.Millisecond)
	releaseChord(c)
	require.Equal(t, StateLatched, c.State())
	time.Sleep(20 * time.Millisecond) // let the key-up debounce actually clear both keys

	pressChord(c)
	require.Equal(t, StatePressing, c.State())
	releaseChord(c)
	require.Eventually(t, func() bool { return c.State() == StateHidden }, time.Second, time.Millisecond)
}

func TestKeyUpDebounceAnnulsBrieflyReleasedKey(t *testing.T) {
	c := newTestController(t, &stubIngester{})
	pressChord(c)
	require.Eventually(t, func() bool { return c.State() == StateLatched }, time.Second, time.Millisecond)
	releaseChord(c)
	require.Equal(t, StateLatched, c.State())

	// Re-press within the debounce window: nothing should have changed, and
	// the held-down bookkeeping should still reflect both keys down.
	c.HandleKeyDown(keyActivator)
	c.HandleKeyDown(keyModifier)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateLatched, c.State())
}

func TestTextSubmitRoutesPlainTextToIngestText(t *testing.T) {
	ing := &stubIngester{textItem: model.Item{ID: "abc"}}
	c := newTestController(t, ing)
	var confirmed model.Item
	c.OnConfirmation(func(i model.Item) { confirmed = i })

	c.HandleTextSubmit("just some plain notes")
	require.Equal(t, []string{"just some plain notes"}, ing.textCalls)
	require.Equal(t, StateConfirmation, c.State())
	require.Equal(t, "abc", confirmed.ID)

	require.Eventually(t, func() bool { return c.State() == StateHidden }, time.Second, time.Millisecond)
}

func TestTextSubmitRoutesURLToIngestLink(t *testing.T) {
	ing := &stubIngester{linkItem: model.Item{ID: "link1"}}
	c := newTestController(t, ing)

	c.HandleTextSubmit("https://example.com/article")
	require.Equal(t, []string{"https://example.com/article"}, ing.linkCalls)
	require.Empty(t, ing.textCalls)
	require.Equal(t, StateConfirmation, c.State())
}

func TestIngestFailureEntersErrorStateUntilDismissed(t *testing.T) {
	ing := &stubIngester{err: errors.New("disk full")}
	c := newTestController(t, ing)
	var errMsg string
	c.OnError(func(reason string) { errMsg = reason })

	c.HandleTextSubmit("notes")
	require.Equal(t, StateError, c.State())
	require.Equal(t, "something went wrong", errMsg)

	// Error never auto-clears.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, StateError, c.State())

	c.Dismiss()
	require.Equal(t, StateHidden, c.State())
}

func TestDropWithRejectedExtensionNeverCallsIngest(t *testing.T) {
	ing := &stubIngester{}
	c := newTestController(t, ing)

	c.HandleDrop([]string{"/tmp/song.mp3"})
	require.Equal(t, StateError, c.State())
	require.Empty(t, ing.fileCalls)
}

func TestDropWithAcceptedExtensionIngestsFile(t *testing.T) {
	ing := &stubIngester{fileItem: model.Item{ID: "file1"}}
	c := newTestController(t, ing)

	c.HandleDrop([]string{"/tmp/photo.png"})
	require.Equal(t, []string{"/tmp/photo.png"}, ing.fileCalls)
	require.Equal(t, StateConfirmation, c.State())
}

func TestDragInProgressKeepsOverlayVisibleAcrossChordRelease(t *testing.T) {
	// Hold, drag enters, release chord: overlay must not hide.
	c := newTestController(t, &stubIngester{})
	pressChord(c)
	c.HandleDragEnter()
	releaseChord(c)
	time.Sleep(20 * time.Millisecond) // let the key-up debounce actually clear both keys
	require.Equal(t, StateLatched, c.State())

	c.HandleDragLeave()
	require.Equal(t, StateLatched, c.State())
}

func TestChordActivatesDirectlyIntoLatchedWhenDragAlreadyInProgress(t *testing.T) {
	c := newTestController(t, &stubIngester{})
	c.HandleDragEnter()
	pressChord(c)
	require.Equal(t, StateLatched, c.State())
}

func TestReopenAfterErrorDismissalSignalsTextMode(t *testing.T) {
	ing := &stubIngester{err: errors.New("boom")}
	c := newTestController(t, ing)
	c.HandleTextSubmit("x")
	require.Equal(t, StateError, c.State())
	c.Dismiss()
	require.Equal(t, StateHidden, c.State())

	var reopenText bool
	c.OnShow(func(reopen bool) { reopenText = reopen })
	pressChord(c)
	require.True(t, reopenText)
}

func TestEventsIgnoredWhileSaving(t *testing.T) {
	block := make(chan struct{})
	ing := &blockingIngester{release: block}
	c := newTestController(t, ing)

	go c.HandleTextSubmit("slow save")
	require.Eventually(t, func() bool { return c.State() == StateSaving }, time.Second, time.Millisecond)

	pressChord(c)
	require.Equal(t, StateSaving, c.State())

	close(block)
	require.Eventually(t, func() bool { return c.State() == StateConfirmation }, time.Second, time.Millisecond)
}

type blockingIngester struct {
	release chan struct{}
}

func (b *blockingIngester) IngestText(ctx context.Context, text string) (model.Item, error) {
	<-b.release
	return model.Item{ID: "slow"}, nil
}
func (b *blockingIngester) IngestLink(ctx context.Context, url, title string) (model.Item, error) {
	return model.Item{}, nil
}
func (b *blockingIngester) IngestFile(ctx context.Context, path string) (model.Item, error) {
	return model.Item{}, nil
}
