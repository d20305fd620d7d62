package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/intentd/internal/dispatch/mocks"
	"github.com/mattjoyce/intentd/internal/events"
	"github.com/mattjoyce/intentd/internal/intent"
	"github.com/mattjoyce/intentd/internal/log"
	"github.com/mattjoyce/intentd/internal/shell"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR", "json") // Suppress logs in tests
	os.Exit(m.Run())
}

type fixture struct {
	ctrl     *gomock.Controller
	sessions *mocks.MockSessionChecker
	closer   *mocks.MockSurfaceCloser
	composer *mocks.MockComposer
	platform *mocks.MockPlatformCapabilities
	clock    *ManualClock
	hub      *events.Hub
	d        *Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		ctrl:     ctrl,
		sessions: mocks.NewMockSessionChecker(ctrl),
		closer:   mocks.NewMockSurfaceCloser(ctrl),
		composer: mocks.NewMockComposer(ctrl),
		platform: mocks.NewMockPlatformCapabilities(ctrl),
		clock:    NewManualClock(time.Unix(0, 0)),
		hub:      events.NewHub(64),
	}
	f.d = New(Config{}, nil, f.sessions, f.closer, f.hub, WithClock(f.clock))
	RouteDefaults(f.d, f.composer, f.platform)
	return f
}

func eventTypes(hub *events.Hub) []string {
	var out []string
	for _, ev := range hub.SnapshotSince(0) {
		out = append(out, ev.Type)
	}
	return out
}

func strPtr(s string) *string { return &s }

const composeLink = "bluesky://intent/compose?text=hello&imageUris=a/b.png|10|10"

func TestHandleLinkComposeEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.sessions.EXPECT().HasSession(gomock.Any()).Return(true)
	f.platform.EXPECT().SupportsNativeImageAttachment().Return(true)
	gomock.InOrder(
		f.closer.EXPECT().CloseAllActive(gomock.Any()).Times(1),
		f.composer.EXPECT().OpenComposer(gomock.Any(), shell.ComposerRequest{
			Text:      strPtr("hello"),
			ImageURIs: []intent.ImageRef{{URI: "a/b.png", Width: 10, Height: 10}},
		}).Times(1),
	)

	outcome, err := f.d.HandleLink(ctx, composeLink)
	require.NoError(t, err)
	assert.Equal(t, OutcomeScheduled, outcome)
	assert.Equal(t, 1, f.clock.Pending())

	// Not yet: the composer opens only after the full delay.
	f.clock.Advance(DefaultDelay - time.Millisecond)
	assert.Equal(t, 1, f.clock.Pending())

	f.clock.Advance(time.Millisecond)
	assert.Equal(t, 0, f.clock.Pending())
	f.d.Wait()

	assert.Equal(t, []string{
		events.TypeLinkReceived,
		events.TypeIntentScheduled,
		events.TypeIntentDispatched,
	}, eventTypes(f.hub))
}

func TestHandleLinkWithholdsImagesWithoutNativeAttachment(t *testing.T) {
	f := newFixture(t)

	f.sessions.EXPECT().HasSession(gomock.Any()).Return(true)
	f.platform.EXPECT().SupportsNativeImageAttachment().Return(false)
	f.closer.EXPECT().CloseAllActive(gomock.Any())
	f.composer.EXPECT().OpenComposer(gomock.Any(), shell.ComposerRequest{Text: strPtr("hello")})

	outcome, err := f.d.HandleLink(context.Background(), composeLink)
	require.NoError(t, err)
	assert.Equal(t, OutcomeScheduled, outcome)

	f.clock.Advance(DefaultDelay)
	f.d.Wait()
}

func TestHandleLinkDropsWithoutSession(t *testing.T) {
	f := newFixture(t)

	// No CloseAllActive or OpenComposer expectations: any call fails the test.
	f.sessions.EXPECT().HasSession(gomock.Any()).Return(false)

	outcome, err := f.d.HandleLink(context.Background(), composeLink)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDropped, outcome)
	assert.Equal(t, 0, f.clock.Pending())

	f.clock.Advance(time.Hour)
	assert.Equal(t, []string{events.TypeLinkReceived, events.TypeIntentDropped}, eventTypes(f.hub))
}

func TestHandleLinkNotAnIntent(t *testing.T) {
	links := []string{
		"bluesky://profile/alice",
		"bluesky:///profile/alice/post/1",
		"https://bsky.app/search?q=intent",
		"bluesky://intent/follow?did=x",
		"bluesky://intent",
		"",
	}
	for _, link := range links {
		t.Run(link, func(t *testing.T) {
			f := newFixture(t)
			outcome, err := f.d.HandleLink(context.Background(), link)
			require.NoError(t, err)
			assert.Equal(t, OutcomeNoIntent, outcome)
			assert.Equal(t, 0, f.clock.Pending())
		})
	}
}

func TestHandleLinkParserErrorPropagates(t *testing.T) {
	f := newFixture(t)
	_, err := f.d.HandleLink(context.Background(), "bluesky://intent/compose%zz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse link")
	assert.Equal(t, 0, f.clock.Pending())
}

func TestHandleLinkTwiceWithinDelaySchedulesTwice(t *testing.T) {
	f := newFixture(t)

	f.sessions.EXPECT().HasSession(gomock.Any()).Return(true).Times(2)
	f.platform.EXPECT().SupportsNativeImageAttachment().Return(false).Times(2)
	f.closer.EXPECT().CloseAllActive(gomock.Any()).Times(2)
	gomock.InOrder(
		f.composer.EXPECT().OpenComposer(gomock.Any(), shell.ComposerRequest{Text: strPtr("first")}),
		f.composer.EXPECT().OpenComposer(gomock.Any(), shell.ComposerRequest{Text: strPtr("second")}),
	)

	_, err := f.d.HandleLink(context.Background(), "bluesky://intent/compose?text=first")
	require.NoError(t, err)
	f.clock.Advance(100 * time.Millisecond)
	_, err = f.d.HandleLink(context.Background(), "bluesky://intent/compose?text=second")
	require.NoError(t, err)
	assert.Equal(t, 2, f.clock.Pending())

	f.clock.Advance(time.Second)
	f.d.Wait()
}

func TestDispatchOutlivesCallerContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	var fired context.Context
	f.d.Route(intent.KindCompose, HandlerFunc(func(ctx context.Context, _ intent.Payload) error {
		fired = ctx
		return nil
	}))
	f.sessions.EXPECT().HasSession(gomock.Any()).Return(true)
	f.closer.EXPECT().CloseAllActive(gomock.Any())

	_, err := f.d.Dispatch(ctx, intent.ComposePayload{})
	require.NoError(t, err)
	cancel()

	f.clock.Advance(DefaultDelay)
	require.NotNil(t, fired)
	assert.NoError(t, fired.Err())
}

func TestDispatchWithoutRoutedHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	d := New(Config{}, nil, mocks.NewMockSessionChecker(ctrl), mocks.NewMockSurfaceCloser(ctrl), nil)

	_, err := d.Dispatch(context.Background(), intent.ComposePayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no handler routed")
}

func TestDispatchHandlerErrorIsReported(t *testing.T) {
	f := newFixture(t)
	f.d.Route(intent.KindCompose, HandlerFunc(func(context.Context, intent.Payload) error {
		return errors.New("composer unavailable")
	}))
	f.sessions.EXPECT().HasSession(gomock.Any()).Return(true)
	f.closer.EXPECT().CloseAllActive(gomock.Any())

	_, err := f.d.Dispatch(context.Background(), intent.ComposePayload{})
	require.NoError(t, err)
	f.clock.Advance(DefaultDelay)

	snap := f.hub.SnapshotSince(0)
	last := snap[len(snap)-1]
	require.Equal(t, events.TypeIntentDispatched, last.Type)
	var data map[string]any
	require.NoError(t, json.Unmarshal(last.Data, &data))
	assert.Equal(t, "composer unavailable", data["error"])
}

func TestCustomDelay(t *testing.T) {
	f := newFixture(t)
	d := New(Config{Delay: 2 * time.Second}, nil, f.sessions, f.closer, f.hub, WithClock(f.clock))
	RouteDefaults(d, f.composer, f.platform)

	f.sessions.EXPECT().HasSession(gomock.Any()).Return(true)
	f.closer.EXPECT().CloseAllActive(gomock.Any())
	f.platform.EXPECT().SupportsNativeImageAttachment().Return(false)
	f.composer.EXPECT().OpenComposer(gomock.Any(), gomock.Any())

	_, err := d.HandleLink(context.Background(), "bluesky://intent/compose")
	require.NoError(t, err)
	f.clock.Advance(DefaultDelay)
	assert.Equal(t, 1, f.clock.Pending())
	f.clock.Advance(2 * time.Second)
	assert.Equal(t, 0, f.clock.Pending())

	data := scheduledData(t, f.hub)
	assert.Equal(t, "delay", data["trigger"])
	assert.EqualValues(t, 2000, data["delay_ms"])
	assert.NotContains(t, data, "teardown_timeout_ms")
}

func scheduledData(t *testing.T, hub *events.Hub) map[string]any {
	t.Helper()
	for _, ev := range hub.SnapshotSince(0) {
		if ev.Type != events.TypeIntentScheduled {
			continue
		}
		var data map[string]any
		require.NoError(t, json.Unmarshal(ev.Data, &data))
		return data
	}
	t.Fatalf("no %s event published", events.TypeIntentScheduled)
	return nil
}

// awaitingCloser signals teardown completion through a channel.
type awaitingCloser struct {
	done   chan struct{}
	called int
}

func (c *awaitingCloser) CloseAllActive(context.Context) { c.called++ }

func (c *awaitingCloser) CloseAllActiveAndWait(context.Context) <-chan struct{} {
	c.called++
	return c.done
}

type recordingComposer struct {
	mu   sync.Mutex
	reqs []shell.ComposerRequest
}

func (r *recordingComposer) OpenComposer(_ context.Context, req shell.ComposerRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
}

func (r *recordingComposer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reqs)
}

type alwaysSession bool

func (a alwaysSession) HasSession(context.Context) bool { return bool(a) }

func TestTeardownAwaiterCompletionFires(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	closer := &awaitingCloser{done: make(chan struct{})}
	composer := &recordingComposer{}
	d := New(Config{}, nil, alwaysSession(true), closer, nil, WithClock(clock))
	RouteDefaults(d, composer, shell.Platform{})

	outcome, err := d.HandleLink(context.Background(), "bluesky://intent/compose?text=x")
	require.NoError(t, err)
	assert.Equal(t, OutcomeScheduled, outcome)
	assert.Equal(t, 1, closer.called)
	assert.Equal(t, 0, composer.count())

	close(closer.done)
	d.Wait()
	assert.Equal(t, 1, composer.count())
	assert.Equal(t, 0, clock.Pending(), "timeout timer should be stopped")

	// A late timeout never fires a second time.
	clock.Advance(time.Hour)
	assert.Equal(t, 1, composer.count())
}

func TestTeardownAwaiterTimeoutFires(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	closer := &awaitingCloser{done: make(chan struct{})}
	composer := &recordingComposer{}
	hub := events.NewHub(16)
	d := New(Config{TeardownTimeout: time.Second}, nil, alwaysSession(true), closer, hub, WithClock(clock))
	RouteDefaults(d, composer, shell.Platform{})

	_, err := d.HandleLink(context.Background(), "bluesky://intent/compose")
	require.NoError(t, err)

	// The fixed delay plays no part when teardown is awaited.
	data := scheduledData(t, hub)
	assert.Equal(t, "teardown", data["trigger"])
	assert.EqualValues(t, 1000, data["teardown_timeout_ms"])
	assert.NotContains(t, data, "delay_ms")

	clock.Advance(time.Second)
	d.Wait()
	assert.Equal(t, 1, composer.count())

	close(closer.done)
	assert.Equal(t, 1, composer.count())
}

func TestInspect(t *testing.T) {
	d := New(Config{}, nil, nil, nil, nil)

	ins, err := d.Inspect("bluesky://intent/compose?text=t&imageUris=ok.png|1|1,http://x/y.png|1|1")
	require.NoError(t, err)
	assert.True(t, ins.IsIntent)
	assert.Equal(t, "bluesky:///intent/compose?text=t&imageUris=ok.png|1|1,http://x/y.png|1|1", ins.Normalized)
	assert.Equal(t, intent.KindCompose, ins.Intent.Kind)
	assert.Equal(t, intent.ComposePayload{
		Text:   strPtr("t"),
		Images: []intent.ImageRef{{URI: "ok.png", Width: 1, Height: 1}},
	}, ins.Payload)

	ins, err = d.Inspect("bluesky://profile/x")
	require.NoError(t, err)
	assert.False(t, ins.IsIntent)
	assert.Nil(t, ins.Payload)
}
