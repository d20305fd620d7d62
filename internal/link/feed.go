// Package link supplies incoming deep links to the intent pipeline.
//
// A Feed holds the "current incoming link" of the process, the way a platform
// reports the URL the app was last opened or resumed with. The Driver watches a
// Source and runs the pipeline once per distinct value transition.
package link

import (
	"errors"
	"strings"
	"sync"
)

// MaxLinkBytes bounds an accepted incoming link.
const MaxLinkBytes = 8 * 1024

var (
	ErrEmptyLink   = errors.New("link is empty")
	ErrLinkTooLong = errors.New("link exceeds maximum length")
)

// Source is the mockable "subscribe to current incoming link" capability.
// An empty string means there is no current link.
type Source interface {
	Current() string
	Subscribe() (<-chan string, func())
}

const subscriberBuffer = 32

// Feed is an in-memory Source fed by ingress surfaces.
type Feed struct {
	mu        sync.Mutex
	current   string
	subs      map[int]chan string
	nextSubID int
	dropped   int
}

var _ Source = (*Feed)(nil)

// NewFeed returns an empty Feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[int]chan string)}
}

// Submit validates raw and makes it the current link.
func (f *Feed) Submit(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrEmptyLink
	}
	if len(raw) > MaxLinkBytes {
		return ErrLinkTooLong
	}
	f.Set(raw)
	return nil
}

// Set replaces the current link and notifies subscribers. A full subscriber
// loses its oldest pending value.
func (f *Feed) Set(raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.current = raw
	for _, ch := range f.subs {
		select {
		case ch <- raw:
			continue
		default:
		}
		select {
		case <-ch:
			f.dropped++
		default:
		}
		select {
		case ch <- raw:
		default:
		}
	}
}

// Current returns the current link.
func (f *Feed) Current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Dropped returns how many pending values were discarded for slow subscribers.
func (f *Feed) Dropped() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

// Subscribe registers for value changes. The returned func unsubscribes and
// closes the channel; it is safe to call more than once.
func (f *Feed) Subscribe() (<-chan string, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextSubID
	f.nextSubID++
	ch := make(chan string, subscriberBuffer)
	f.subs[id] = ch

	cancel := func() {
		f.mu.Lock()
		if c, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(c)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}
