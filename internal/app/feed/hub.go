// Package feed fans a community's ordered song list out to subscribers. One
// watch per community feeds every subscriber of that community; the watch
// starts with the first subscriber and stops with the last.
package feed

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/melodykit/melodyshare/internal/app/system/normalize"
	"github.com/melodykit/melodyshare/internal/domain/models"
)

// Watcher opens a stream of feed snapshots for one community. The channel
// must close when ctx is canceled. The songs store provides this.
type Watcher func(ctx context.Context, code string) (<-chan []models.Song, error)

// Hub multiplexes feed watches across subscribers.
type Hub struct {
	watch Watcher
	log   *zap.Logger

	mu    sync.Mutex
	feeds map[string]*communityFeed
}

type communityFeed struct {
	cancel context.CancelFunc
	done   chan struct{}
	subs   map[uuid.UUID]*subscriber

	latest      []models.Song
	hasSnapshot bool
}

type subscriber struct {
	// mu serializes deliveries and lets Unsubscribe guarantee that no
	// callback runs after it returns.
	mu     sync.Mutex
	closed bool
	fn     func([]models.Song)
}

func (s *subscriber) deliver(songs []models.Song) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.fn(songs)
}

func NewHub(watch Watcher, logger *zap.Logger) *Hub {
	return &Hub{
		watch: watch,
		log:   logger,
		feeds: map[string]*communityFeed{},
	}
}

// Subscribe registers fn for a community's feed. The current snapshot, when
// one is already cached, is delivered before Subscribe returns; otherwise the
// first delivery follows as soon as the backing watch answers. Every
// subsequent change redelivers the whole ordered list. Deliveries to one
// subscriber never interleave or reorder.
//
// The returned function unsubscribes. It is synchronous: once it returns, fn
// will not be called again. It must not be called from inside fn.
func (h *Hub) Subscribe(code string, fn func([]models.Song)) (func(), error) {
	code = normalize.Code(code)
	sub := &subscriber{fn: fn}
	token := uuid.New()

	h.mu.Lock()
	cf, ok := h.feeds[code]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		ch, err := h.watch(ctx, code)
		if err != nil {
			cancel()
			h.mu.Unlock()
			return nil, err
		}
		cf = &communityFeed{
			cancel: cancel,
			done:   make(chan struct{}),
			subs:   map[uuid.UUID]*subscriber{},
		}
		h.feeds[code] = cf
		go h.pump(code, cf, ch)
	}
	cf.subs[token] = sub
	snapshot, hasSnapshot := cf.latest, cf.hasSnapshot
	h.mu.Unlock()

	if hasSnapshot {
		sub.deliver(snapshot)
	}

	h.log.Debug("feed subscriber added", zap.String("community", code))

	return func() { h.unsubscribe(code, token, sub) }, nil
}

func (h *Hub) unsubscribe(code string, token uuid.UUID, sub *subscriber) {
	// Mark closed first: a delivery in flight finishes before this lock is
	// granted, and nothing runs after it.
	sub.mu.Lock()
	sub.closed = true
	sub.mu.Unlock()

	h.mu.Lock()
	cf, ok := h.feeds[code]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(cf.subs, token)
	var done chan struct{}
	if len(cf.subs) == 0 {
		delete(h.feeds, code)
		cf.cancel()
		done = cf.done
	}
	h.mu.Unlock()

	if done != nil {
		<-done
		h.log.Debug("feed watch stopped", zap.String("community", code))
	}
}

// pump forwards every emission from the store watch to all current
// subscribers of the community, in order.
func (h *Hub) pump(code string, cf *communityFeed, ch <-chan []models.Song) {
	defer close(cf.done)
	for songs := range ch {
		h.mu.Lock()
		cf.latest = songs
		cf.hasSnapshot = true
		subs := make([]*subscriber, 0, len(cf.subs))
		for _, s := range cf.subs {
			subs = append(subs, s)
		}
		h.mu.Unlock()

		for _, s := range subs {
			s.deliver(songs)
		}
	}
}

// Close tears down every active watch. Pending deliveries finish first.
func (h *Hub) Close() {
	h.mu.Lock()
	feeds := h.feeds
	h.feeds = map[string]*communityFeed{}
	h.mu.Unlock()

	for code, cf := range feeds {
		cf.cancel()
		<-cf.done
		h.log.Debug("feed watch stopped", zap.String("community", code))
	}
}
