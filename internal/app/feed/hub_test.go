package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/melodykit/melodyshare/internal/domain/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeWatch is a controllable Watcher: tests push snapshots by hand.
type fakeWatch struct {
	mu    sync.Mutex
	chans map[string]chan []models.Song
	opens int
}

func newFakeWatch() *fakeWatch {
	return &fakeWatch{chans: map[string]chan []models.Song{}}
}

func (f *fakeWatch) watcher(ctx context.Context, code string) (<-chan []models.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	ch := make(chan []models.Song, 8)
	f.chans[code] = ch
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (f *fakeWatch) push(code string, songs []models.Song) {
	f.mu.Lock()
	ch := f.chans[code]
	f.mu.Unlock()
	ch <- songs
}

func feedOf(titles ...string) []models.Song {
	out := make([]models.Song, len(titles))
	for i, t := range titles {
		out[i] = models.Song{Title: t}
	}
	return out
}

// collector gathers deliveries and signals each arrival.
type collector struct {
	mu     sync.Mutex
	got    [][]models.Song
	signal chan struct{}
}

func newCollector() *collector {
	return &collector{signal: make(chan struct{}, 16)}
}

func (c *collector) fn(songs []models.Song) {
	c.mu.Lock()
	c.got = append(c.got, songs)
	c.mu.Unlock()
	c.signal <- struct{}{}
}

func (c *collector) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a delivery")
	}
}

func (c *collector) deliveries() [][]models.Song {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]models.Song(nil), c.got...)
}

func TestHub_DeliversSnapshotsInOrder(t *testing.T) {
	watch := newFakeWatch()
	hub := NewHub(watch.watcher, zap.NewNop())
	defer hub.Close()

	col := newCollector()
	unsub, err := hub.Subscribe("JAZZ1234", col.fn)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsub()

	watch.push("JAZZ1234", feedOf("first"))
	col.wait(t)
	watch.push("JAZZ1234", feedOf("second", "first"))
	col.wait(t)

	got := col.deliveries()
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
	if got[0][0].Title != "first" || got[1][0].Title != "second" {
		t.Errorf("deliveries out of order: %v", got)
	}
}

func TestHub_LateSubscriberGetsSnapshotImmediately(t *testing.T) {
	watch := newFakeWatch()
	hub := NewHub(watch.watcher, zap.NewNop())
	defer hub.Close()

	first := newCollector()
	unsub1, err := hub.Subscribe("JAZZ1234", first.fn)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsub1()

	watch.push("JAZZ1234", feedOf("cached"))
	first.wait(t)

	// The second subscriber sees the cached snapshot before Subscribe
	// returns, with no store round trip.
	second := newCollector()
	unsub2, err := hub.Subscribe("JAZZ1234", second.fn)
	if err != nil {
		t.Fatalf("second Subscribe failed: %v", err)
	}
	defer unsub2()

	got := second.deliveries()
	if len(got) != 1 || got[0][0].Title != "cached" {
		t.Fatalf("expected immediate cached snapshot, got %v", got)
	}
	if watch.opens != 1 {
		t.Errorf("expected one shared watch, got %d", watch.opens)
	}
}

func TestHub_UnsubscribeIsSynchronous(t *testing.T) {
	watch := newFakeWatch()
	hub := NewHub(watch.watcher, zap.NewNop())
	defer hub.Close()

	var mu sync.Mutex
	calls := 0
	unsub, err := hub.Subscribe("JAZZ1234", func([]models.Song) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	watch.push("JAZZ1234", feedOf("one"))
	// Give the pump a moment, then cut the subscription.
	time.Sleep(50 * time.Millisecond)
	unsub()

	mu.Lock()
	after := calls
	mu.Unlock()

	// Anything pushed now must never reach the callback. The watch channel
	// may already be closed by the teardown, so push defensively.
	func() {
		defer func() { recover() }()
		watch.push("JAZZ1234", feedOf("two"))
	}()
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != after {
		t.Errorf("callback ran after unsubscribe returned: %d -> %d", after, calls)
	}
}

func TestHub_LastUnsubscribeStopsWatch(t *testing.T) {
	watch := newFakeWatch()
	hub := NewHub(watch.watcher, zap.NewNop())

	unsub, err := hub.Subscribe("JAZZ1234", func([]models.Song) {})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	unsub()

	// A fresh subscription after full teardown opens a new watch.
	unsub2, err := hub.Subscribe("JAZZ1234", func([]models.Song) {})
	if err != nil {
		t.Fatalf("re-Subscribe failed: %v", err)
	}
	unsub2()
	hub.Close()

	if watch.opens != 2 {
		t.Errorf("expected 2 watch opens across teardown, got %d", watch.opens)
	}
}

func TestHub_SubscribersAreIsolatedPerCommunity(t *testing.T) {
	watch := newFakeWatch()
	hub := NewHub(watch.watcher, zap.NewNop())
	defer hub.Close()

	jazz := newCollector()
	unsubJazz, err := hub.Subscribe("JAZZ1234", jazz.fn)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsubJazz()

	rock := newCollector()
	unsubRock, err := hub.Subscribe("ROCK5678", rock.fn)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsubRock()

	watch.push("JAZZ1234", feedOf("jazz song"))
	jazz.wait(t)

	if len(rock.deliveries()) != 0 {
		t.Error("rock subscriber saw a jazz delivery")
	}
	if watch.opens != 2 {
		t.Errorf("expected one watch per community, got %d", watch.opens)
	}
}

func TestHub_WatchErrorSurfaces(t *testing.T) {
	wantErr := errors.New("stream refused")
	hub := NewHub(func(context.Context, string) (<-chan []models.Song, error) {
		return nil, wantErr
	}, zap.NewNop())
	defer hub.Close()

	if _, err := hub.Subscribe("JAZZ1234", func([]models.Song) {}); !errors.Is(err, wantErr) {
		t.Errorf("expected watch error, got %v", err)
	}
}
