package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

// fakeSpotify bundles a token endpoint and a search endpoint.
type fakeSpotify struct {
	tokens   atomic.Int64 // tokens minted
	searches atomic.Int64
	// reject401 causes the search endpoint to reject the first N requests
	// with 401 regardless of token.
	reject401 atomic.Int64

	tokenSrv  *httptest.Server
	searchSrv *httptest.Server
}

func newFakeSpotify(t *testing.T, items string) *fakeSpotify {
	t.Helper()
	f := &fakeSpotify{}

	f.tokenSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := f.tokens.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok-%d","token_type":"Bearer","expires_in":3600}`, n)
	}))
	t.Cleanup(f.tokenSrv.Close)

	f.searchSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.searches.Add(1)
		if f.reject401.Load() > 0 {
			f.reject401.Add(-1)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"tracks":{"items":[%s]}}`, items)
	}))
	t.Cleanup(f.searchSrv.Close)

	return f
}

func (f *fakeSpotify) client(limit int) *Client {
	return NewClient(Config{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     f.tokenSrv.URL,
		APIBaseURL:   f.searchSrv.URL,
		SearchLimit:  limit,
	}, zap.NewNop())
}

const twoTracks = `
{"id":"t1","name":"Dreams","uri":"spotify:track:t1",
 "artists":[{"name":"Fleetwood Mac"}],
 "album":{"images":[{"url":"https://img/1"}]}},
{"id":"t2","name":"Blinding Lights","uri":"spotify:track:t2",
 "artists":[{"name":"The Weeknd"},{"name":"Someone Else"}],
 "album":{"images":[]}}`

func TestSearch_ParsesTracks(t *testing.T) {
	f := newFakeSpotify(t, twoTracks)
	c := f.client(10)

	tracks, err := c.Search(context.Background(), "dreams")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}

	got := tracks[0]
	if got.ID != "t1" || got.Title != "Dreams" || got.URI != "spotify:track:t1" {
		t.Errorf("unexpected first track: %+v", got)
	}
	if got.AlbumArtURL != "https://img/1" {
		t.Errorf("album art: got %q", got.AlbumArtURL)
	}
	if len(tracks[1].Artists) != 2 {
		t.Errorf("expected 2 artists on second track, got %d", len(tracks[1].Artists))
	}
	if tracks[1].AlbumArtURL != "" {
		t.Errorf("expected empty album art for imageless album, got %q", tracks[1].AlbumArtURL)
	}
}

func TestSearch_EmptyResultIsNotAnError(t *testing.T) {
	f := newFakeSpotify(t, "")
	c := f.client(10)

	tracks, err := c.Search(context.Background(), "no such song")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(tracks) != 0 {
		t.Errorf("expected no tracks, got %d", len(tracks))
	}
}

func TestSearch_TokenReusedAcrossCalls(t *testing.T) {
	f := newFakeSpotify(t, twoTracks)
	c := f.client(10)

	for i := 0; i < 3; i++ {
		if _, err := c.Search(context.Background(), "q"); err != nil {
			t.Fatalf("Search %d failed: %v", i, err)
		}
	}
	if got := f.tokens.Load(); got != 1 {
		t.Errorf("expected 1 token mint for 3 searches, got %d", got)
	}
}

func TestSearch_RefreshesOnUnauthorized(t *testing.T) {
	f := newFakeSpotify(t, twoTracks)
	c := f.client(10)

	// Warm the token, then have the API reject it once.
	if _, err := c.Search(context.Background(), "warm"); err != nil {
		t.Fatalf("warm Search failed: %v", err)
	}
	f.reject401.Store(1)

	tracks, err := c.Search(context.Background(), "again")
	if err != nil {
		t.Fatalf("Search after 401 failed: %v", err)
	}
	if len(tracks) != 2 {
		t.Errorf("expected tracks after refresh, got %d", len(tracks))
	}
	if got := f.tokens.Load(); got != 2 {
		t.Errorf("expected a second token mint after 401, got %d", got)
	}
}

func TestSearch_LimitClamped(t *testing.T) {
	f := newFakeSpotify(t, twoTracks)
	c := f.client(1)

	tracks, err := c.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(tracks) != 1 {
		t.Errorf("expected limit of 1 track, got %d", len(tracks))
	}

	// Out-of-range limits fall back to the cap.
	if c2 := f.client(50); c2.limit != MaxSearchResults {
		t.Errorf("limit 50 should clamp to %d, got %d", MaxSearchResults, c2.limit)
	}
}

func TestEmbedURL(t *testing.T) {
	got := EmbedURL("3z8h0TU7ReDPLIbEnNQ0hF")
	want := "https://open.spotify.com/embed/track/3z8h0TU7ReDPLIbEnNQ0hF"
	if got != want {
		t.Errorf("EmbedURL: got %q, want %q", got, want)
	}
}

func TestYoutubeSearchURL(t *testing.T) {
	got := YoutubeSearchURL("Bohemian Rhapsody", "Queen")
	want := "https://www.youtube.com/results?search_query=Bohemian+Rhapsody+Queen"
	if got != want {
		t.Errorf("YoutubeSearchURL: got %q, want %q", got, want)
	}
}
