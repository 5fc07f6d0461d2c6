// Package spotify adapts the Spotify Web API as the track search provider.
//
// Access uses the client-credentials grant. The token is owned by the
// Client's TokenSource (cached until expiry, refreshed transparently) rather
// than any package-level variable; a 401 on an unexpired token forces one
// re-mint and retry before the error is surfaced.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultTokenURL = "https://accounts.spotify.com/api/token"
	defaultAPIBase  = "https://api.spotify.com/v1"

	// MaxSearchResults caps search responses regardless of configuration.
	MaxSearchResults = 10
)

// Track is one search result: the immutable snapshot fields a submission
// copies into a Song.
type Track struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Artists     []string `json:"artists"`
	AlbumArtURL string   `json:"albumArtUrl"`
	URI         string   `json:"externalUri"`
}

// Config carries the credentials and optional endpoint overrides (tests
// point TokenURL/APIBaseURL at local servers).
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIBaseURL   string
	SearchLimit  int
}

// Client is the track search provider adapter.
type Client struct {
	creds   clientcredentials.Config
	apiBase string
	limit   int
	hc      *http.Client
	log     *zap.Logger

	mu  sync.Mutex
	src oauth2.TokenSource
}

// NewClient builds a Client. SearchLimit is clamped to [1, MaxSearchResults].
func NewClient(cfg Config, logger *zap.Logger) *Client {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	apiBase := cfg.APIBaseURL
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	limit := cfg.SearchLimit
	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}

	return &Client{
		creds: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
		},
		apiBase: apiBase,
		limit:   limit,
		hc:      http.DefaultClient,
		log:     logger,
	}
}

// token returns a valid bearer token, minting or refreshing as needed.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.src == nil {
		c.src = c.creds.TokenSource(context.Background())
	}
	src := c.src
	c.mu.Unlock()

	tok, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("spotify token: %w", err)
	}
	return tok.AccessToken, nil
}

// invalidate drops the cached token source so the next call re-mints.
func (c *Client) invalidate() {
	c.mu.Lock()
	c.src = nil
	c.mu.Unlock()
}

// search response shape (only the fields we keep).
type searchResponse struct {
	Tracks struct {
		Items []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			URI     string `json:"uri"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album struct {
				Images []struct {
					URL string `json:"url"`
				} `json:"images"`
			} `json:"album"`
		} `json:"items"`
	} `json:"tracks"`
}

// Search queries tracks matching q. An empty result set is a valid,
// non-error outcome. At most the configured limit (≤10) is returned.
func (c *Client) Search(ctx context.Context, q string) ([]Track, error) {
	tracks, retryable, err := c.searchOnce(ctx, q)
	if retryable {
		// Token revoked before its recorded expiry; re-mint once.
		c.log.Info("spotify token rejected, refreshing", zap.String("query", q))
		c.invalidate()
		tracks, _, err = c.searchOnce(ctx, q)
	}
	return tracks, err
}

func (c *Client) searchOnce(ctx context.Context, q string) (tracks []Track, unauthorized bool, err error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, false, err
	}

	u := fmt.Sprintf("%s/search?q=%s&type=track&limit=%s",
		c.apiBase, url.QueryEscape(q), strconv.Itoa(c.limit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("spotify search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, true, fmt.Errorf("spotify search: unauthorized")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("spotify search: unexpected status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, false, fmt.Errorf("spotify search: decode: %w", err)
	}

	out := make([]Track, 0, len(body.Tracks.Items))
	for _, it := range body.Tracks.Items {
		t := Track{ID: it.ID, Title: it.Name, URI: it.URI}
		for _, a := range it.Artists {
			t.Artists = append(t.Artists, a.Name)
		}
		if len(it.Album.Images) > 0 {
			t.AlbumArtURL = it.Album.Images[0].URL
		}
		out = append(out, t)
		if len(out) == c.limit {
			break
		}
	}
	return out, false, nil
}

// EmbedURL returns the public embed player URL for a track id.
func EmbedURL(trackID string) string {
	return "https://open.spotify.com/embed/track/" + url.PathEscape(trackID)
}

// YoutubeSearchURL builds a YouTube search link for a title/artist pair,
// stored alongside each song so the feed can offer a non-Spotify way to
// listen.
func YoutubeSearchURL(title, artist string) string {
	q := url.QueryEscape(title + " " + artist)
	return "https://www.youtube.com/results?search_query=" + q
}
