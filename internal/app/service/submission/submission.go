// Package submission enforces the one-song-per-day rule and records
// submissions. It owns the user's last_song_added field; the membership
// service never writes it.
package submission

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/melodykit/melodyshare/internal/app/system/htmlsanitize"
	"github.com/melodykit/melodyshare/internal/app/system/inputval"
	"github.com/melodykit/melodyshare/internal/app/system/normalize"
	"github.com/melodykit/melodyshare/internal/app/system/spotify"
	"github.com/melodykit/melodyshare/internal/domain/apperr"
	"github.com/melodykit/melodyshare/internal/domain/models"
)

// DefaultCooldown is the sliding window between submissions.
const DefaultCooldown = 24 * time.Hour

// UserStore is the slice of the identity store this service needs.
// ClaimSubmissionSlot is the race-safe cooldown gate: it stamps the window
// only if the user is still eligible at write time, so two clients racing
// the same user cannot both submit. SetLastSongAdded restores (or clears)
// the stamp when an insert fails after a claim.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	ClaimSubmissionSlot(ctx context.Context, id primitive.ObjectID, at time.Time, window time.Duration) (bool, error)
	SetLastSongAdded(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// SongStore is the slice of the song store this service needs. LatestByUser
// makes the song log the authoritative cooldown source when the user
// record's stamp went missing.
type SongStore interface {
	Insert(ctx context.Context, song models.Song) (models.Song, error)
	LatestByUser(ctx context.Context, userID primitive.ObjectID) (models.Song, error)
}

// TxnRunner executes fn atomically. A nil runner means the deployment has no
// multi-document transactions; the service then claims the window, inserts,
// and hands the window back if the insert fails.
type TxnRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Config struct {
	Cooldown    time.Duration
	RequireMood bool
}

type Service struct {
	users       UserStore
	songs       SongStore
	txn         TxnRunner
	cooldown    time.Duration
	requireMood bool
	now         func() time.Time
	log         *zap.Logger
}

func New(users UserStore, songs SongStore, txn TxnRunner, cfg Config, logger *zap.Logger) *Service {
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Service{
		users:       users,
		songs:       songs,
		txn:         txn,
		cooldown:    cooldown,
		requireMood: cfg.RequireMood,
		now:         time.Now,
		log:         logger,
	}
}

// WithClock replaces the service's time source. Tests use this to walk the
// cooldown window deterministically.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// lastSubmission determines the user's most recent submission instant,
// preferring the stamped timestamp but reconciling against the song log: a
// crash between insert and stamp on a transactionless deployment leaves the
// stamp behind the log, and the later of the two wins.
func (s *Service) lastSubmission(ctx context.Context, u models.User) (time.Time, bool, error) {
	var last time.Time
	if u.LastSongAdded != nil {
		last = *u.LastSongAdded
	}

	latest, err := s.songs.LatestByUser(ctx, u.ID)
	switch {
	case err == nil:
		if latest.AddedAt.After(last) {
			last = latest.AddedAt
		}
	case apperr.IsNotFound(err):
	default:
		return time.Time{}, false, err
	}

	return last, !last.IsZero(), nil
}

// CanSubmit reports whether the user may submit now, and if not, how long
// until they may. The window is strict: exactly cooldown elapsed is allowed.
func (s *Service) CanSubmit(ctx context.Context, userID primitive.ObjectID) (bool, time.Duration, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, 0, err
	}

	last, ok, err := s.lastSubmission(ctx, u)
	if err != nil {
		return false, 0, err
	}
	if !ok {
		return true, 0, nil
	}

	elapsed := s.now().Sub(last)
	if elapsed >= s.cooldown {
		return true, 0, nil
	}
	return false, s.cooldown - elapsed, nil
}

// rateLimited rebuilds the remaining-window answer after a lost claim race,
// re-reading the user because the caller's copy predates the competing
// write.
func (s *Service) rateLimited(ctx context.Context, userID primitive.ObjectID) error {
	retry := s.cooldown
	if u, err := s.users.GetByID(ctx, userID); err == nil {
		if last, ok, lerr := s.lastSubmission(ctx, u); lerr == nil && ok {
			if remaining := s.cooldown - s.now().Sub(last); remaining > 0 {
				retry = remaining
			}
		}
	}
	return &apperr.RateLimitedError{RetryAfter: retry}
}

// Request carries the track snapshot a submission freezes into the feed.
// Fields mirror what track search returns; the service never re-fetches
// from the provider.
type Request struct {
	UserID     primitive.ObjectID
	Title      string
	Artist     string
	AlbumArt   string
	SpotifyURI string
	SpotifyID  string
	Mood       string
}

// Submit records a song. Preconditions are checked in order: the user must
// exist, belong to a community, be outside the cooldown window, and carry a
// valid (or permitted-empty) mood. Only then is anything written.
func (s *Service) Submit(ctx context.Context, req Request) (models.Song, error) {
	u, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return models.Song{}, err
	}
	if u.CommunityCode == "" {
		return models.Song{}, apperr.ErrNotInCommunity
	}

	last, ok, err := s.lastSubmission(ctx, u)
	if err != nil {
		return models.Song{}, err
	}
	if ok {
		if elapsed := s.now().Sub(last); elapsed < s.cooldown {
			return models.Song{}, &apperr.RateLimitedError{RetryAfter: s.cooldown - elapsed}
		}
	}

	mood := normalize.Mood(htmlsanitize.PlainText(req.Mood))
	if mood == "" && s.requireMood {
		return models.Song{}, apperr.ErrMoodRequired
	}
	if !inputval.IsValidMood(mood) {
		return models.Song{}, apperr.Validation("mood", "not a recognized mood")
	}

	title := htmlsanitize.PlainText(req.Title)
	artist := htmlsanitize.PlainText(req.Artist)
	if title == "" {
		return models.Song{}, apperr.Validation("title", "a track title is required")
	}
	if artist == "" {
		return models.Song{}, apperr.Validation("artist", "a track artist is required")
	}

	at := s.now().UTC()
	song := models.Song{
		Title:         title,
		Artist:        artist,
		AlbumArt:      req.AlbumArt,
		SpotifyURI:    req.SpotifyURI,
		SpotifyID:     req.SpotifyID,
		YoutubeURL:    spotify.YoutubeSearchURL(title, artist),
		AddedBy:       u.Username,
		AddedByID:     u.ID,
		AddedAt:       at,
		Mood:          mood,
		CommunityCode: u.CommunityCode,
	}

	// The stamp is written first, through a conditional update that re-checks
	// the window at write time. The check above was advisory; this claim is
	// the gate, so two clients racing the same user cannot both insert.
	claim := func(ctx context.Context) error {
		claimed, cerr := s.users.ClaimSubmissionSlot(ctx, u.ID, at, s.cooldown)
		if cerr != nil {
			return cerr
		}
		if !claimed {
			return s.rateLimited(ctx, u.ID)
		}
		return nil
	}

	var saved models.Song
	if s.txn != nil {
		err = s.txn(ctx, func(ctx context.Context) error {
			if cerr := claim(ctx); cerr != nil {
				return cerr
			}
			var ierr error
			saved, ierr = s.songs.Insert(ctx, song)
			return ierr
		})
		if err != nil {
			return models.Song{}, err
		}
	} else {
		if cerr := claim(ctx); cerr != nil {
			return models.Song{}, cerr
		}
		saved, err = s.songs.Insert(ctx, song)
		if err != nil {
			// Hand the window back: the stamp landed but no song did. A
			// zero prior clears the stamp entirely.
			if rerr := s.users.SetLastSongAdded(ctx, u.ID, last); rerr != nil {
				s.log.Warn("slot release after failed insert also failed; user waits out the window",
					zap.String("user_id", u.ID.Hex()), zap.Error(rerr))
			}
			return models.Song{}, err
		}
	}

	s.log.Info("song submitted",
		zap.String("title", saved.Title),
		zap.String("artist", saved.Artist),
		zap.String("community", saved.CommunityCode),
		zap.String("added_by", saved.AddedBy))

	return saved, nil
}
