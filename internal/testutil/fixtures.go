package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/melodykit/melodyshare/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user who belongs to the given community (pass "" for
// a user who has not joined one yet).
func (f *Fixtures) CreateUser(ctx context.Context, username, communityCode string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:            primitive.NewObjectID(),
		Username:      username,
		UsernameCI:    text.Fold(username),
		CommunityCode: communityCode,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateUserWithLastSong inserts a user whose cooldown stamp is set.
func (f *Fixtures) CreateUserWithLastSong(ctx context.Context, username, communityCode string, lastSong time.Time) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	at := lastSong.UTC()
	user := models.User{
		ID:            primitive.NewObjectID(),
		Username:      username,
		UsernameCI:    text.Fold(username),
		CommunityCode: communityCode,
		LastSongAdded: &at,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateCommunity inserts a community with an explicit join code.
func (f *Fixtures) CreateCommunity(ctx context.Context, name, code string, members int) models.Community {
	f.t.Helper()

	now := time.Now().UTC()
	community := models.Community{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Code:      code,
		CodeCI:    text.Fold(code),
		Members:   members,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("communities").InsertOne(ctx, community); err != nil {
		f.t.Fatalf("failed to create test community: %v", err)
	}
	return community
}

// CreateSong inserts a song into a community's feed at the given instant.
func (f *Fixtures) CreateSong(ctx context.Context, title, artist string, user models.User, communityCode string, addedAt time.Time, seq int64) models.Song {
	f.t.Helper()

	song := models.Song{
		ID:            primitive.NewObjectID(),
		Seq:           seq,
		Title:         title,
		Artist:        artist,
		AddedBy:       user.Username,
		AddedByID:     user.ID,
		AddedAt:       addedAt.UTC(),
		CommunityCode: communityCode,
	}

	if _, err := f.db.Collection("songs").InsertOne(ctx, song); err != nil {
		f.t.Fatalf("failed to create test song: %v", err)
	}
	return song
}
