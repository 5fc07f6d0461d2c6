// internal/app/store/users/userstore.go
package userstore

// Terminology: User Identifiers
//   - UserID / userID / user_id: the MongoDB ObjectID (_id) that uniquely
//     identifies a user record
//   - Username: the human-chosen display string; uniqueness is enforced on
//     its folded form (username_ci), so matching is case-insensitive while
//     the typed casing is preserved for display

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/melodykit/melodyshare/internal/domain/apperr"
	"github.com/melodykit/melodyshare/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Exists reports whether a user with this username is already registered.
// A backing-store fault surfaces as StoreUnavailable, never as "false":
// callers must not conflate "unknown username" with "could not check".
func (s *Store) Exists(ctx context.Context, username string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"username_ci": text.Fold(username)},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, apperr.StoreUnavailable("users.exists", err)
	}
	return true, nil
}

// GetByUsername returns the user record for an exact (folded) username match.
func (s *Store) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"username_ci": text.Fold(username)}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return models.User{}, apperr.NotFound("user", username)
	}
	if err != nil {
		return models.User{}, apperr.StoreUnavailable("users.get", err)
	}
	return u, nil
}

// GetByID returns the user record for an id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return models.User{}, apperr.NotFound("user", id.Hex())
	}
	if err != nil {
		return models.User{}, apperr.StoreUnavailable("users.get", err)
	}
	return u, nil
}

// Save upserts keyed by the folded username, merging fields rather than
// replacing the document. last_song_added is deliberately absent from the
// $set: that field belongs to the submission service (ClaimSubmissionSlot),
// so a join racing a submit cannot clobber the cooldown timestamp.
func (s *Store) Save(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	set := bson.M{
		"username":    u.Username,
		"username_ci": text.Fold(u.Username),
		"is_guest":    u.IsGuest,
		"updated_at":  now,
	}
	if u.CommunityCode != "" {
		set["community_code"] = u.CommunityCode
	}

	var saved models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"username_ci": text.Fold(u.Username)},
		bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&saved)
	if err != nil {
		return models.User{}, apperr.StoreUnavailable("users.save", err)
	}
	return saved, nil
}

// SetCommunityCode reassigns the user's current community. Only the
// membership service calls this.
func (s *Store) SetCommunityCode(ctx context.Context, id primitive.ObjectID, code string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"community_code": code,
		"updated_at":     time.Now().UTC(),
	}})
	if err != nil {
		return apperr.StoreUnavailable("users.set_community", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("user", id.Hex())
	}
	return nil
}

// ClaimSubmissionSlot stamps last_song_added to at, but only when the user
// is outside the cooldown window at write time. The window check lives in
// the update filter, so two clients racing the same user cannot both claim:
// the loser matches nothing and sees false. Only the submission service
// calls this.
func (s *Store) ClaimSubmissionSlot(ctx context.Context, id primitive.ObjectID, at time.Time, window time.Duration) (bool, error) {
	at = at.UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id": id,
			"$or": bson.A{
				bson.M{"last_song_added": bson.M{"$exists": false}},
				bson.M{"last_song_added": nil},
				// Exactly window elapsed is allowed, hence $lte.
				bson.M{"last_song_added": bson.M{"$lte": at.Add(-window)}},
			},
		},
		bson.M{"$set": bson.M{
			"last_song_added": at,
			"updated_at":      at,
		}})
	if err != nil {
		return false, apperr.StoreUnavailable("users.claim_submission", err)
	}
	return res.MatchedCount == 1, nil
}

// SetLastSongAdded overwrites the cooldown stamp unconditionally; a zero
// time clears it. The submission service uses this to restore the previous
// stamp when a song insert fails after the slot was claimed.
func (s *Store) SetLastSongAdded(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"last_song_added": at.UTC(),
		"updated_at":      time.Now().UTC(),
	}}
	if at.IsZero() {
		update = bson.M{
			"$unset": bson.M{"last_song_added": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		}
	}
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		return apperr.StoreUnavailable("users.set_last_song", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("user", id.Hex())
	}
	return nil
}
