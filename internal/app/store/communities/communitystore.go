// internal/app/store/communities/communitystore.go
package communitystore

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/melodykit/melodyshare/internal/domain/apperr"
	"github.com/melodykit/melodyshare/internal/domain/models"
)

type Store struct {
	c      *mongo.Collection
	codeFn func(name string) string
}

// maxCodeAttempts bounds the collision-regenerate loop in Create. With a
// four-digit random suffix per name prefix the space is 9000 codes, so
// repeated collisions at this depth indicate something other than bad luck.
const maxCodeAttempts = 8

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("communities"), codeFn: GenerateCode}
}

// WithCodeGenerator replaces the join-code generator. Tests use this to
// force code collisions deterministically.
func (s *Store) WithCodeGenerator(fn func(name string) string) *Store {
	s.codeFn = fn
	return s
}

// GenerateCode builds a candidate join code: the first four letters of the
// community name, uppercased, followed by a random four-digit number. Names
// with no usable letters get a neutral prefix so the code shape holds.
func GenerateCode(name string) string {
	var prefix strings.Builder
	for _, r := range name {
		if prefix.Len() == 4 {
			break
		}
		if unicode.IsLetter(r) && r < 128 {
			prefix.WriteRune(unicode.ToUpper(r))
		}
	}
	p := prefix.String()
	if p == "" {
		p = "MIX"
	}
	return fmt.Sprintf("%s%04d", p, 1000+rand.Intn(9000))
}

// Create inserts a new community with members = 1 (the creator counts) and a
// freshly generated join code. A code collision is detected by the unique
// index on code_ci and answered by regenerating, never surfaced to callers.
func (s *Store) Create(ctx context.Context, name string) (models.Community, error) {
	now := time.Now().UTC()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := s.codeFn(name)
		c := models.Community{
			ID:        primitive.NewObjectID(),
			Name:      name,
			NameCI:    text.Fold(name),
			Code:      code,
			CodeCI:    text.Fold(code),
			Members:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err := s.c.InsertOne(ctx, c)
		if err == nil {
			return c, nil
		}
		if wafflemongo.IsDup(err) {
			zap.L().Debug("join code collision, regenerating",
				zap.String("name", name), zap.String("code", code))
			continue
		}
		return models.Community{}, apperr.StoreUnavailable("communities.create", err)
	}
	return models.Community{}, apperr.StoreUnavailable("communities.create",
		fmt.Errorf("could not allocate a unique join code after %d attempts", maxCodeAttempts))
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Community, error) {
	var c models.Community
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return models.Community{}, apperr.NotFound("community", id.Hex())
	}
	if err != nil {
		return models.Community{}, apperr.StoreUnavailable("communities.get", err)
	}
	return c, nil
}

// GetByCode resolves a join code case-insensitively.
func (s *Store) GetByCode(ctx context.Context, code string) (models.Community, error) {
	var c models.Community
	err := s.c.FindOne(ctx, bson.M{"code_ci": text.Fold(code)}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return models.Community{}, apperr.NotFound("community", code)
	}
	if err != nil {
		return models.Community{}, apperr.StoreUnavailable("communities.get", err)
	}
	return c, nil
}

// List returns every community, newest first.
func (s *Store) List(ctx context.Context) ([]models.Community, error) {
	cur, err := s.c.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, apperr.StoreUnavailable("communities.list", err)
	}
	defer cur.Close(ctx)

	out := []models.Community{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.StoreUnavailable("communities.list", err)
	}
	return out, nil
}

// IncrementMembers bumps the member count by one. Callers decide whether a
// join actually counts (a returning user rejoining their own community does
// not); this method just applies the delta atomically.
func (s *Store) IncrementMembers(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"members": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return apperr.StoreUnavailable("communities.inc_members", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("community", id.Hex())
	}
	return nil
}

// DecrementMembers lowers the member count by one but never below one. The
// floor lives in the filter, so a concurrent decrement cannot race past it.
func (s *Store) DecrementMembers(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "members": bson.M{"$gt": 1}},
		bson.M{
			"$inc": bson.M{"members": -1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return apperr.StoreUnavailable("communities.dec_members", err)
	}
	return nil
}

// listSig fingerprints a listing so a watch only emits when something
// actually changed. Member counts and update times cover every mutation a
// community can see.
func listSig(list []models.Community) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", len(list))
	for _, c := range list {
		fmt.Fprintf(&b, "|%s:%d:%d", c.ID.Hex(), c.Members, c.UpdatedAt.UnixNano())
	}
	return b.String()
}

// Watch emits the full community list whenever the collection changes. It
// prefers a change stream and falls back to polling on deployments without
// one (standalone mongod). Rapid bursts of writes may be coalesced into a
// single emission; the channel always carries the latest state.
func (s *Store) Watch(ctx context.Context, pollInterval time.Duration) (<-chan []models.Community, error) {
	out := make(chan []models.Community, 1)

	var lastSig string
	emit := func() {
		list, err := s.List(ctx)
		if err != nil {
			if ctx.Err() == nil {
				zap.L().Warn("community watch: list failed", zap.Error(err))
			}
			return
		}
		// The polling fallback re-lists on every tick; only an actual
		// change reaches subscribers.
		sig := listSig(list)
		if sig == lastSig {
			return
		}
		lastSig = sig
		// Coalesce: replace a pending emission rather than queue behind it.
		select {
		case <-out:
		default:
		}
		out <- list
	}

	cs, err := s.c.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		zap.L().Info("change streams unavailable, polling communities",
			zap.Duration("interval", pollInterval), zap.Error(err))
		go func() {
			defer close(out)
			emit()
			tick := time.NewTicker(pollInterval)
			defer tick.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-tick.C:
					emit()
				}
			}
		}()
		return out, nil
	}

	go func() {
		defer close(out)
		defer cs.Close(context.Background())
		emit()
		for cs.Next(ctx) {
			emit()
		}
	}()
	return out, nil
}
