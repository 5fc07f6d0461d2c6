// internal/app/store/songs/songstore.go
package songstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/melodykit/melodyshare/internal/app/system/normalize"
	"github.com/melodykit/melodyshare/internal/domain/apperr"
	"github.com/melodykit/melodyshare/internal/domain/models"
)

type Store struct {
	c        *mongo.Collection
	counters *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("songs"),
		counters: db.Collection("counters"),
	}
}

// nextSeq allocates the next value of the song insertion counter. The
// counter document is upserted on first use, so no seeding step exists.
func (s *Store) nextSeq(ctx context.Context) (int64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "songs"},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Value, nil
}

// Insert stores a song. The caller supplies the snapshot fields; the store
// assigns the id, the insertion sequence, and the recorded timestamp if the
// caller left it zero. Seq breaks feed-ordering ties between songs that share
// an added_at instant.
func (s *Store) Insert(ctx context.Context, song models.Song) (models.Song, error) {
	seq, err := s.nextSeq(ctx)
	if err != nil {
		return models.Song{}, apperr.StoreUnavailable("songs.seq", err)
	}

	song.ID = primitive.NewObjectID()
	song.Seq = seq
	if song.AddedAt.IsZero() {
		song.AddedAt = time.Now().UTC()
	} else {
		song.AddedAt = song.AddedAt.UTC()
	}

	if _, err := s.c.InsertOne(ctx, song); err != nil {
		return models.Song{}, apperr.StoreUnavailable("songs.insert", err)
	}
	return song, nil
}

// ListByCommunity returns a community's feed: newest first, insertion
// sequence breaking timestamp ties, at most limit entries.
func (s *Store) ListByCommunity(ctx context.Context, code string, limit int64) ([]models.Song, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"community_code": normalize.Code(code)},
		options.Find().
			SetSort(bson.D{
				{Key: "added_at", Value: -1},
				{Key: "seq", Value: -1},
			}).
			SetLimit(limit))
	if err != nil {
		return nil, apperr.StoreUnavailable("songs.list", err)
	}
	defer cur.Close(ctx)

	out := []models.Song{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.StoreUnavailable("songs.list", err)
	}
	return out, nil
}

// LatestByUser returns the most recent song a user submitted anywhere. It is
// the authoritative cooldown source when the user record's stamp is missing
// or suspect (a crash between insert and stamp on deployments without
// transactions).
func (s *Store) LatestByUser(ctx context.Context, userID primitive.ObjectID) (models.Song, error) {
	var song models.Song
	err := s.c.FindOne(ctx,
		bson.M{"added_by_id": userID},
		options.FindOne().SetSort(bson.D{
			{Key: "added_at", Value: -1},
			{Key: "seq", Value: -1},
		})).Decode(&song)
	if err == mongo.ErrNoDocuments {
		return models.Song{}, apperr.NotFound("song", userID.Hex())
	}
	if err != nil {
		return models.Song{}, apperr.StoreUnavailable("songs.latest_by_user", err)
	}
	return song, nil
}

// feedSig fingerprints a feed page. Songs are immutable once inserted, so
// the id sequence fully identifies the page's content.
func feedSig(feed []models.Song) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", len(feed))
	for _, song := range feed {
		b.WriteByte('|')
		b.WriteString(song.ID.Hex())
	}
	return b.String()
}

// Watch emits a community's refreshed feed whenever its songs change,
// preferring a change stream filtered to the community and falling back to
// polling. Bursts may be coalesced; the channel carries the latest feed.
func (s *Store) Watch(ctx context.Context, code string, limit int64, pollInterval time.Duration) (<-chan []models.Song, error) {
	out := make(chan []models.Song, 1)
	canon := normalize.Code(code)

	var lastSig string
	emit := func() {
		feed, err := s.ListByCommunity(ctx, canon, limit)
		if err != nil {
			if ctx.Err() == nil {
				zap.L().Warn("feed watch: list failed",
					zap.String("community", canon), zap.Error(err))
			}
			return
		}
		// Skip unchanged feeds so the polling fallback stays quiet between
		// submissions.
		sig := feedSig(feed)
		if sig == lastSig {
			return
		}
		lastSig = sig
		select {
		case <-out:
		default:
		}
		out <- feed
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"fullDocument.community_code": canon}}},
	}
	cs, err := s.c.Watch(ctx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		zap.L().Info("change streams unavailable, polling feed",
			zap.String("community", canon), zap.Duration("interval", pollInterval))
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
