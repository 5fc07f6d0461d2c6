// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureCommunities(ctx, db); err != nil {
		problems = append(problems, "communities: "+err.Error())
	}
	if err := ensureSongs(ctx, db); err != nil {
		problems = append(problems, "songs: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name.
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		unique := false
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			if m.Options.Unique != nil {
				unique = *m.Options.Unique
			}
		}
		sig := keySig(m.Keys.(bson.D))

		start := time.Now()
		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			switch {
			case isOptionsConflictErr(err):
				// Same keys under a different name from a prior release; reuse it.
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("keys", sig))
			case isDuplicateKeyErr(err) && unique:
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
			default:
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}

		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* ------------------------------ collections ------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			// Username uniqueness lives on the folded field so matching is
			// case-insensitive while display casing is preserved.
			Keys:    bson.D{{Key: "username_ci", Value: 1}},
			Options: options.Index().SetName("uniq_username_ci").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "community_code", Value: 1}},
			Options: options.Index().SetName("by_community_code"),
		},
	})
}

func ensureCommunities(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("communities"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code_ci", Value: 1}},
			Options: options.Index().SetName("uniq_code_ci").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("by_name_ci"),
		},
	})
}

func ensureSongs(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("songs"), []mongo.IndexModel{
		{
			// Feed reads: newest first within one community, seq as tiebreak.
			Keys:    bson.D{{Key: "community_code", Value: 1}, {Key: "added_at", Value: -1}, {Key: "seq", Value: -1}},
			Options: options.Index().SetName("feed_order"),
		},
		{
			// Cooldown reconciliation: latest submission per user.
			Keys:    bson.D{{Key: "added_by_id", Value: 1}, {Key: "added_at", Value: -1}},
			Options: options.Index().SetName("latest_by_user"),
		},
	})
}
