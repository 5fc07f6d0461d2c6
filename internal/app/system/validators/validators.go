// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("communities", communitiesSchema())
	ensure("songs", songsSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// ensureCollection idempotently makes sure <name> exists.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) error {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err == nil && len(names) > 0 {
		zap.L().Info("collection exists", zap.String("collection", name))
		return nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

func isNamespaceExistsErr(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 48 { // NamespaceExists
		return true
	}
	return err != nil && strings.Contains(err.Error(), "NamespaceExists")
}

func isNoSuchCommand(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 59 { // CommandNotFound
		return true
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 238 { // NotImplemented
		return true
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "not implemented")
}

/* ------------------------------ schemas ----------------------------------- */

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"username", "username_ci", "created_at", "updated_at"},
			"properties": bson.M{
				"username":        bson.M{"bsonType": "string", "minLength": 3},
				"username_ci":     bson.M{"bsonType": "string", "minLength": 3},
				"community_code":  bson.M{"bsonType": "string"},
				"last_song_added": bson.M{"bsonType": "date"},
				"is_guest":        bson.M{"bsonType": "bool"},
				"created_at":      bson.M{"bsonType": "date"},
				"updated_at":      bson.M{"bsonType": "date"},
			},
		},
	}
}

func communitiesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"name", "code", "code_ci", "members", "created_at"},
			"properties": bson.M{
				"name":    bson.M{"bsonType": "string", "minLength": 3},
				"code":    bson.M{"bsonType": "string", "pattern": "^[A-Z]{1,4}[0-9]{4}$"},
				"code_ci": bson.M{"bsonType": "string"},
				// members >= 1: the creator always counts.
				"members":    bson.M{"bsonType": "int", "minimum": 1},
				"created_at": bson.M{"bsonType": "date"},
				"updated_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func songsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"title", "artist", "added_by", "added_by_id", "added_at", "community_code", "seq"},
			"properties": bson.M{
				"title":          bson.M{"bsonType": "string"},
				"artist":         bson.M{"bsonType": "string"},
				"album_art":      bson.M{"bsonType": "string"},
				"spotify_uri":    bson.M{"bsonType": "string"},
				"spotify_id":     bson.M{"bsonType": "string"},
				"youtube_url":    bson.M{"bsonType": "string"},
				"added_by":       bson.M{"bsonType": "string"},
				"added_by_id":    bson.M{"bsonType": "objectId"},
				"added_at":       bson.M{"bsonType": "date"},
				"mood":           bson.M{"bsonType": "string"},
				"community_code": bson.M{"bsonType": "string"},
				"seq":            bson.M{"bsonType": "long"},
			},
		},
	}
}
