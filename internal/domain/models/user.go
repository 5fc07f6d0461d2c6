// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a member identity keyed by a human-chosen username.
//
// NOTE:
//   - Username uniqueness is enforced by a unique index on UsernameCI,
//     not by using the username as the document _id. The _id stays a
//     synthetic ObjectID so the case policy never leaks into storage keys.
//   - CommunityCode is mutated only by the membership service;
//     LastSongAdded only by the submission service.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username   string             `bson:"username" json:"username"`
	UsernameCI string             `bson:"username_ci" json:"-"` // lowercase, diacritics-stripped

	CommunityCode string     `bson:"community_code,omitempty" json:"community_code,omitempty"`
	LastSongAdded *time.Time `bson:"last_song_added,omitempty" json:"last_song_added,omitempty"`
	IsGuest       bool       `bson:"is_guest,omitempty" json:"is_guest,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
