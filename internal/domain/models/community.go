// internal/domain/models/community.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Community is a named group of users sharing one song feed, joinable by code.
//
// Code is assigned once at creation (uppercase name prefix + 4-digit suffix)
// and never changes. Members starts at 1 (the creator) and is only moved by
// the registry's atomic increment/decrement operations; it never drops below 1.
type Community struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"-"`
	Code   string             `bson:"code" json:"code"`
	CodeCI string             `bson:"code_ci" json:"-"` // lowercase, for hand-typed lookups

	Members int `bson:"members" json:"members"`

	CreatedAt time.Time `bson:"created_at" json:"creation_date"`
	UpdatedAt time.Time `bson:"updated_at" json:"-"`
}
