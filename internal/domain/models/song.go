// internal/domain/models/song.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Song is one submission to a community feed. Track metadata is an immutable
// snapshot of the search-provider result at submission time, and AddedBy /
// AddedByID snapshot the submitting user; later renames do not rewrite
// history. Songs are append-only: created by the submission service, never
// mutated or deleted.
type Song struct {
	ID  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Seq int64              `bson:"seq" json:"-"` // insertion sequence, feed tiebreak

	Title      string `bson:"title" json:"title"`
	Artist     string `bson:"artist" json:"artist"`
	AlbumArt   string `bson:"album_art" json:"albumArt"`
	SpotifyURI string `bson:"spotify_uri" json:"spotifyUri"`
	SpotifyID  string `bson:"spotify_id" json:"spotifyId"`
	YoutubeURL string `bson:"youtube_url,omitempty" json:"youtubeUrl,omitempty"`

	AddedBy   string             `bson:"added_by" json:"addedBy"`
	AddedByID primitive.ObjectID `bson:"added_by_id" json:"addedById"`
	AddedAt   time.Time          `bson:"added_at" json:"addedAt"`

	Mood          string `bson:"mood,omitempty" json:"mood,omitempty"`
	CommunityCode string `bson:"community_code" json:"communityCode"`
}
