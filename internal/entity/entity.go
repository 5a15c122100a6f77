// file: internal/entity/entity.go
// version: 1.2.0
// guid: 3f8a1b2c-9d4e-4f5a-8b6c-7d0e1f2a3b4c

package entity

import (
	"crypto/rand"
	"fmt"
	"time"

	ulid "github.com/oklog/ulid/v2"
)

// Type is a closed enumeration of the kinds of cultural/media entities the
// resolver understands.
type Type string

const (
	TypeMovie        Type = "movie"
	TypeTVShow       Type = "tv_show"
	TypeBook         Type = "book"
	TypeVideoGame    Type = "video_game"
	TypePhysicalGame Type = "physical_game"
	TypeAlbum        Type = "album"
	TypeSong         Type = "song"
	TypePodcast      Type = "podcast"
	TypeArtist       Type = "artist"
	TypeOther        Type = "other"
)

// AllTypes lists every valid entity type in declaration order.
var AllTypes = []Type{
	TypeMovie, TypeTVShow, TypeBook, TypeVideoGame, TypePhysicalGame,
	TypeAlbum, TypeSong, TypePodcast, TypeArtist, TypeOther,
}

// ParseType converts a string into a Type, rejecting unknown values.
func ParseType(s string) (Type, error) {
	for _, t := range AllTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// Valid reports whether t is one of the closed set of entity types.
func (t Type) Valid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Source identifies which pipeline stage produced a resolved entity.
type Source string

const (
	SourceWikidata    Source = "wikidata"
	SourceOpenLibrary Source = "openlibrary"
	SourceGoogle      Source = "google"
	SourceHeuristic   Source = "heuristic"
	SourceAI          Source = "ai"
)

// Resolved is the final output of the resolution pipeline. URL is always
// non-empty on a successful resolution.
type Resolved struct {
	ID           string                    `json:"id"`
	Source       Source                    `json:"source"`
	Title        string                    `json:"title"`
	URL          string                    `json:"url"`
	Type         Type                      `json:"type"`
	Year         *int                      `json:"year,omitempty"`
	Description  *string                   `json:"description,omitempty"`
	ImageURL     *string                   `json:"image_url,omitempty"`
	WikipediaURL *string                   `json:"wikipedia_url,omitempty"`
	ExternalIDs  map[ExternalIDType]string `json:"external_ids,omitempty"`
}

// NewID generates a fresh ULID for a resolved entity.
func NewID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
