// file: internal/entity/externalids.go
// version: 1.1.0
// guid: 8c2d4e6f-1a3b-4c5d-9e7f-0a1b2c3d4e5f

package entity

import (
	"regexp"
	"strings"
)

// ExternalIDType is a closed enumeration of external catalog identifiers a
// resolved entity can carry.
type ExternalIDType string

const (
	IDIMDB              ExternalIDType = "imdb"
	IDTMDB              ExternalIDType = "tmdb"
	IDGoodreads         ExternalIDType = "goodreads"
	IDOpenLibrary       ExternalIDType = "openlibrary"
	IDSteam             ExternalIDType = "steam"
	IDBGG               ExternalIDType = "bgg"
	IDSpotifyAlbum      ExternalIDType = "spotify_album"
	IDSpotifyTrack      ExternalIDType = "spotify_track"
	IDSpotifyArtist     ExternalIDType = "spotify_artist"
	IDMusicBrainzGroup  ExternalIDType = "musicbrainz_release_group"
)

// externalIDSpec describes one external identifier: the Wikidata property it
// is read from, an optional canonical URL template with an {id} placeholder,
// and the pattern a valid id must match.
type externalIDSpec struct {
	Property    string
	URLTemplate string
	IDPattern   *regexp.Regexp
}

var externalIDTable = map[ExternalIDType]externalIDSpec{
	IDIMDB: {
		Property:    "P345",
		URLTemplate: "https://www.imdb.com/title/{id}/",
		IDPattern:   regexp.MustCompile(`^tt\d+$`),
	},
	IDTMDB: {
		Property:    "P4947",
		URLTemplate: "https://www.themoviedb.org/movie/{id}",
		IDPattern:   regexp.MustCompile(`^\d+$`),
	},
	IDGoodreads: {
		Property:    "P2969",
		URLTemplate: "https://www.goodreads.com/book/show/{id}",
		IDPattern:   regexp.MustCompile(`^\d+$`),
	},
	IDOpenLibrary: {
		Property:    "P648",
		URLTemplate: "https://openlibrary.org/works/{id}",
		IDPattern:   regexp.MustCompile(`^OL\d+[WM]$`),
	},
	IDSteam: {
		Property:    "P1733",
		URLTemplate: "https://store.steampowered.com/app/{id}/",
		IDPattern:   regexp.MustCompile(`^\d+$`),
	},
	IDBGG: {
		Property:    "P2339",
		URLTemplate: "https://boardgamegeek.com/boardgame/{id}",
		IDPattern:   regexp.MustCompile(`^\d+$`),
	},
	IDSpotifyAlbum: {
		Property:    "P2205",
		URLTemplate: "https://open.spotify.com/album/{id}",
		IDPattern:   regexp.MustCompile(`^[0-9A-Za-z]{22}$`),
	},
	IDSpotifyTrack: {
		Property:    "P2207",
		URLTemplate: "https://open.spotify.com/track/{id}",
		IDPattern:   regexp.MustCompile(`^[0-9A-Za-z]{22}$`),
	},
	IDSpotifyArtist: {
		Property:    "P1902",
		URLTemplate: "https://open.spotify.com/artist/{id}",
		IDPattern:   regexp.MustCompile(`^[0-9A-Za-z]{22}$`),
	},
	IDMusicBrainzGroup: {
		Property: "P436",
		URLTemplate: "https://musicbrainz.org/release-group/{id}",
		IDPattern: regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`),
	},
}

// AllExternalIDTypes lists every external id type in a stable order.
var AllExternalIDTypes = []ExternalIDType{
	IDIMDB, IDTMDB, IDGoodreads, IDOpenLibrary, IDSteam, IDBGG,
	IDSpotifyAlbum, IDSpotifyTrack, IDSpotifyArtist, IDMusicBrainzGroup,
}

// WikidataProperty returns the Wikidata property id (Pnnn) for an external id
// type, or "" if the type is unknown.
func (t ExternalIDType) WikidataProperty() string {
	return externalIDTable[t].Property
}

// ValidID reports whether the raw identifier matches the per-source pattern
// for this id type. Unknown types never validate.
func (t ExternalIDType) ValidID(id string) bool {
	spec, ok := externalIDTable[t]
	if !ok || spec.IDPattern == nil {
		return false
	}
	return spec.IDPattern.MatchString(id)
}

// BuildCanonicalURL substitutes the id into the URL template for the given
// external id type. The second return value is false when the type has no
// template or the id fails validation.
func BuildCanonicalURL(idType ExternalIDType, id string) (string, bool) {
	spec, ok := externalIDTable[idType]
	if !ok || spec.URLTemplate == "" {
		return "", false
	}
	if !spec.IDPattern.MatchString(id) {
		return "", false
	}
	return strings.ReplaceAll(spec.URLTemplate, "{id}", id), true
}

// preferredIDOrder ranks external id types per entity type when choosing the
// canonical URL for a Wikidata-resolved entity.
var preferredIDOrder = map[Type][]ExternalIDType{
	TypeMovie:        {IDIMDB, IDTMDB},
	TypeTVShow:       {IDIMDB, IDTMDB},
	TypeBook:         {IDGoodreads, IDOpenLibrary},
	TypeVideoGame:    {IDSteam},
	TypePhysicalGame: {IDBGG},
	TypeAlbum:        {IDSpotifyAlbum, IDMusicBrainzGroup},
	TypeSong:         {IDSpotifyTrack},
	TypeArtist:       {IDSpotifyArtist},
}

// PreferredIDTypes returns the external id types to try, most authoritative
// first, when deriving a canonical URL for the given entity type. Types with
// no listed preference fall back to the full table order.
func PreferredIDTypes(t Type) []ExternalIDType {
	if order, ok := preferredIDOrder[t]; ok {
		return order
	}
	return AllExternalIDTypes
}
