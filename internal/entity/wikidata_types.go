// file: internal/entity/wikidata_types.go
// version: 1.0.0
// guid: 5b0c2d4e-6f8a-4b1c-8d3e-5f7a9b1c3d5e

package entity

// wikidataTypeQIDs restricts Wikidata lookups to items whose class matches
// the entity type. Types absent from the table search unrestricted.
var wikidataTypeQIDs = map[Type][]string{
	TypeMovie:        {"Q11424"},              // film
	TypeTVShow:       {"Q5398426", "Q15416"},  // television series, television program
	TypeBook:         {"Q7725634", "Q47461344"}, // literary work, written work
	TypeVideoGame:    {"Q7889"},               // video game
	TypePhysicalGame: {"Q131436", "Q142714"},  // board game, card game
	TypeAlbum:        {"Q482994"},             // album
	TypeSong:         {"Q7366", "Q134556"},    // song, single
	TypePodcast:      {"Q24634210"},           // podcast
	TypeArtist:       {"Q215380"},             // musical group
}

// WikidataTypeQIDs returns the class QIDs that constrain a Wikidata search
// for the given entity type, or nil when the search should be unrestricted.
func WikidataTypeQIDs(t Type) []string {
	return wikidataTypeQIDs[t]
}
