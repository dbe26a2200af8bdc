// Package completeness is the analysis engine: it reconciles owned
// library items against the TMDB and MusicBrainz catalogs and persists
// one completeness record per logical unit (series, collection, artist
// discography, album).
//
// Analysis runs in enumeration-order batches with bounded concurrency
// inside each batch. Progress is checkpointed to the library store at a
// configured interval, so a cancelled run keeps everything committed up
// to the last checkpoint. Only one run may be active per engine.
package completeness
