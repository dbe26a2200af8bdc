// Command lacuna reports how complete a media library is: which
// episodes, collection members, and albums a library owns versus what
// the TMDB and MusicBrainz catalogs say exists.
package main
