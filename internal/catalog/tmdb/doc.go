// Package tmdb provides typed operations against The Movie Database API:
// movie and TV search, external-ID cross-reference lookups, movie and
// collection details, and batched season fetches.
package tmdb
