// Package dedup collapses duplicate owned items before analysis.
//
// Libraries frequently hold the same movie from several providers or in
// several qualities. Counting each copy would inflate ownership, so the
// analyzers first reduce items to distinct logical units keyed by their
// resolved external IDs. Items that cannot be resolved keep their own
// entry rather than being guessed into a group.
package dedup
