// Package resolve maps owned items and logical units to external catalog
// identifiers. The chain tries a provider-supplied cross-reference ID
// first, then falls back to a title search with fuzzy ranking. Unresolved
// units are not errors; callers record them as unmatched.
package resolve
