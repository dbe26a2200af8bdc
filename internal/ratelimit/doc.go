// Package ratelimit bounds the outbound request rate to external catalog
// services. Two policies share one interface: even spacing between
// dispatches for catalogs with strict per-second caps, and a sliding
// window for catalogs that tolerate bursts.
package ratelimit
