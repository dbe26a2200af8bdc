// Package catalog provides the shared plumbing for external catalog
// clients: a TTL response cache keyed by request signature, rate-limited
// and concurrency-capped HTTP fetching with hard per-request timeouts,
// error classification, and retry with exponential backoff for catalogs
// with strict request caps.
package catalog
