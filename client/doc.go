// Package client is the local-first side of the tracker: an in-process
// mirror of every collection (Cache), a coalescing push queue (SyncQueue)
// and a bulk re-fetch path (Replica) over the gateway's HTTP API.
//
// Consistency model: a Set is visible to readers immediately and pushed to
// the server best-effort afterwards. Collections travel whole, so the last
// successful sync for a key fully supersedes earlier state — two clients
// editing different records of the same collection concurrently will lose
// one side's change. That is a known gap of the whole-collection sync unit,
// not something this package resolves.
package client
