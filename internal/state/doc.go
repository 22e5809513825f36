// Package state holds the in-memory state of each record collection.
//
// # Overview
//
// A Collection is instantiated once per record type and tracks the last
// listed page, the search term, the current detail record and a status shared
// by every operation. Each operation kind also has its own phase:
//
//	Idle -> Pending -> Fulfilled | Rejected
//
// # Mutations
//
//	List      -> replaces Items and Pagination; failure keeps both
//	FetchOne  -> sets Current, unless the id is no longer wanted
//	Create    -> appends the server's entity
//	Update    -> replaces the entity with the same id, if present
//	Delete    -> removes the entity with the same id
//	Upload*, Link*, Unlink* -> status only
//
// SetSearchQuery never fetches. Callers read the term back and call List.
//
// # Concurrency
//
// The accessor is called without holding the lock, so the UI can snapshot
// while a request is in flight. Snapshot returns copies of the items, the
// current record and the phase map.
package state
