// Package kv provides the synchronous key-value persistence used to keep
// credentials across process restarts.
//
// Every backend writes through: a Set or Remove has reached the backing
// medium by the time it returns.
package kv

// Store is a synchronous string key-value store. Get returns "" for a key
// that was never set or has been removed.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}
