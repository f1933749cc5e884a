package syncx

import "sync"

// KeyedMutex is a lock table granting exclusive access per string key.
// Operations on different keys never contend; entries are reference-counted
// and dropped from the table when the last holder unlocks, so an unbounded
// stream of short-lived keys does not leak.
type KeyedMutex struct {
	entries map[string]*keyedEntry
	mu      sync.Mutex
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*keyedEntry)}
}

// Lock acquires the mutex for key and returns the matching unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.entries[key]
	if !ok {
		entry = &keyedEntry{}
		k.entries[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
