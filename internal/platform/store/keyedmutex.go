// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

package store

import "sync"

// keyedMutex hands out a per-key critical section backed by a shared
// registry, mirroring the in-process lock layer the lockfile registry
// pattern uses underneath its cross-process flock.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Lock blocks until the named key's mutex is held and returns a function
// that releases it.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
