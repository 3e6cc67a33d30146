// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cache provides a small LRU wrapper with load-through reads.
package cache

import lru "github.com/hashicorp/golang-lru"

// LRU extends golang-lru with a load-through accessor.
type LRU struct {
	*lru.Cache
}

// NewLRU creates an LRU cache holding up to maxSize entries.
func NewLRU(maxSize int) (*LRU, error) {
	cache, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &LRU{cache}, nil
}

// Loader loads the value for a missing key.
type Loader func(key interface{}) (interface{}, error)

// GetOrLoad returns the cached value, loading and caching it on a miss.
// Load errors are returned as-is and nothing is cached.
func (l *LRU) GetOrLoad(key interface{}, loader Loader) (interface{}, error) {
	if v, ok := l.Get(key); ok {
		return v, nil
	}
	v, err := loader(key)
	if err != nil {
		return nil, err
	}
	l.Add(key, v)
	return v, nil
}
