// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemStore(t *testing.T) {
	store, err := NewMemStore()
	assert.Nil(t, err)
	defer store.Close()

	key := []byte("key")
	value := []byte("value")

	_, err = store.Get(key)
	assert.True(t, store.IsNotFound(err))

	assert.Nil(t, store.Put(key, value))
	v, err := store.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, value, v)

	has, err := store.Has(key)
	assert.Nil(t, err)
	assert.True(t, has)

	assert.Nil(t, store.Delete(key))
	has, err = store.Has(key)
	assert.Nil(t, err)
	assert.False(t, has)
}

func TestBatchAndIterator(t *testing.T) {
	store, err := NewMemStore()
	assert.Nil(t, err)
	defer store.Close()

	batch := store.NewBatch()
	batch.Put([]byte("a1"), []byte("1"))
	batch.Put([]byte("a2"), []byte("2"))
	batch.Put([]byte("b1"), []byte("3"))
	assert.Equal(t, 3, batch.Len())
	assert.Nil(t, batch.Write())

	it := store.NewIterator(Range{Start: []byte("a"), Limit: []byte("b")})
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	assert.Nil(t, it.Error())
	assert.Equal(t, []string{"a1", "a2"}, keys)
}
