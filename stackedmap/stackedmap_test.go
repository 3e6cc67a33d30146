// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agoralabs/agora/stackedmap"
)

func M(a ...interface{}) []interface{} {
	return a
}

func TestStackedMap(t *testing.T) {
	assert := assert.New(t)
	src := make(map[string]string)
	src["foo"] = "bar"

	sm := stackedmap.New(func(key interface{}) (interface{}, bool) {
		v, r := src[key.(string)]
		return v, r
	})

	tests := []struct {
		f         func()
		depth     int
		putKey    string
		putValue  string
		getKey    string
		getReturn []interface{}
	}{
		{func() {}, 0, "", "", "foo", []interface{}{"bar", true}},
		{func() { sm.Push() }, 1, "foo", "baz", "foo", []interface{}{"baz", true}},
		{func() {}, 1, "foo", "baz1", "foo", []interface{}{"baz1", true}},
		{func() { sm.Push() }, 2, "foo", "qux", "foo", []interface{}{"qux", true}},
		{func() { sm.Pop() }, 1, "", "", "foo", []interface{}{"baz1", true}},
		{func() { sm.Pop() }, 0, "", "", "foo", []interface{}{"bar", true}},

		{func() { sm.Push(); sm.Push() }, 2, "", "", "", nil},
		{func() { sm.PopTo(0) }, 0, "", "", "", nil},
	}

	for _, test := range tests {
		test.f()
		assert.Equal(sm.Depth(), test.depth)
		if test.putKey != "" {
			sm.Put(test.putKey, test.putValue)
		}
		if test.getKey != "" {
			assert.Equal(M(sm.Get(test.getKey)), test.getReturn)
		}
	}
}

func TestStackedMapPuts(t *testing.T) {
	assert := assert.New(t)
	sm := stackedmap.New(func(_ interface{}) (interface{}, bool) {
		return nil, false
	})

	kvs := []struct {
		k, v string
	}{
		{"a", "b"},
		{"a", "b"},
		{"a1", "b1"},
		{"a2", "b2"},
		{"a3", "b3"},
		{"a4", "b4"},
	}

	for _, kv := range kvs {
		sm.Push()
		sm.Put(kv.k, kv.v)
	}

	journal := sm.Journal()
	assert.Len(journal, len(kvs))
	for i, entry := range journal {
		assert.Equal(kvs[i].k, entry.Key)
		assert.Equal(kvs[i].v, entry.Value)
	}
}

func TestRepeatedPutsOneLevel(t *testing.T) {
	assert := assert.New(t)
	sm := stackedmap.New(func(_ interface{}) (interface{}, bool) {
		return nil, false
	})

	sm.Push()
	sm.Put("k", "v0")

	// repeated puts at one level must not desync revisions across pops
	sm.Push()
	sm.Put("k", "v1")
	sm.Put("k", "v2")
	sm.Put("k", "v3")

	v, ok := sm.Get("k")
	assert.True(ok)
	assert.Equal("v3", v)

	sm.Pop()
	v, ok = sm.Get("k")
	assert.True(ok)
	assert.Equal("v0", v)

	sm.Pop()
	_, ok = sm.Get("k")
	assert.False(ok)
	assert.Zero(sm.Depth())
}
