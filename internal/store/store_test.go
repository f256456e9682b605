package store

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEntry_Expired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		expiry time.Time
		want   bool
	}{
		{"never expires", time.Time{}, false},
		{"in the future", now.Add(time.Millisecond), false},
		{"exactly now", now, true},
		{"in the past", now.Add(-time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Entry[string]{Value: "v", Expiry: tt.expiry}
			if got := e.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_PutGetDelete(t *testing.T) {
	require := require.New(t)

	s := New[string, int]()
	_, replaced := s.Put("a", Entry[int]{Value: 1})
	require.False(replaced)

	old, replaced := s.Put("a", Entry[int]{Value: 2})
	require.True(replaced)
	require.Equal(1, old.Value)

	e, ok := s.Get("a")
	require.True(ok)
	require.Equal(2, e.Value)
	require.Equal(1, s.Len())

	removed, ok := s.Delete("a")
	require.True(ok)
	require.Equal(2, removed.Value)
	require.False(s.Contains("a"))
	require.Zero(s.Len())

	_, ok = s.Delete("a")
	require.False(ok)
}

func TestStore_IterationOrder(t *testing.T) {
	require := require.New(t)

	s := New[string, string]()
	s.Put("k1", Entry[string]{Value: "v1"})
	s.Put("k2", Entry[string]{Value: "v2"})
	s.Put("k3", Entry[string]{Value: "v3"})

	// Replacing keeps the original position.
	s.Put("k1", Entry[string]{Value: "v1b"})
	require.Equal([]string{"k1", "k2", "k3"}, s.Keys())
	require.Equal([]string{"v1b", "v2", "v3"}, s.Values())

	s.Delete("k2")
	s.Put("k2", Entry[string]{Value: "v2b"})
	require.Equal([]string{"k1", "k3", "k2"}, s.Keys())
}

func TestStore_Clear(t *testing.T) {
	require := require.New(t)

	s := New[int, int]()
	for i := range 10 {
		s.Put(i, Entry[int]{Value: i})
	}
	s.Clear()

	require.Zero(s.Len())
	require.Empty(s.Keys())
	require.Empty(s.Values())

	_, ok := s.Sample(rand.New(rand.NewPCG(1, 2)))
	require.False(ok)
}

func TestStore_Sample(t *testing.T) {
	require := require.New(t)
	r := rand.New(rand.NewPCG(7, 11))

	s := New[int, int]()
	_, ok := s.Sample(r)
	require.False(ok)

	for i := range 8 {
		s.Put(i, Entry[int]{Value: i})
	}
	// Remove from the middle and the end to exercise swap-removal.
	s.Delete(3)
	s.Delete(7)

	seen := make(map[int]int)
	for range 2000 {
		k, ok := s.Sample(r)
		require.True(ok)
		require.True(s.Contains(k), "sampled key %d not in store", k)
		seen[k]++
	}
	require.Len(seen, 6)
}

func TestStore_DenseIndexConsistency(t *testing.T) {
	require := require.New(t)
	r := rand.New(rand.NewPCG(3, 5))

	s := New[int, int]()
	live := make(map[int]bool)
	for range 5000 {
		k := r.IntN(64)
		if r.IntN(3) == 0 {
			s.Delete(k)
			delete(live, k)
		} else {
			s.Put(k, Entry[int]{Value: k})
			live[k] = true
		}

		require.Equal(len(live), s.Len())
		require.Len(s.dense, s.Len())
		for i, key := range s.dense {
			require.Equal(i, s.slots[key].index)
		}
	}
}

func TestStore_NilInterfaceKey(t *testing.T) {
	require := require.New(t)
	s := New[any, string]()

	s.Put(nil, Entry[string]{Value: "nil"})
	s.Put(1, Entry[string]{Value: "one"})

	require.Equal([]any{nil, 1}, s.Keys())
	require.Equal([]string{"nil", "one"}, s.Values())

	_, ok := s.Delete(nil)
	require.True(ok)
	require.Equal([]any{1}, s.Keys())
}
