package stringpool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildDedupSortsAndDedups(t *testing.T) {
	pool, had := BuildDedup([]string{"bb", "aa", "bb", "cc"})
	require.True(t, had)
	require.Equal(t, 3, pool.Len())
	require.Equal(t, [][]byte{[]byte("aa"), []byte("bb"), []byte("cc")}, pool.All())
}

func TestBuildDedupReportsNoDuplicates(t *testing.T) {
	_, had := BuildDedup([]string{"aa", "bb"})
	require.False(t, had)
}

func TestFromSortedSetPanicsOnWidthMismatch(t *testing.T) {
	require.Panics(t, func() { FromSortedSet([]string{"aa", "b"}) })
}

func TestSearchFindsAndRejectsWrongWidth(t *testing.T) {
	pool := FromSortedSet([]string{"aa", "bb", "cc"})
	idx, ok := pool.Search([]byte("bb"))
	require.True(t, ok)
	require.Equal(t, 1, idx)

	_, ok = pool.Search([]byte("bbb"))
	require.False(t, ok)

	_, ok = pool.Search([]byte("zz"))
	require.False(t, ok)
}

func TestEmptyPool(t *testing.T) {
	pool, had := BuildDedup(nil)
	require.False(t, had)
	require.True(t, pool.Empty())
	require.Equal(t, 0, pool.Width())
}

func TestAtReturnsSortedPositions(t *testing.T) {
	pool := FromSortedSet([]string{"aa", "bb", "cc"})
	require.Equal(t, []byte("bb"), pool.At(1))
}
