package asset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromName(t *testing.T) {
	nam := FromName("NAM")
	assert.Equal(t, nam, FromName("NAM"))
	assert.NotEqual(t, nam, FromName("ZEC"))

	parsed, err := ParseType(nam.String())
	require.NoError(t, err)
	assert.Equal(t, nam, parsed)

	_, err = ParseType("abcd")
	assert.Error(t, err)
}

func TestValueSum(t *testing.T) {
	nam, zec := FromName("NAM"), FromName("ZEC")

	s := ValueSum{}
	require.NoError(t, s.Add(nam, 5))
	require.NoError(t, s.Sub(zec, 3))
	require.NoError(t, s.Add(zec, 3))

	assert.Equal(t, ValueSum{nam: 5}, s)
	assert.Equal(t, []Type{nam}, s.Assets())
	assert.False(t, s.IsZero())

	require.NoError(t, s.Sub(nam, 5))
	assert.True(t, s.IsZero())
	assert.Empty(t, s)
}

func TestValueSumOverflow(t *testing.T) {
	nam := FromName("NAM")

	s := ValueSum{nam: math.MaxInt64}
	assert.ErrorIs(t, s.Add(nam, 1), ErrOverflow)
	assert.Equal(t, int64(math.MaxInt64), s[nam], "failed add leaves the sum unchanged")

	s = ValueSum{nam: math.MinInt64 + 1}
	assert.ErrorIs(t, s.Sub(nam, 2), ErrOverflow)
	assert.ErrorIs(t, ValueSum{}.Sub(nam, math.MinInt64), ErrOverflow)
}

func TestValueSumMergeAndEqual(t *testing.T) {
	nam, zec := FromName("NAM"), FromName("ZEC")

	a := ValueSum{nam: 2, zec: -1}
	b := ValueSum{zec: 1}
	require.NoError(t, a.Merge(b))
	assert.True(t, a.Equal(ValueSum{nam: 2}))
	assert.False(t, a.Equal(ValueSum{nam: 3}))

	c := a.Clone()
	c[nam] = 7
	assert.Equal(t, int64(2), a[nam])
}

func TestAmount(t *testing.T) {
	v, err := Amount(3, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(12), v)

	_, err = Amount(math.MaxUint64, 2)
	assert.ErrorIs(t, err, ErrOverflow)
	_, err = Amount(1<<63, 1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestResolve(t *testing.T) {
	nam := FromName("NAM")

	got, err := Resolve("NAM")
	require.NoError(t, err)
	assert.Equal(t, nam, got)

	got, err = Resolve(nam.String())
	require.NoError(t, err)
	assert.Equal(t, nam, got)

	_, err = Resolve("")
	assert.Error(t, err)
}
