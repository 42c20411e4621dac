package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTogglesOff(t *testing.T) {
	var refreshes []Query
	c := New(func(q Query) { refreshes = append(refreshes, q) })

	require.NoError(t, c.Apply(Status, "pending"))
	assert.Equal(t, "pending", c.Active(Status))

	require.NoError(t, c.Apply(Status, "pending"))
	assert.Equal(t, "", c.Active(Status))
	assert.Empty(t, c.Query())

	require.Len(t, refreshes, 2, "clearing must still refresh")
	assert.Equal(t, Query{{Status, "pending"}}, refreshes[0])
	assert.Empty(t, refreshes[1])
}

func TestApplyReplaces(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Apply(Status, "pending"))
	require.NoError(t, c.Apply(Status, "closed"))
	assert.Equal(t, Query{{Status, "closed"}}, c.Query())
}

func TestDimensionsIndependent(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Apply(Type, "found"))
	require.NoError(t, c.Apply(Section, "IT-B"))
	require.NoError(t, c.Apply(Time, "this_week"))
	require.NoError(t, c.Apply(Status, "match_found"))

	// Toggling one dimension leaves the others alone.
	require.NoError(t, c.Apply(Time, "this_week"))

	assert.Equal(t, Query{
		{Section, "IT-B"},
		{Status, "match_found"},
		{Type, "found"},
	}, c.Query())
}

func TestQueryOrderIsStable(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Apply(Type, "lost"))
	require.NoError(t, c.Apply(Status, "pending"))
	require.NoError(t, c.Apply(Time, "today"))
	require.NoError(t, c.Apply(Section, "IT-A"))

	want := Query{{Section, "IT-A"}, {Time, "today"}, {Status, "pending"}, {Type, "lost"}}
	for i := 0; i < 5; i++ {
		assert.Equal(t, want, c.Query())
	}
	assert.Equal(t, "today", c.Query().Get(Time))
	assert.Equal(t, "", Query{}.Get(Time))
}

func TestClearAll(t *testing.T) {
	calls := 0
	c := New(func(Query) { calls++ })
	require.NoError(t, c.Apply(Section, "IT-C"))
	require.NoError(t, c.Apply(Type, "lost"))
	calls = 0

	c.ClearAll()
	assert.Equal(t, 1, calls)
	assert.Empty(t, c.Query())
	for _, d := range Dimensions {
		assert.Equal(t, "", c.Active(d), "dimension %s", d)
	}
}

func TestApplyRejectsUnknown(t *testing.T) {
	calls := 0
	c := New(func(Query) { calls++ })
	v := c.Version()

	err := c.Apply("colour", "red")
	assert.True(t, errors.Is(err, ErrUnknownDimension), "got %v", err)

	err = c.Apply(Section, "IT-Z")
	assert.True(t, errors.Is(err, ErrInvalidValue), "got %v", err)

	assert.Equal(t, 0, calls)
	assert.Equal(t, v, c.Version())
}

func TestVersionIncrements(t *testing.T) {
	c := New(nil)
	assert.Equal(t, uint64(0), c.Version())
	require.NoError(t, c.Apply(Type, "lost"))
	require.NoError(t, c.Apply(Type, "lost"))
	c.ClearAll()
	assert.Equal(t, uint64(3), c.Version())
}

func TestValuesIsACopy(t *testing.T) {
	v := Values(Type)
	v[0] = "mutated"
	assert.Equal(t, []string{"lost", "found"}, Values(Type))
}
