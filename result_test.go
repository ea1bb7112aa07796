package deskew

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptional(t *testing.T) {
	v, ok := Some(1.5).Get()
	require.True(t, ok)
	require.Equal(t, 1.5, v)
	require.Equal(t, "1.5", Some(1.5).String())

	empty := None[float64]()
	require.False(t, empty.Valid())
	require.Equal(t, 7.0, empty.OrElse(7))
	require.Equal(t, "", empty.String())
}

func TestResultSetOrdering(t *testing.T) {
	set := NewResultSet([]Result{
		{Path: "b.pdf", Page: Some(3)},
		{Path: "a.png"},
		{Path: "b.pdf", Page: Some(1)},
		{Path: "b.pdf", Page: Some(2), Angle: Some(0.4)},
	})
	require.Equal(t, []string{"b.pdf", "a.png"}, set.Files)
	pages := []int{}
	for _, r := range set.Results("b.pdf") {
		pages = append(pages, r.Page.OrElse(0))
	}
	require.Equal(t, []int{1, 2, 3}, pages)
	require.Len(t, set.Results("a.png"), 1)
	require.True(t, set.Results("a.png")[0].Undetermined())
	require.False(t, set.Results("b.pdf")[1].Undetermined())

	filtered := set.Filter([]string{"a.png", "missing"})
	require.Equal(t, []string{"a.png"}, filtered.Files)
	require.Nil(t, filtered.Results("b.pdf"))
}
