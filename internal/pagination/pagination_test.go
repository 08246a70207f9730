package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromQueryDefaults(t *testing.T) {
	p := FromQuery("", "", 20)
	require.Equal(t, Page{Page: 1, Limit: 20, Offset: 0}, p)

	p = FromQuery("abc", "-3", 10)
	require.Equal(t, Page{Page: 1, Limit: 10, Offset: 0}, p)
}

func TestFromQueryCapsLimit(t *testing.T) {
	p := FromQuery("3", "500", 20)
	require.Equal(t, MaxLimit, p.Limit)
	require.Equal(t, 200, p.Offset)
}

func TestFromQueryCapsPage(t *testing.T) {
	p := FromQuery("9223372036854775807", "100", 20)
	require.Equal(t, MaxPage, p.Page)
	require.GreaterOrEqual(t, p.Offset, 0)
	require.Equal(t, (MaxPage-1)*MaxLimit, p.Offset)

	p = FromQuery("9223372036854775807", "7", 20)
	require.GreaterOrEqual(t, p.Offset, 0)
}

func TestPages(t *testing.T) {
	p := New(1, 20, 0)
	require.Equal(t, 0, p.Pages(0))
	require.Equal(t, 1, p.Pages(20))
	require.Equal(t, 2, p.Pages(21))
}

func TestNewResultNeverNilData(t *testing.T) {
	res := NewResult[int](New(2, 5, 0), nil, 12)
	require.NotNil(t, res.Data)
	require.Equal(t, 12, res.Total)
	require.Equal(t, 2, res.Page)
	require.Equal(t, 3, res.Pages)
}
