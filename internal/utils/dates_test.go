package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{
		"2026-03-15",
		"15.03.2026",
		"2026/03/15",
		"2026-03-15T18:45:00Z",
		"  2026-03-15  ",
	} {
		got := ParseDate(in)
		require.NotNil(t, got, "input %q", in)
		assert.True(t, got.Equal(want), "input %q parsed as %s", in, got)
	}
}

func TestParseDate_invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "not-a-date", "15/03/2026", "2026-13-40"} {
		assert.Nil(t, ParseDate(in), "input %q", in)
	}
}
