package log

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.WarnLevel, parseLevel("WARN", true))
	require.Equal(t, zerolog.ErrorLevel, parseLevel(" error ", false))
	require.Equal(t, zerolog.InfoLevel, parseLevel("", true))
	require.Equal(t, zerolog.DebugLevel, parseLevel("", false))
	require.Equal(t, zerolog.DebugLevel, parseLevel("verbose", false))
}
