package logging_test

import (
	"bytes"
	"testing"

	"github.com/jrsteele09/go-user-admin/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetupWriter(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	logging.SetupWriter(&buf, "warn", false)

	log.Info().Msg("hidden")
	log.Warn().Str("user", "ali@example.com").Msg("shown")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, `"message":"shown"`)
	require.Contains(t, out, `"user":"ali@example.com"`)
}

func TestSetupWriterUnknownLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	logging.SetupWriter(&buf, "chatty", false)
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
