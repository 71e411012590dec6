package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSetupLoggerVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		expected  zerolog.Level
	}{
		{0, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{2, zerolog.DebugLevel},
		{3, zerolog.TraceLevel},
		{9, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		SetupLogger(tt.verbosity)
		assert.Equal(t, tt.expected, zerolog.GlobalLevel())
	}
}

func TestGetLogger(t *testing.T) {
	logger := GetLogger("scanner")
	// The component logger must be usable without panicking.
	logger.Debug().Msg("test message")
}
