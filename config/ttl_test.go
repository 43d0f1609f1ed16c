package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTTL(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
	}{
		{"30m", 30 * time.Minute},
		{"2h", 2 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"1d", 24 * time.Hour},
		{"0h", 0},
		{" 15m ", 15 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := ParseTTL(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestParseTTL_Invalid(t *testing.T) {
	for _, input := range []string{"", "h", "7", "7w", "-2h", "2.5h", "seven days"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseTTL(input)
			require.Error(t, err)
		})
	}
}

func TestTTL_String(t *testing.T) {
	tests := []struct {
		ttl      TTL
		expected string
	}{
		{TTL(2 * time.Hour), "2h"},
		{TTL(7 * 24 * time.Hour), "7d"},
		{TTL(30 * time.Minute), "30m"},
		{TTL(90 * time.Minute), "90m"},
		{TTL(time.Hour + 30*time.Second), "1h0m30s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.ttl.String())
	}
}

func TestTTL_UnmarshalText(t *testing.T) {
	var ttl TTL
	require.NoError(t, ttl.UnmarshalText([]byte("2h")))
	assert.Equal(t, 2*time.Hour, ttl.Duration())

	require.Error(t, ttl.UnmarshalText([]byte("bogus")))
}
