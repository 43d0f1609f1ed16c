package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TTL is a duration that accepts the compact label forms used in the
// environment: "{N}m", "{N}h" and "{N}d" (minutes, hours, days).
type TTL time.Duration

func (t *TTL) UnmarshalText(text []byte) error {
	d, err := ParseTTL(string(text))
	if err != nil {
		return err
	}
	*t = TTL(d)
	return nil
}

func (t TTL) Duration() time.Duration {
	return time.Duration(t)
}

// String renders the TTL back into its compact label form. Durations
// that do not divide evenly fall back to time.Duration formatting.
func (t TTL) String() string {
	d := time.Duration(t)
	switch {
	case d >= 24*time.Hour && d%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return d.String()
	}
}

func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid TTL %q: expected forms like 30m, 2h or 7d", s)
	}

	unit := s[len(s)-1]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid TTL %q: expected forms like 30m, 2h or 7d", s)
	}

	switch unit {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid TTL unit %q: supported units are m, h, d", string(unit))
	}
}
