package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestRelativeAge verifies the age buckets and singular/plural wording.
func TestRelativeAge(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"under a minute", 30 * time.Second, "just now"},
		{"exactly one minute", time.Minute, "1 minute ago"},
		{"several minutes", 45 * time.Minute, "45 minutes ago"},
		{"one hour", 90 * time.Minute, "1 hour ago"},
		{"several hours", 5 * time.Hour, "5 hours ago"},
		{"one day", 30 * time.Hour, "1 day ago"},
		{"several days", 9 * 24 * time.Hour, "9 days ago"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RelativeAge(now.Add(-tc.ago), now))
		})
	}
}
