package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTruthy(t *testing.T) {
	for _, raw := range []string{"yes", "YES", " true ", "1", "y", "Y"} {
		assert.True(t, IsTruthy(raw), raw)
	}
	for _, raw := range []string{"", "no", "0", "false", "opted in", "n"} {
		assert.False(t, IsTruthy(raw), raw)
	}
}

func TestContactNormalizers(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
	assert.Equal(t, "5551234567", DigitsOnly("(555) 123-4567"))
	assert.Equal(t, "", DigitsOnly("n/a"))
	assert.Equal(t, "ACME COFFEE", NameKey("  Acme Coffee "))
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{raw: "03-Aug-2025 09:15 AM PST", want: time.Date(2025, 8, 3, 9, 15, 0, 0, time.UTC)},
		{raw: "03-Aug-2025 09:15 PM", want: time.Date(2025, 8, 3, 21, 15, 0, 0, time.UTC)},
		{raw: "2025-07-01", want: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)},
		{raw: "2025-07-01 13:45:00", want: time.Date(2025, 7, 1, 13, 45, 0, 0, time.UTC)},
		{raw: "07/12/2025", want: time.Date(2025, 7, 12, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseTimestamp(tt.raw)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %s", got)
		})
	}
}

func TestParseTimestampInvalid(t *testing.T) {
	assert.Nil(t, ParseTimestamp(""))
	assert.Nil(t, ParseTimestamp("   "))
	assert.Nil(t, ParseTimestamp("yesterday"))
}
