package customers

import (
	"testing"
	"time"

	"github.com/andresuchdata/platform-analytics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestDedupPrefersMostRecentRowPerID(t *testing.T) {
	rows := []domain.Customer{
		{CustomerID: "42", Email: "old@example.com", CustomerSince: day(2025, 8, 1)},
		{CustomerID: " 42 ", Email: "new@example.com", CustomerSince: day(2025, 8, 5)},
		{CustomerID: "7", Email: "seven@example.com"},
	}

	got := Dedup(rows)

	require.Len(t, got, 2)
	assert.Equal(t, "42", got[0].CustomerID)
	assert.Equal(t, "new@example.com", got[0].Email)
	assert.Equal(t, "7", got[1].CustomerID)
}

func TestDedupContactRows(t *testing.T) {
	rows := []domain.Customer{
		{FirstName: "undated", Email: "d@example.com", Phone: "555 0199"},
		{CustomerID: "42", Email: "a@example.com", Phone: "(555) 0100", CustomerSince: day(2025, 8, 5)},
		{FirstName: "shadow", Email: " A@Example.com", Phone: "555-0100", CustomerSince: day(2025, 8, 9)},
		{FirstName: "dated", Email: "D@example.com", Phone: "5550199", CustomerSince: day(2025, 7, 1)},
		{FirstName: "solo", Email: "solo@example.com"},
	}

	got := Dedup(rows)

	require.Len(t, got, 3)
	assert.Equal(t, "42", got[0].CustomerID, "id rows come first")
	assert.Equal(t, "dated", got[1].FirstName, "dated row wins over undated duplicate")
	assert.Equal(t, "solo", got[2].FirstName)
	for _, c := range got {
		assert.NotEqual(t, "shadow", c.FirstName, "contact row colliding with an id row is dropped")
	}
}

func TestDedupIsStableWithoutDates(t *testing.T) {
	rows := []domain.Customer{
		{CustomerID: "1", FirstName: "first"},
		{CustomerID: "1", FirstName: "second"},
	}

	got := Dedup(rows)
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].FirstName)
}

func TestDedupDoesNotMutateInput(t *testing.T) {
	rows := []domain.Customer{
		{CustomerID: "b", CustomerSince: day(2025, 1, 1)},
		{CustomerID: "a", CustomerSince: day(2025, 2, 1)},
	}

	Dedup(rows)
	assert.Equal(t, "b", rows[0].CustomerID)
}
