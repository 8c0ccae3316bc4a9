package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/platform-analytics/internal/domain"
)

const recentSignupDays = 7

// ScoreCustomer rates how promising a customer looks from profile
// completeness and recency:
//
//	+3 registered within the last 7 days
//	+2 marketing opt-in
//	+2 first and last name present
//	+1 phone present
//	+1 email present
func ScoreCustomer(c domain.Customer, today time.Time) int {
	score := 0
	if c.CustomerSince != nil {
		cutoff := today.AddDate(0, 0, -recentSignupDays)
		if !c.CustomerSince.Before(cutoff) && !c.CustomerSince.After(today) {
			score += 3
		}
	}
	if c.MarketingOptIn {
		score += 2
	}
	if strings.TrimSpace(c.FirstName) != "" && strings.TrimSpace(c.LastName) != "" {
		score += 2
	}
	if strings.TrimSpace(c.Phone) != "" {
		score++
	}
	if strings.TrimSpace(c.Email) != "" {
		score++
	}
	return score
}

// TopCustomers returns the n highest scoring customers. Ties keep table
// order.
func TopCustomers(customers []domain.Customer, today time.Time, n int) []domain.TopCustomer {
	scored := make([]domain.TopCustomer, len(customers))
	for i, c := range customers {
		scored[i] = domain.TopCustomer{
			CustomerID:     c.CustomerID,
			FirstName:      c.FirstName,
			LastName:       c.LastName,
			CustomerSince:  c.CustomerSince,
			MarketingOptIn: c.MarketingOptIn,
			Score:          ScoreCustomer(c, today),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if n < 0 {
		n = 0
	}
	if n > len(scored) {
		n = len(scored)
	}
	return scored[:n]
}
