package customers

import (
	"sort"
	"time"

	"github.com/andresuchdata/platform-analytics/internal/domain"
)

// Dedup keeps one row per real-world customer.
//
// Rows are first ordered by registration, most recent first (stable, missing
// dates last), so the freshest record of a customer wins. Rows with an id
// keep the first row per id. Rows without one keep the first row per contact
// key, and are then dropped entirely when that key belongs to a kept row
// with an id. The result lists id rows before contact-only rows.
func Dedup(rows []domain.Customer) []domain.Customer {
	sorted := make([]domain.Customer, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return newer(sorted[i].CustomerSince, sorted[j].CustomerSince)
	})

	var (
		withID    []domain.Customer
		withoutID []domain.Customer
		seenID    = make(map[string]struct{})
		seenKey   = make(map[string]struct{})
	)
	for _, c := range sorted {
		if c.HasIdentity() {
			id := identity(c)
			if _, dup := seenID[id]; dup {
				continue
			}
			seenID[id] = struct{}{}
			c.CustomerID = id
			withID = append(withID, c)
			continue
		}

		key := ContactKey(c)
		if _, dup := seenKey[key]; dup {
			continue
		}
		seenKey[key] = struct{}{}
		withoutID = append(withoutID, c)
	}

	idKeys := make(map[string]struct{}, len(withID))
	for _, c := range withID {
		idKeys[ContactKey(c)] = struct{}{}
	}

	out := make([]domain.Customer, 0, len(withID)+len(withoutID))
	out = append(out, withID...)
	for _, c := range withoutID {
		if _, taken := idKeys[ContactKey(c)]; taken {
			continue
		}
		out = append(out, c)
	}
	return out
}

func newer(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.After(*b)
}
