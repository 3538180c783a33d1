package repositories

import (
	"strconv"
	"strings"

	"gametracker/internal/models"

	"gorm.io/gorm"
)

// gameScope is a reusable WHERE-clause fragment. A scope value is built once
// per request and applied to both the data query and the count query, which
// guarantees the two always run against the same predicate.
type gameScope = func(*gorm.DB) *gorm.DB

// ownerScope restricts a query to one owner's rows. Exact, case-sensitive
// match as stored.
func ownerScope(email string) gameScope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("email = ?", email)
	}
}

// titleScope matches a case-insensitive substring of the title.
func titleScope(value string) gameScope {
	pattern := "%" + strings.ToLower(value) + "%"
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER(title) LIKE ?", pattern)
	}
}

// emailSearchScope matches a case-insensitive substring of the owner email.
// Used only by the public by-user search.
func emailSearchScope(value string) gameScope {
	pattern := "%" + strings.ToLower(value) + "%"
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER(email) LIKE ?", pattern)
	}
}

// searchScope maps a SearchField to its predicate shape:
//
//	title     → case-insensitive substring
//	rating    → exact numeric equality
//	timespent → exact numeric equality
//	dateadded → calendar-day equality against a YYYY-MM-DD string
//
// An unrecognized field falls back to the title match rather than erroring,
// so garbage query strings degrade to a harmless search.
func searchScope(field models.SearchField, value string) gameScope {
	switch field {
	case models.SearchRating:
		n := numericSearchValue(value)
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("rating = ?", n)
		}
	case models.SearchTimeSpent:
		n := numericSearchValue(value)
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("timespent = ?", n)
		}
	case models.SearchDateAdded:
		// DATE() exists on both postgres and sqlite, so the calendar-day
		// comparison works under either driver.
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("DATE(dateadded) = ?", value)
		}
	default:
		return titleScope(value)
	}
}

// numericSearchValue coerces a raw filter value for rating/timespent
// searches. A non-numeric value becomes -1, which no stored row can carry
// (both columns are validated non-negative), so the filter matches nothing
// instead of failing the whole request.
func numericSearchValue(raw string) float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return -1
	}
	return n
}
