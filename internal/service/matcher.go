package service

import (
	"strings"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/store"
)

// Keys that historically carried a user reference on investment-family
// records. Multiple code paths populated different subsets over time.
var matchIDKeys = []string{"user_id", "userId", "userID", "uid", "investor_id", "investorId", "user"}

// MatchesUser reports whether a raw record belongs to the given user. The id
// check and the email check are independent OR branches: a record with a
// stale or absent id but a matching email is still a match, and vice versa.
// An AND policy here would silently drop legitimate investments.
func MatchesUser(raw store.RawRecord, userID, userEmail string) bool {
	if raw == nil {
		return false
	}

	if userID != "" {
		for _, key := range matchIDKeys {
			if coerceString(raw[key]) == userID {
				return true
			}
		}
	}

	email := NormalizeEmail(userEmail)
	if email == "" {
		return false
	}
	for key, value := range raw {
		lower := strings.ToLower(key)
		if !strings.Contains(lower, "mail") {
			continue
		}
		if NormalizeEmail(coerceString(value)) == email {
			return true
		}
	}
	return false
}
