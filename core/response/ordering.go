package response

import (
	"sort"
	"time"

	"github.com/trezcool/formnet/core"
)

// Sort orders rs in place, on each ordering in turn; ties keep their current order.
// Unset submission timestamps sort first. Unknown fields are ignored.
func Sort(rs []Response, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		return
	}
	sort.SliceStable(rs, func(i, j int) bool { return less(rs[i], rs[j], ordering) })
}

func less(a, b Response, ordering []core.DBOrdering) bool {
	for _, ord := range ordering {
		c := compare(a, b, ord.Field)
		if c == 0 {
			continue
		}
		if ord.Ascending {
			return c < 0
		}
		return c > 0
	}
	return false
}

func compare(a, b Response, field string) int {
	switch field {
	case OrderByCreatedAt:
		return compareTimes(a.CreatedAt, b.CreatedAt)
	case OrderByUpdatedAt:
		return compareTimes(a.UpdatedAt, b.UpdatedAt)
	case OrderBySubmissionTimestamp:
		var ta, tb time.Time
		if a.SubmissionTimestamp != nil {
			ta = *a.SubmissionTimestamp
		}
		if b.SubmissionTimestamp != nil {
			tb = *b.SubmissionTimestamp
		}
		return compareTimes(ta, tb)
	case OrderByStatus:
		return compareStrings(string(a.Status), string(b.Status))
	case OrderByUserID:
		return compareStrings(a.UserID, b.UserID)
	default:
		return 0
	}
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
