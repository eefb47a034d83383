package domain

import "strconv"

// NextSequentialID returns (max numeric id)+1 over the supplied ids. Ids that
// are not plain non-negative integers are ignored.
func NextSequentialID(ids []string) string {
	maxID := 0
	for _, id := range ids {
		n, err := strconv.Atoi(id)
		if err != nil || n < 0 {
			continue
		}
		if n > maxID {
			maxID = n
		}
	}
	return strconv.Itoa(maxID + 1)
}

func lessID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
