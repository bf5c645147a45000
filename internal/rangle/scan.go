package rangle

// ChangedSince reports whether any item has a timestamp strictly greater than since
func ChangedSince(items Items, since int64, path string) (bool, error) {
	p, err := compilePath(path)
	if err != nil {
		return false, err
	}
	return changedSince(items, since, p), nil
}

// CountInRange counts items whose timestamp t satisfies lower < t <= upper
func CountInRange(lower, upper int64, items Items, path string) (int, error) {
	p, err := compilePath(path)
	if err != nil {
		return 0, err
	}
	return countInRange(lower, upper, items, p), nil
}

// MostRecent returns the highest timestamp in items, or 0 for an empty collection
func MostRecent(items Items, path string) (int64, error) {
	p, err := compilePath(path)
	if err != nil {
		return 0, err
	}
	return mostRecent(items, p), nil
}

func changedSince(items Items, since int64, p fieldPath) bool {
	for _, item := range items {
		if ts, ok := p.timestamp(item); ok && ts > since {
			return true
		}
	}
	return false
}

func countInRange(lower, upper int64, items Items, p fieldPath) int {
	n := 0
	for _, item := range items {
		if ts, ok := p.timestamp(item); ok && ts > lower && ts <= upper {
			n++
		}
	}
	return n
}

func mostRecent(items Items, p fieldPath) int64 {
	var latest int64
	for _, item := range items {
		if ts, ok := p.timestamp(item); ok && ts > latest {
			latest = ts
		}
	}
	return latest
}
