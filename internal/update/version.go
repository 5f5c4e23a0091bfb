package update

import (
	"strconv"
	"strings"
)

// CompareVersions compares dot-separated numeric versions and returns -1, 0
// or 1. Missing trailing segments count as zero, as do segments that are
// not numbers. A leading "v" is ignored.
func CompareVersions(a, b string) int {
	as := splitVersion(a)
	bs := splitVersion(b)
	n := max(len(as), len(bs))
	for i := range n {
		x, y := segment(as, i), segment(bs, i)
		switch {
		case x > y:
			return 1
		case x < y:
			return -1
		}
	}
	return 0
}

// IsNewer reports whether candidate is strictly newer than current.
func IsNewer(candidate, current string) bool {
	return CompareVersions(candidate, current) > 0
}

func splitVersion(v string) []string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "" {
		return nil
	}
	return strings.Split(v, ".")
}

func segment(parts []string, i int) uint64 {
	if i >= len(parts) {
		return 0
	}
	n, err := strconv.ParseUint(strings.TrimSpace(parts[i]), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
