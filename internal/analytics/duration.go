package analytics

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrFormat is returned when a duration string does not follow the
// "D days, H hours, and M minutes" grammar.
var ErrFormat = errors.New("malformed duration")

var durationRe = regexp.MustCompile(`^(\d+) days, (\d+) hours, and (\d+) minutes$`)

// FormatDuration renders d as "D days, H hours, and M minutes".
// Seconds are truncated.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	mins := int64(d / time.Minute)
	days := mins / (24 * 60)
	hours := (mins % (24 * 60)) / 60
	return fmt.Sprintf("%d days, %d hours, and %d minutes", days, hours, mins%60)
}

// ParseDuration is the inverse of FormatDuration.
func ParseDuration(s string) (time.Duration, error) {
	m := durationRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrFormat, s)
	}
	var parts [3]int64
	for i := range parts {
		v, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrFormat, s, err)
		}
		parts[i] = v
	}
	return time.Duration(parts[0])*24*time.Hour +
		time.Duration(parts[1])*time.Hour +
		time.Duration(parts[2])*time.Minute, nil
}
