package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration extends time.ParseDuration with a day suffix, so values
// like "7d" or "1d12h" work in configuration.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if i := strings.IndexByte(s, 'd'); i > 0 {
		days, err := strconv.ParseFloat(s[:i], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		rest := time.Duration(0)
		if tail := s[i+1:]; tail != "" {
			rest, err = time.ParseDuration(tail)
			if err != nil {
				return 0, fmt.Errorf("invalid duration %q", s)
			}
		}
		return time.Duration(days*24*float64(time.Hour)) + rest, nil
	}

	return time.ParseDuration(s)
}
