package format

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the local wall-clock layout used in progress markers and reports.
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp formats t with TimestampLayout.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// FmtDuration formats a duration as "Xh Ym Zs", "Ym Zs" or "Zs".
// Assemblies run for minutes to hours, so sub-second precision is dropped.
func FmtDuration(d time.Duration) string {
	s := int(d.Round(time.Second).Seconds())
	switch {
	case s >= 3600:
		return fmt.Sprintf("%dh %dm %ds", s/3600, (s%3600)/60, s%60)
	case s >= 60:
		return fmt.Sprintf("%dm %ds", s/60, s%60)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FirstLine returns the first non-blank line of s, shortened to maxLen runes.
func FirstLine(s string, maxLen int) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return Truncate(line, maxLen)
		}
	}
	return ""
}

// Truncate shortens s to maxLen runes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
