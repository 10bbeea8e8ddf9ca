package printer

import (
	"fmt"
	"time"
)

// Elapsed returns the compact time passed between since and now, e.g. "45s", "12m",
// "2h15m" or "3d4h". Clock skew (since after now) is reported as "0s".
func Elapsed(since, now time.Time) string {
	d := now.Sub(since)
	if d < 0 {
		d = 0
	}

	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return compact(int(d.Hours()), "h", int(d.Minutes())%60, "m")
	}

	hours := int(d.Hours())
	return compact(hours/24, "d", hours%24, "h")
}

func compact(major int, majorUnit string, minor int, minorUnit string) string {
	if minor == 0 {
		return fmt.Sprintf("%d%s", major, majorUnit)
	}
	return fmt.Sprintf("%d%s%d%s", major, majorUnit, minor, minorUnit)
}

// FormatTimestamp returns the timestamp in UTC, e.g. "2006-01-02 15:04:05 UTC".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
