package clock

import (
	"fmt"
	"time"
)

func Now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

// Age renders the time elapsed since t in a compact human form,
// used in admin listings ("2d3h", "45m").
func Age(t time.Time) string {
	d := time.Since(t)
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd%dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
