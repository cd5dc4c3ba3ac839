package utils

import (
	"time"
)

const timestampLayout = "02-01-2006 15:04"

// FormatTimestamp returns the provided time formatted using the local time zone
// as day-month-year followed by hours and minutes.
func FormatTimestamp(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.In(time.Local).Format(timestampLayout)
}
