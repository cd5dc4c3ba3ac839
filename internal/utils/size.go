package utils

import (
	units "github.com/docker/go-units"
)

// UnknownSizePlaceholder is displayed for directories without an aggregated size.
const UnknownSizePlaceholder = "-"

// FormatFileSize converts a byte length into a decimal human-readable string such as "1.5kB".
func FormatFileSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return units.HumanSize(float64(bytes))
}
