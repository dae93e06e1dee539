package util

import (
	"fmt"
	"strconv"
)

// ParseSnowflake converts a Discord ID string to uint64. Returns 0 for
// anything unparseable, which callers treat as "unknown".
func ParseSnowflake(s string) uint64 {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func FormatSnowflake(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// FormatHoursMinutes renders a second count as "Xh Ym" for embeds.
func FormatHoursMinutes(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}
