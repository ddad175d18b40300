package common

import (
	"fmt"
	"strconv"
)

// NextInSeries produces the next business code for a prefixed numeric series
// (KH0001, SP0001, HD0001, PG0001). A nil or unparseable current maximum
// starts the series at 1. The numeric part widens past 9999 rather than
// wrapping.
func NextInSeries(prefix string, max *string) string {
	if max == nil || len(*max) <= len(prefix) {
		return fmt.Sprintf("%s%04d", prefix, 1)
	}
	n, err := strconv.Atoi((*max)[len(prefix):])
	if err != nil {
		return fmt.Sprintf("%s%04d", prefix, 1)
	}
	return fmt.Sprintf("%s%04d", prefix, n+1)
}
