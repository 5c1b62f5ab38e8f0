package sources

import (
	"fmt"
	"math"
)

// FormatTimestamp renders an offset in seconds as "m:ss".
// Minutes are never rolled into an hour field: 3725s renders as "62:05".
func FormatTimestamp(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int64(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
