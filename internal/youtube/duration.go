package youtube

import (
	"fmt"
	"regexp"
	"strconv"
)

var isoDurationPattern = regexp.MustCompile(`^P(?:[\d.]+[DWY])*T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// FormatDuration converts an ISO-8601 duration token into the display
// format downstream consumers parse: "H:MM:SS" when hours are present,
// "M:SS" otherwise. Anything unparseable renders as "0:00".
func FormatDuration(iso string) string {
	m := isoDurationPattern.FindStringSubmatch(iso)
	if m == nil {
		return "0:00"
	}

	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
