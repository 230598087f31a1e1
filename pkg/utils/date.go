package utils

import (
	"sync"
	"time"
)

var (
	wibOnce     sync.Once
	wibLocation *time.Location
)

// GetWibTimeLocation returns Asia/Jakarta, falling back to a fixed UTC+7 zone
// when the tz database is unavailable.
func GetWibTimeLocation() *time.Location {
	wibOnce.Do(func() {
		loc, err := time.LoadLocation("Asia/Jakarta")
		if err != nil {
			loc = time.FixedZone("WIB", 7*60*60)
		}
		wibLocation = loc
	})
	return wibLocation
}

func TimeNowWIB() time.Time {
	return time.Now().In(GetWibTimeLocation())
}

// PrettyDate formats t in WIB for chat messages.
func PrettyDate(t time.Time) string {
	return t.In(GetWibTimeLocation()).Format("02 Jan 2006 15:04 MST")
}

// ReportTimestamp is the compact UTC timestamp used in report keys.
func ReportTimestamp(t time.Time) string {
	return t.UTC().Format("20060102T150405")
}
