package service

import "time"

// wholeSeconds wraps now (time.Now when nil) so every recorded timestamp has
// second precision, the precision both storage backends keep.
func wholeSeconds(now func() time.Time) func() time.Time {
	if now == nil {
		now = time.Now
	}
	return func() time.Time { return now().Truncate(time.Second) }
}
