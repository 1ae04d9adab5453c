package api

import (
	"alcyxob/gym-manager/internal/domain"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	dateLayout             = "2006-01-02"
	defaultReportRangeDays = 30
)

// dateRange reads ?start=YYYY-MM-DD&end=YYYY-MM-DD. end defaults to today and
// start to the 30 days ending on end. It aborts with 400 on malformed dates.
func dateRange(c *gin.Context, now time.Time) (start, end time.Time, ok bool) {
	end = domain.DateOf(now)
	if s := c.Query("end"); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, time.Local)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid end date %q, expected YYYY-MM-DD", s))
			return time.Time{}, time.Time{}, false
		}
		end = t
	}
	start = end.AddDate(0, 0, -(defaultReportRangeDays - 1))
	if s := c.Query("start"); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, time.Local)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid start date %q, expected YYYY-MM-DD", s))
			return time.Time{}, time.Time{}, false
		}
		start = t
	}
	return start, end, true
}

// intQuery reads a positive integer query parameter, falling back to def.
func intQuery(c *gin.Context, key string, def int) (int, bool) {
	s := c.Query(key)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Query parameter %s must be an integer", key))
		return 0, false
	}
	return n, true
}
