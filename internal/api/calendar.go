package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hray3182/cadence/internal/ics"
)

// insights aggregates the days starting at ?start (default: six days ago)
// for ?days days (default 7).
func (s *Server) insights(c *gin.Context) {
	days := defaultRangeDays
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, err)
			return
		}
		days = n
	}
	start := s.today().AddDate(0, 0, 1-days)
	if v := c.Query("start"); v != "" {
		t, err := s.parseTime(v)
		if err != nil {
			badRequest(c, err)
			return
		}
		start = t
	}

	report, err := s.planner.Insights(c.Request.Context(), start, days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// export serves an iCalendar file of the reminders in [?start, ?end), or of
// the default window when both are absent.
func (s *Server) export(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		data []byte
		err  error
	)
	startParam, endParam := c.Query("start"), c.Query("end")
	if startParam == "" && endParam == "" {
		data, err = s.planner.Export(ctx)
	} else {
		start, end, ok := s.exportRange(c, startParam, endParam)
		if !ok {
			return
		}
		data, err = s.planner.ExportRange(ctx, start, end)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="cadence.ics"`)
	c.Data(http.StatusOK, ics.ContentType, data)
}

// exportRange parses ?start and ?end; a missing start means today and a
// missing end means a year after start.
func (s *Server) exportRange(c *gin.Context, startParam, endParam string) (time.Time, time.Time, bool) {
	start := s.today()
	if startParam != "" {
		t, err := s.parseTime(startParam)
		if err != nil {
			badRequest(c, err)
			return time.Time{}, time.Time{}, false
		}
		start = t
	}
	end := start.AddDate(1, 0, 0)
	if endParam != "" {
		t, err := s.parseTime(endParam)
		if err != nil {
			badRequest(c, err)
			return time.Time{}, time.Time{}, false
		}
		end = t
	}
	return start, end, true
}
