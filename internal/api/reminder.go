package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hray3182/cadence/internal/models"
	"github.com/hray3182/cadence/internal/recurrence"
)

const defaultRangeDays = 7

// ReminderJSON is the wire form of a reminder. Tags carry the rec:/dur:
// encoding of the rule and duration after the labels, for clients that only
// understand tags.
type ReminderJSON struct {
	ID              uuid.UUID       `json:"id"`
	Title           string          `json:"title"`
	Notes           string          `json:"notes"`
	DueAt           *time.Time      `json:"due_at"`
	GroupID         *uuid.UUID      `json:"group_id"`
	Tags            []string        `json:"tags"`
	Recurrence      recurrence.Rule `json:"recurrence"`
	DurationMinutes int             `json:"duration_minutes"`
	Status          models.Status   `json:"status"`
	Priority        models.Priority `json:"priority"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toJSON(r *models.Reminder) ReminderJSON {
	return ReminderJSON{
		ID:              r.ID,
		Title:           r.Title,
		Notes:           r.Notes,
		DueAt:           r.DueAt,
		GroupID:         r.GroupID,
		Tags:            r.WireTags(),
		Recurrence:      r.Recurrence,
		DurationMinutes: r.DurationMinutes,
		Status:          r.Status,
		Priority:        r.Priority,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func toJSONList(list []*models.Reminder) []ReminderJSON {
	out := make([]ReminderJSON, 0, len(list))
	for _, r := range list {
		out = append(out, toJSON(r))
	}
	return out
}

// ReminderInput DTO for creating and updating a reminder. On update only the
// fields present are changed; "clear_due" moves the reminder to the inbox and
// "clear_group" removes it from its group. Tags sent without recurrence or
// duration_minutes define them through their rec:/dur: encoding, so a tag
// list without an encoding clears them.
type ReminderInput struct {
	Title           *string          `json:"title"`
	Notes           *string          `json:"notes"`
	DueAt           *time.Time       `json:"due_at"`
	ClearDue        bool             `json:"clear_due"`
	GroupID         *uuid.UUID       `json:"group_id"`
	ClearGroup      bool             `json:"clear_group"`
	Tags            []string         `json:"tags"`
	Recurrence      *recurrence.Rule `json:"recurrence"`
	DurationMinutes *int             `json:"duration_minutes"`
	Status          *models.Status   `json:"status"`
	Priority        *string          `json:"priority"`
}

func (in *ReminderInput) apply(r *models.Reminder) {
	if in.Title != nil {
		r.Title = *in.Title
	}
	if in.Notes != nil {
		r.Notes = *in.Notes
	}
	if in.DueAt != nil {
		due := *in.DueAt
		r.DueAt = &due
	}
	if in.ClearDue {
		r.DueAt = nil
	}
	if in.GroupID != nil {
		g := *in.GroupID
		r.GroupID = &g
	}
	if in.ClearGroup {
		r.GroupID = nil
	}
	if in.Tags != nil {
		r.Tags = in.Tags
		if in.Recurrence == nil {
			r.Recurrence = recurrence.None()
		}
		if in.DurationMinutes == nil {
			r.DurationMinutes = 0
		}
	}
	if in.Recurrence != nil {
		r.Recurrence = *in.Recurrence
	}
	if in.DurationMinutes != nil {
		r.DurationMinutes = *in.DurationMinutes
	}
	if in.Status != nil {
		r.Status = *in.Status
	}
	if in.Priority != nil {
		r.Priority = models.NormalizePriority(*in.Priority)
	}
}

// CreateReminderResponse reports the saved reminder and how many further
// occurrences of its series were created.
type CreateReminderResponse struct {
	Reminder ReminderJSON `json:"reminder"`
	Seeded   int          `json:"seeded"`
}

// ToggleResponse is returned by the status endpoint.
type ToggleResponse struct {
	Reminder ReminderJSON  `json:"reminder"`
	Next     *ReminderJSON `json:"next,omitempty"`
}

// listReminders returns reminders due in [start, end). Defaults to the next
// seven days from today.
func (s *Server) listReminders(c *gin.Context) {
	start := s.today()
	if v := c.Query("start"); v != "" {
		t, err := s.parseTime(v)
		if err != nil {
			badRequest(c, err)
			return
		}
		start = t
	}
	end := start.AddDate(0, 0, defaultRangeDays)
	if v := c.Query("end"); v != "" {
		t, err := s.parseTime(v)
		if err != nil {
			badRequest(c, err)
			return
		}
		end = t
	}

	list, err := s.planner.ListRange(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJSONList(list))
}

func (s *Server) listInbox(c *gin.Context) {
	list, err := s.planner.ListInbox(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJSONList(list))
}

func (s *Server) listOverdue(c *gin.Context) {
	list, err := s.planner.Overdue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJSONList(list))
}

func (s *Server) searchReminders(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	list, err := s.planner.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJSONList(list))
}

// createReminder creates a reminder and, for weekly and monthly rules, the
// rest of its series.
func (s *Server) createReminder(c *gin.Context) {
	var input ReminderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	r := &models.Reminder{Status: models.StatusTodo}
	input.apply(r)
	seeded, err := s.planner.SaveReminder(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreateReminderResponse{Reminder: toJSON(r), Seeded: seeded})
}

// getReminder accepts a full id or an unambiguous prefix.
func (s *Server) getReminder(c *gin.Context) {
	r, err := s.planner.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJSON(r))
}

func (s *Server) updateReminder(c *gin.Context) {
	ctx := c.Request.Context()
	r, err := s.planner.Resolve(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var input ReminderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	r = r.Clone()
	input.apply(r)

	if _, err := s.planner.SaveReminder(ctx, r); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJSON(r))
}

func (s *Server) deleteReminder(c *gin.Context) {
	ctx := c.Request.Context()
	r, err := s.planner.Resolve(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.planner.DeleteReminder(ctx, r.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reminder deleted successfully"})
}

// SetStatusInput DTO for updating a reminder's status
type SetStatusInput struct {
	Status models.Status `json:"status" binding:"required,oneof=todo done"`
}

// setStatus marks a reminder done or todo. Completing a recurring reminder
// returns the next occurrence it created, if any.
func (s *Server) setStatus(c *gin.Context) {
	ctx := c.Request.Context()
	r, err := s.planner.Resolve(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var input SetStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	res, err := s.planner.ToggleDone(ctx, r.ID, input.Status == models.StatusDone)
	if err != nil {
		respondError(c, err)
		return
	}
	out := ToggleResponse{Reminder: toJSON(res.Reminder)}
	if res.Next != nil {
		next := toJSON(res.Next)
		out.Next = &next
	}
	c.JSON(http.StatusOK, out)
}

// RescheduleInput DTO; RefDay is YYYY-MM-DD and defaults to today.
type RescheduleInput struct {
	RefDay string `json:"ref_day"`
}

func (s *Server) reschedule(c *gin.Context) {
	ctx := c.Request.Context()
	r, err := s.planner.Resolve(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var input RescheduleInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}
	}
	var refDay time.Time
	if input.RefDay != "" {
		refDay, err = time.ParseInLocation(time.DateOnly, input.RefDay, s.planner.Location())
		if err != nil {
			badRequest(c, err)
			return
		}
	}

	r, err = s.planner.Reschedule(ctx, r.ID, refDay)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJSON(r))
}

func (s *Server) rescheduleOverdue(c *gin.Context) {
	moved, err := s.planner.RescheduleOverdue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJSONList(moved))
}
