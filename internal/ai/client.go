package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hray3182/cadence/internal/models"
	"github.com/hray3182/cadence/internal/recurrence"
	"github.com/sashabaranov/go-openai"
)

// ErrBadDueDate is returned by Draft.Reminder for a date the model produced
// in an unexpected format.
var ErrBadDueDate = errors.New("unrecognized due date")

const dueLayout = "2006-01-02 15:04"

type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Actions the model can pick.
const (
	ActionCreate  = "create_reminder"
	ActionList    = "list_reminders"
	ActionSearch  = "search_reminders"
	ActionUnknown = "unknown"
)

// Draft is the structured reading of a free-text message.
type Draft struct {
	Action          string   `json:"action"`
	Title           string   `json:"title"`
	Notes           string   `json:"notes"`
	DueAt           string   `json:"due_at"` // YYYY-MM-DD HH:MM or ""
	Recurrence      string   `json:"recurrence"`
	Days            []string `json:"days"`
	Weeks           []int    `json:"weeks"`
	DurationMinutes int      `json:"duration_minutes"`
	Priority        string   `json:"priority"`
	Tags            []string `json:"tags"`
	Keyword         string   `json:"keyword"`
	Message         string   `json:"message"`
	RawResponse     string   `json:"-"`
}

const systemPromptTemplate = `You are the assistant of cadence, a reminders app. Turn the user's message into a structured draft.

Current time: %s

Actions:
- create_reminder: the user wants to be reminded of something
- list_reminders: the user asks what is coming up
- search_reminders: the user looks for a reminder by keyword (set keyword)
- unknown: anything else; answer briefly in message

Rules for create_reminder:
1. Resolve relative dates ("tomorrow", "next Monday", "in 3 hours") against the current time and output due_at as YYYY-MM-DD HH:MM. Leave due_at empty when no time is given.
2. recurrence is one of none, daily, weekly, monthly. days lists weekday codes Mon, Tue, Wed, Thu, Fri, Sat, Sun.
3. For monthly rules, weeks holds ordinals 1, 2, 3, 4 or -1 for the last week, e.g. "every last Friday" is weeks [-1], days ["Fri"].
4. duration_minutes is how long the thing takes, 0 when unknown.
5. priority is low, med or high.
6. message is a short confirmation in the user's language.`

func systemPrompt(now time.Time) string {
	return fmt.Sprintf(systemPromptTemplate, now.Format("2006-01-02 15:04 (Monday)"))
}

// JSON Schema for structured output
var draftSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"action": {
			"type": "string",
			"enum": ["create_reminder", "list_reminders", "search_reminders", "unknown"]
		},
		"title": {"type": "string"},
		"notes": {"type": "string"},
		"due_at": {"type": "string", "description": "YYYY-MM-DD HH:MM or empty"},
		"recurrence": {"type": "string", "enum": ["none", "daily", "weekly", "monthly"]},
		"days": {
			"type": "array",
			"items": {"type": "string", "enum": ["Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"]}
		},
		"weeks": {
			"type": "array",
			"items": {"type": "integer", "enum": [1, 2, 3, 4, -1]}
		},
		"duration_minutes": {"type": "integer", "minimum": 0},
		"priority": {"type": "string", "enum": ["low", "med", "high"]},
		"tags": {"type": "array", "items": {"type": "string"}},
		"keyword": {"type": "string"},
		"message": {"type": "string"}
	},
	"required": ["action", "title", "notes", "due_at", "recurrence", "days", "weeks", "duration_minutes", "priority", "tags", "keyword", "message"],
	"additionalProperties": false
}`)

// ParseDraft asks the model to read userMessage relative to now.
func (c *Client) ParseDraft(ctx context.Context, userMessage string, now time.Time) (*Draft, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt(now),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userMessage,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "reminder_draft",
				Schema: draftSchema,
				Strict: true,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call AI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from AI")
	}

	content := resp.Choices[0].Message.Content
	draft := &Draft{RawResponse: content}
	if err := json.Unmarshal([]byte(content), draft); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	return draft, nil
}

// Rule converts the draft's recurrence fields. Unknown day codes and
// ordinals are dropped.
func (d *Draft) Rule() recurrence.Rule {
	var days []time.Weekday
	for _, code := range d.Days {
		if day, ok := recurrence.ParseDay(code); ok {
			days = append(days, day)
		}
	}
	var weeks []int
	for _, n := range d.Weeks {
		if recurrence.ValidWeek(n) {
			weeks = append(weeks, n)
		}
	}

	switch recurrence.ParseKind(d.Recurrence) {
	case recurrence.KindDaily:
		return recurrence.Daily()
	case recurrence.KindWeekly:
		return recurrence.Weekly(days...)
	case recurrence.KindMonthly:
		return recurrence.Monthly(weeks, days...)
	default:
		return recurrence.None()
	}
}

// Reminder builds the reminder described by a create_reminder draft, reading
// due_at in loc.
func (d *Draft) Reminder(loc *time.Location) (*models.Reminder, error) {
	r := &models.Reminder{
		Title:           strings.TrimSpace(d.Title),
		Notes:           strings.TrimSpace(d.Notes),
		Tags:            d.Tags,
		Recurrence:      d.Rule(),
		DurationMinutes: max(d.DurationMinutes, 0),
		Status:          models.StatusTodo,
		Priority:        models.NormalizePriority(d.Priority),
	}
	if due := strings.TrimSpace(d.DueAt); due != "" {
		t, err := time.ParseInLocation(dueLayout, due, loc)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrBadDueDate, due, err)
		}
		r.DueAt = &t
	}
	return r, nil
}
