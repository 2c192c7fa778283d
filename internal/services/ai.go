package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/models"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoDrafts             = errors.New("AI did not produce any usable task drafts")
)

// AIService turns free-form text into task drafts. Drafts are suggestions
// only; nothing is added to the collection until the user creates them.
type AIService struct {
	client *openai.Client
	model  string
	clock  func() time.Time
}

// TaskDraft is a suggested task with a complete scheduled window.
type TaskDraft struct {
	Text      string          `json:"text"`
	Priority  models.Priority `json:"priority"`
	StartTime time.Time       `json:"startTime"`
	EndTime   time.Time       `json:"endTime"`
}

type rawDraft struct {
	Text      string     `json:"text"`
	Priority  string     `json:"priority"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
}

// NewAIService returns nil when apiKey is empty so callers can treat the
// feature as disabled.
func NewAIService(apiKey string) *AIService {
	if apiKey == "" {
		return nil
	}
	return NewAIServiceWithConfig(openai.DefaultConfig(apiKey))
}

func NewAIServiceWithConfig(cfg openai.ClientConfig) *AIService {
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.GPT4o,
		clock:  time.Now,
	}
}

// DraftTasks asks the model to extract tasks from text.
func (s *AIService) DraftTasks(ctx context.Context, text string) ([]TaskDraft, error) {
	if s == nil || s.client == nil {
		return nil, ErrAIServiceNotConfigured
	}

	now := s.clock()
	prompt := fmt.Sprintf(`You are a task extraction assistant. Extract concrete tasks from the text below.

Current time: %s

Text:
%s

Return a JSON array in this exact shape:
[
  {
    "text": "short task description",
    "priority": "one of very-important, important, normal, less-important",
    "startTime": "RFC 3339 timestamp or null",
    "endTime": "RFC 3339 timestamp or null"
  }
]

Rules:
- Return [] when the text contains no tasks
- Convert relative expressions such as "tomorrow" or "next week" into absolute timestamps
- Return JSON only, with no surrounding prose`, now.Format(time.RFC3339), text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrAINoDrafts
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var raw []rawDraft
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	if len(raw) > constants.MaxAIGeneratedTasks {
		raw = raw[:constants.MaxAIGeneratedTasks]
	}

	drafts := normalizeDrafts(raw, now)
	if len(drafts) == 0 {
		return nil, ErrAINoDrafts
	}
	return drafts, nil
}

// normalizeDrafts drops empty drafts and fills in a usable window:
// a missing start is now, a missing or inverted end is start plus the
// default draft duration.
func normalizeDrafts(raw []rawDraft, now time.Time) []TaskDraft {
	drafts := make([]TaskDraft, 0, len(raw))
	for _, r := range raw {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}

		priority := models.Priority(r.Priority)
		if !priority.IsValid() {
			priority = models.PriorityNormal
		}

		start := now
		if r.StartTime != nil {
			start = *r.StartTime
		}
		end := start.Add(constants.DefaultDraftDuration)
		if r.EndTime != nil && !r.EndTime.Before(start) {
			end = *r.EndTime
		}

		drafts = append(drafts, TaskDraft{
			Text:      text,
			Priority:  priority,
			StartTime: start,
			EndTime:   end,
		})
	}
	return drafts
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
