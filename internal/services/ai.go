package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

type AIService struct {
	client *openai.Client
	clock  Clock
}

// GeneratedTask is a task draft suggested by the model. Drafts are returned
// to the caller and never persisted here.
type GeneratedTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

func NewAIService(apiKey string, clock Clock) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
		clock:  clock,
	}
}

// DraftProjectTasks asks the model to break text down into tasks for the
// named project.
func (s *AIService) DraftProjectTasks(ctx context.Context, projectName, text string) ([]GeneratedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	currentTime := s.clock.Now().Format(time.RFC3339)
	prompt := fmt.Sprintf(`You are a project planning assistant. Break the following text down into concrete tasks for the project %q.

Current time: %s

Text:
%s

Return a JSON array of tasks in this shape:
[
  {
    "title": "short task title",
    "description": "what needs to be done",
    "priority": "low | medium | high",
    "due_date": "deadline in ISO8601, e.g. 2025-10-28T23:59:59Z, or null when none is stated"
  }
]

Rules:
- Return [] when the text contains no tasks
- Convert relative deadlines ("tomorrow", "next week") to absolute timestamps
- due_date must be an ISO8601 string or null
- Return JSON only, with no surrounding prose`, projectName, currentTime, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
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
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseGeneratedTasks(resp.Choices[0].Message.Content)
}

func parseGeneratedTasks(content string) ([]GeneratedTask, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}
