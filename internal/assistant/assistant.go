// Package assistant runs the conversational side of the dashboard: user
// messages go to the model together with the current documents, and the
// model edits those documents by calling tools that map onto the domain
// services. Requests are processed asynchronously and polled by id.
package assistant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"meal-planner-dashboard/internal/llm"
	"meal-planner-dashboard/internal/metrics"
	"meal-planner-dashboard/internal/shared"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Response lifecycle states.
const (
	StatusPending  = "pending"
	StatusComplete = "complete"
	StatusError    = "error"
)

const (
	responseTTL     = time.Hour
	cleanupInterval = 5 * time.Minute
)

// ToolResult records one tool execution within a run.
type ToolResult struct {
	Tool    string `json:"tool"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Response is the polled state of one assistant request.
type Response struct {
	ID            string       `json:"response_id"`
	Status        string       `json:"status"`
	UserMessage   string       `json:"user_message"`
	AssistantText string       `json:"assistant_response,omitempty"`
	ToolsExecuted []ToolResult `json:"tools_executed"`
	Error         string       `json:"error,omitempty"`
	created       time.Time
}

// Service accepts chat requests and processes them in the background.
type Service struct {
	agent    llm.ToolAgent
	executor *Executor
	metrics  *metrics.Store
	log      zerolog.Logger

	mu        sync.Mutex
	responses map[string]*Response
}

// NewService creates an assistant service. metrics may be nil.
func NewService(agent llm.ToolAgent, executor *Executor, store *metrics.Store, log zerolog.Logger) *Service {
	return &Service{
		agent:     agent,
		executor:  executor,
		metrics:   store,
		log:       log,
		responses: make(map[string]*Response),
	}
}

// Submit queues a free-form chat message and returns the response id to
// poll.
func (s *Service) Submit(message string) (string, error) {
	if message == "" {
		return "", fmt.Errorf("%w: message required", shared.ErrValidation)
	}
	return s.enqueue(message), nil
}

// Action queues one of the canned dashboard actions.
func (s *Service) Action(action, day string) (string, error) {
	prompt, err := actionPrompt(action, day)
	if err != nil {
		return "", err
	}
	return s.enqueue(prompt), nil
}

// Get returns the current state of a submitted request.
func (s *Service) Get(id string) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.responses[id]
	if !ok {
		return Response{}, fmt.Errorf("%w: response %s", shared.ErrNotFound, id)
	}
	return *resp, nil
}

// RunCleanup prunes expired responses until ctx is done.
func (s *Service) RunCleanup(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.prune(time.Now())
		}
	}
}

func (s *Service) enqueue(message string) string {
	id := uuid.New().String()
	resp := &Response{
		ID:            id,
		Status:        StatusPending,
		UserMessage:   message,
		ToolsExecuted: []ToolResult{},
		created:       time.Now(),
	}
	s.mu.Lock()
	s.responses[id] = resp
	s.mu.Unlock()

	go s.process(id, message)
	return id
}

func (s *Service) process(id, message string) {
	start := time.Now()

	text, tools, err := s.RunSync(context.Background(), message)

	s.mu.Lock()
	resp, ok := s.responses[id]
	if ok {
		resp.ToolsExecuted = tools
		if err != nil {
			resp.Status = StatusError
			resp.Error = err.Error()
		} else {
			resp.Status = StatusComplete
			resp.AssistantText = text
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Str("response_id", id).Msg("assistant run failed")
		return
	}
	s.log.Info().Str("response_id", id).Int("tools", len(tools)).Dur("latency", time.Since(start)).Msg("assistant run complete")
}

// RunSync executes one assistant conversation to completion. It is used
// directly by the Telegram channel, which has its own request loop.
func (s *Service) RunSync(ctx context.Context, message string) (string, []ToolResult, error) {
	start := time.Now()

	docContext, err := s.executor.BuildContext()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build context: %w", err)
	}

	var tools []ToolResult
	result, err := s.agent.Run(ctx, systemPrompt, docContext+"\n\nUser request: "+message, toolDefs(),
		func(name string, args map[string]any) (map[string]any, error) {
			out, execErr := s.executor.Execute(name, args)
			tr := ToolResult{Tool: name}
			if execErr != nil {
				tr.Error = execErr.Error()
			} else {
				tr.Success = true
				if msg, ok := out["message"].(string); ok {
					tr.Message = msg
				}
			}
			tools = append(tools, tr)
			return out, execErr
		})
	if err != nil {
		return "", tools, err
	}

	if s.metrics != nil {
		meta := shared.AgentMeta{AgentName: "assistant", Usage: result.Usage, Latency: time.Since(start)}
		if err := s.metrics.RecordMeta(meta); err != nil {
			s.log.Warn().Err(err).Msg("failed to record assistant metrics")
		}
	}

	return result.Content, tools, nil
}

func (s *Service) prune(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, resp := range s.responses {
		if now.Sub(resp.created) > responseTTL {
			delete(s.responses, id)
		}
	}
}
