package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sitecraft-ai/sitecraft-backend/internal/generation/llm"
	"github.com/sitecraft-ai/sitecraft-backend/internal/logging"
	projectdomain "github.com/sitecraft-ai/sitecraft-backend/internal/projects/domain"
)

const (
	historyLimit   = 20
	defaultSummary = "Page updated."
)

var ErrPromptRequired = errors.New("prompt required")

// UpstreamError wraps a failure of the AI service.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return "generation failed: " + e.Err.Error() }
func (e *UpstreamError) Unwrap() error { return e.Err }

type Generator interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error)
	Enhance(ctx context.Context, prompt string) (string, error)
}

type Credits interface {
	Spend(ctx context.Context, userID string) (int, error)
	Refund(ctx context.Context, userID string) error
}

type Projects interface {
	Get(ctx context.Context, userID, projectID string) (*projectdomain.Project, error)
	UpdateContent(ctx context.Context, userID, projectID, content string) error
}

type Chat interface {
	ListMessages(ctx context.Context, userID, projectID string, limit int) ([]projectdomain.Message, error)
	AppendTurn(ctx context.Context, userID, projectID, prompt, reply string) ([]projectdomain.Message, error)
}

// Result is the outcome of one generation.
type Result struct {
	HTML     string                  `json:"html"`
	Summary  string                  `json:"summary"`
	Balance  int                     `json:"balance"`
	Messages []projectdomain.Message `json:"messages"`
}

// GenerationService turns prompts into page content, paid for with credits.
type GenerationService struct {
	ai       Generator
	credits  Credits
	projects Projects
	chat     Chat
}

func NewGenerationService(ai Generator, credits Credits, projects Projects, chat Chat) *GenerationService {
	return &GenerationService{ai: ai, credits: credits, projects: projects, chat: chat}
}

// Generate charges one generation, asks the AI service for new content and
// stores it. The charge is refunded when no content could be stored.
func (s *GenerationService) Generate(ctx context.Context, userID, projectID, prompt string) (*Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrPromptRequired
	}

	p, err := s.projects.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	balance, err := s.credits.Spend(ctx, userID)
	if err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx, "generation")

	history, err := s.chat.ListMessages(ctx, userID, projectID, historyLimit)
	if err != nil {
		s.refund(ctx, userID)
		return nil, fmt.Errorf("load history: %w", err)
	}

	req := llm.GenerateRequest{Prompt: prompt, History: make([]llm.ChatMessage, 0, len(history))}
	for _, m := range history {
		req.History = append(req.History, llm.ChatMessage{Role: m.Role, Content: m.Content})
	}
	if p.Content != nil {
		req.CurrentHTML = *p.Content
	}

	out, err := s.ai.Generate(ctx, req)
	if err != nil {
		s.refund(ctx, userID)
		return nil, &UpstreamError{Err: err}
	}

	if err := s.projects.UpdateContent(ctx, userID, projectID, out.HTML); err != nil {
		s.refund(ctx, userID)
		return nil, fmt.Errorf("save content: %w", err)
	}

	summary := strings.TrimSpace(out.Summary)
	if summary == "" {
		summary = defaultSummary
	}

	// Content is saved at this point, so a lost chat turn is not worth a refund.
	msgs, err := s.chat.AppendTurn(ctx, userID, projectID, prompt, summary)
	if err != nil {
		logger.Warn().Err(err).Str("project_id", projectID).Msg("failed to append chat turn")
	}

	logger.Info().Str("project_id", projectID).Int("balance", balance).Msg("page generated")
	return &Result{HTML: out.HTML, Summary: summary, Balance: balance, Messages: msgs}, nil
}

// Enhance improves a prompt. It is free.
func (s *GenerationService) Enhance(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrPromptRequired
	}
	out, err := s.ai.Enhance(ctx, prompt)
	if err != nil {
		return "", &UpstreamError{Err: err}
	}
	return out, nil
}

func (s *GenerationService) refund(ctx context.Context, userID string) {
	if err := s.credits.Refund(ctx, userID); err != nil {
		l := logging.FromContext(ctx, "generation")
		l.Error().Err(err).Str("user_id", userID).Msg("refund failed")
	}
}
