package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	creditdomain "github.com/sitecraft-ai/sitecraft-backend/internal/credits/domain"
	"github.com/sitecraft-ai/sitecraft-backend/internal/generation/llm"
	projectdomain "github.com/sitecraft-ai/sitecraft-backend/internal/projects/domain"
)

type fakeAI struct {
	got      llm.GenerateRequest
	response *llm.GenerateResponse
	err      error
}

func (f *fakeAI) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.got = req
	return f.response, f.err
}

func (f *fakeAI) Enhance(_ context.Context, prompt string) (string, error) {
	return "Enhanced: " + prompt, f.err
}

type fakeCredits struct {
	balance  int
	refunds  int
	spendErr error
}

func (f *fakeCredits) Spend(context.Context, string) (int, error) {
	if f.spendErr != nil {
		return 0, f.spendErr
	}
	f.balance--
	return f.balance, nil
}

func (f *fakeCredits) Refund(context.Context, string) error {
	f.refunds++
	f.balance++
	return nil
}

type fakeProjects struct {
	project *projectdomain.Project
	saved   string
	saveErr error
}

func (f *fakeProjects) Get(context.Context, string, string) (*projectdomain.Project, error) {
	if f.project == nil {
		return nil, projectdomain.ErrNotFound
	}
	return f.project, nil
}

func (f *fakeProjects) UpdateContent(_ context.Context, _, _, content string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = content
	return nil
}

type fakeChat struct {
	history []projectdomain.Message
	turns   [][2]string
	err     error
}

func (f *fakeChat) ListMessages(context.Context, string, string, int) ([]projectdomain.Message, error) {
	return f.history, nil
}

func (f *fakeChat) AppendTurn(_ context.Context, _, _, prompt, reply string) ([]projectdomain.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.turns = append(f.turns, [2]string{prompt, reply})
	return []projectdomain.Message{{Role: projectdomain.RoleUser, Content: prompt}, {Role: projectdomain.RoleAssistant, Content: reply}}, nil
}

func TestGenerate_HappyPath(t *testing.T) {
	current := "<h1>Old</h1>"
	ai := &fakeAI{response: &llm.GenerateResponse{HTML: "<h1>New</h1>"}}
	credits := &fakeCredits{balance: 3}
	projects := &fakeProjects{project: &projectdomain.Project{ID: "p-1", Content: &current}}
	chat := &fakeChat{history: []projectdomain.Message{{Role: "user", Content: "first"}}}
	svc := NewGenerationService(ai, credits, projects, chat)

	res, err := svc.Generate(context.Background(), "user-1", "p-1", "  make it blue ")
	require.NoError(t, err)

	assert.Equal(t, "<h1>New</h1>", res.HTML)
	assert.Equal(t, defaultSummary, res.Summary)
	assert.Equal(t, 2, res.Balance)
	assert.Equal(t, "<h1>New</h1>", projects.saved)
	assert.Equal(t, "make it blue", ai.got.Prompt)
	assert.Equal(t, current, ai.got.CurrentHTML)
	assert.Len(t, ai.got.History, 1)
	assert.Equal(t, [][2]string{{"make it blue", defaultSummary}}, chat.turns)
	assert.Zero(t, credits.refunds)
}

func TestGenerate_RefundsOnUpstreamFailure(t *testing.T) {
	ai := &fakeAI{err: errors.New("status 503")}
	credits := &fakeCredits{balance: 3}
	svc := NewGenerationService(ai, credits, &fakeProjects{project: &projectdomain.Project{ID: "p-1"}}, &fakeChat{})

	_, err := svc.Generate(context.Background(), "user-1", "p-1", "x")
	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, 1, credits.refunds)
	assert.Equal(t, 3, credits.balance)
}

func TestGenerate_RefundsOnSaveFailure(t *testing.T) {
	ai := &fakeAI{response: &llm.GenerateResponse{HTML: "<p/>"}}
	credits := &fakeCredits{balance: 3}
	projects := &fakeProjects{project: &projectdomain.Project{ID: "p-1"}, saveErr: errors.New("db down")}
	svc := NewGenerationService(ai, credits, projects, &fakeChat{})

	_, err := svc.Generate(context.Background(), "user-1", "p-1", "x")
	require.Error(t, err)
	assert.Equal(t, 1, credits.refunds)
}

func TestGenerate_ChatFailureKeepsCharge(t *testing.T) {
	ai := &fakeAI{response: &llm.GenerateResponse{HTML: "<p/>", Summary: "done"}}
	credits := &fakeCredits{balance: 3}
	svc := NewGenerationService(ai, credits, &fakeProjects{project: &projectdomain.Project{ID: "p-1"}}, &fakeChat{err: errors.New("tx aborted")})

	res, err := svc.Generate(context.Background(), "user-1", "p-1", "x")
	require.NoError(t, err)
	assert.Equal(t, "done", res.Summary)
	assert.Zero(t, credits.refunds)
}

func TestGenerate_Rejections(t *testing.T) {
	ai := &fakeAI{}
	credits := &fakeCredits{spendErr: creditdomain.ErrInsufficientCredits}
	svc := NewGenerationService(ai, credits, &fakeProjects{project: &projectdomain.Project{ID: "p-1"}}, &fakeChat{})

	_, err := svc.Generate(context.Background(), "user-1", "p-1", "   ")
	assert.ErrorIs(t, err, ErrPromptRequired)

	_, err = svc.Generate(context.Background(), "user-1", "p-1", "x")
	assert.ErrorIs(t, err, creditdomain.ErrInsufficientCredits)

	svc = NewGenerationService(ai, &fakeCredits{balance: 3}, &fakeProjects{}, &fakeChat{})
	_, err = svc.Generate(context.Background(), "user-1", "p-1", "x")
	assert.ErrorIs(t, err, projectdomain.ErrNotFound)
}

func TestEnhance(t *testing.T) {
	svc := NewGenerationService(&fakeAI{}, &fakeCredits{}, &fakeProjects{}, &fakeChat{})

	out, err := svc.Enhance(context.Background(), "bakery")
	require.NoError(t, err)
	assert.Equal(t, "Enhanced: bakery", out)

	_, err = svc.Enhance(context.Background(), "")
	assert.ErrorIs(t, err, ErrPromptRequired)
}
