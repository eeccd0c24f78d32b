package service

import (
	"context"
	"strings"

	"github.com/sitecraft-ai/sitecraft-backend/internal/deploy/subdomain"
	"github.com/sitecraft-ai/sitecraft-backend/internal/logging"
	"github.com/sitecraft-ai/sitecraft-backend/internal/projects/domain"
)

const (
	DefaultMessageLimit = 50
	MaxMessageLimit     = 200
)

// Repository is the project store.
type Repository interface {
	Create(ctx context.Context, userID, name string) (*domain.Project, error)
	List(ctx context.Context, userID string) ([]domain.Project, error)
	Get(ctx context.Context, userID, projectID string) (*domain.Project, error)
	Rename(ctx context.Context, userID, projectID, newName string) (*domain.Project, error)
	UpdateContent(ctx context.Context, userID, projectID, content string) error
	Delete(ctx context.Context, userID, projectID string) (*domain.Project, error)
}

// MessageStore reads a project's chat history.
type MessageStore interface {
	ListMessages(ctx context.Context, userID, projectID string, limit int) ([]domain.Message, error)
}

// AssetStore removes uploaded images of a project.
type AssetStore interface {
	DeleteProjectAssets(ctx context.Context, userID, projectID string) error
}

// HostingDeleter removes the hosting provider project behind a subdomain.
type HostingDeleter interface {
	DeleteProject(ctx context.Context, name string) error
}

// CleanupQueue records hosting projects whose deletion must be retried.
type CleanupQueue interface {
	Push(ctx context.Context, name string) error
}

// ProjectService handles project-related business logic
type ProjectService struct {
	repo         Repository
	messages     MessageStore
	assets       AssetStore
	hosting      HostingDeleter
	cleanup      CleanupQueue
	parentDomain string
}

// NewProjectService creates a new project service. assets, hosting and
// cleanup may be nil, in which case that part of the delete cascade is skipped.
func NewProjectService(repo Repository, messages MessageStore, assets AssetStore, hosting HostingDeleter, cleanup CleanupQueue, parentDomain string) *ProjectService {
	return &ProjectService{
		repo:         repo,
		messages:     messages,
		assets:       assets,
		hosting:      hosting,
		cleanup:      cleanup,
		parentDomain: parentDomain,
	}
}

func (s *ProjectService) Create(ctx context.Context, userID, name string) (*domain.Project, error) {
	return s.repo.Create(ctx, userID, strings.TrimSpace(name))
}

func (s *ProjectService) List(ctx context.Context, userID string) ([]domain.Project, error) {
	return s.repo.List(ctx, userID)
}

func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	return s.repo.Get(ctx, userID, projectID)
}

func (s *ProjectService) Rename(ctx context.Context, userID, projectID, newName string) (*domain.Project, error) {
	return s.repo.Rename(ctx, userID, projectID, strings.TrimSpace(newName))
}

func (s *ProjectService) SaveContent(ctx context.Context, userID, projectID, content string) error {
	return s.repo.UpdateContent(ctx, userID, projectID, content)
}

// Messages returns chat history oldest first. limit is clamped to
// [1, MaxMessageLimit]; zero or less means DefaultMessageLimit.
func (s *ProjectService) Messages(ctx context.Context, userID, projectID string, limit int) ([]domain.Message, error) {
	if _, err := s.repo.Get(ctx, userID, projectID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}
	return s.messages.ListMessages(ctx, userID, projectID, limit)
}

// Delete removes the project row and then its external resources. Failures
// after the row is gone are logged, and a failed hosting deletion is queued
// for the cleanup worker.
func (s *ProjectService) Delete(ctx context.Context, userID, projectID string) error {
	p, err := s.repo.Delete(ctx, userID, projectID)
	if err != nil {
		return err
	}

	logger := logging.FromContext(ctx, "projects")

	if s.assets != nil {
		if err := s.assets.DeleteProjectAssets(ctx, userID, projectID); err != nil {
			logger.Warn().Err(err).Str("project_id", projectID).Msg("failed to delete project assets")
		}
	}

	if p.URL == nil || s.hosting == nil {
		return nil
	}
	name := subdomain.FromURL(*p.URL, s.parentDomain)
	if name == "" {
		return nil
	}
	if err := s.hosting.DeleteProject(ctx, name); err != nil {
		logger.Warn().Err(err).Str("hosting_project", name).Msg("hosting cleanup failed, queueing retry")
		if s.cleanup == nil {
			return nil
		}
		if qerr := s.cleanup.Push(ctx, name); qerr != nil {
			logger.Error().Err(qerr).Str("hosting_project", name).Msg("hosting cleanup was not queued")
		}
	}
	return nil
}
