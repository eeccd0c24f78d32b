package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sitecraft-ai/sitecraft-backend/internal/deploy/domain"
	"github.com/sitecraft-ai/sitecraft-backend/internal/deploy/subdomain"
	"github.com/sitecraft-ai/sitecraft-backend/internal/editor"
	"github.com/sitecraft-ai/sitecraft-backend/internal/logging"
)

const indexFile = "index.html"

// Provider is the hosting provider surface used by a deploy.
type Provider interface {
	StatusFetcher
	CreateDeployment(ctx context.Context, name string, files []domain.File) (*domain.Deployment, error)
	CreateAlias(ctx context.Context, deploymentID, alias string) error
}

// RecordUpdater persists the public URL on the owning project.
type RecordUpdater interface {
	UpdateURL(ctx context.Context, userID, projectID, url string) error
}

// AttemptTracker mirrors in-flight attempt state for progress reads.
type AttemptTracker interface {
	Save(ctx context.Context, attempt *domain.Attempt) error
}

// Options configures a DeployService.
type Options struct {
	ParentDomain string
	PollAttempts int
	PollInterval time.Duration
	Suffixes     subdomain.SuffixSource
}

// DeployService runs allocate → submit → poll → alias → record for a project.
type DeployService struct {
	registry     subdomain.Registry
	allocator    *subdomain.Allocator
	provider     Provider
	poller       *Poller
	records      RecordUpdater
	tracker      AttemptTracker
	metrics      *Metrics
	parentDomain string
	now          func() time.Time
}

func NewDeployService(registry subdomain.Registry, provider Provider, records RecordUpdater, tracker AttemptTracker, metrics *Metrics, opts Options) *DeployService {
	return &DeployService{
		registry:     registry,
		allocator:    subdomain.NewAllocator(registry, opts.Suffixes),
		provider:     provider,
		poller:       NewPoller(provider, opts.PollAttempts, opts.PollInterval, metrics),
		records:      records,
		tracker:      tracker,
		metrics:      metrics,
		parentDomain: domain.ParentDomain(opts.ParentDomain),
		now:          time.Now,
	}
}

// CheckDomainAvailability validates the subdomain shape and reports whether it
// is free.
func (s *DeployService) CheckDomainAvailability(ctx context.Context, sub string) (bool, error) {
	if err := subdomain.Validate(sub); err != nil {
		return false, err
	}
	taken, err := s.registry.Taken(ctx, sub)
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}
	return !taken, nil
}

// Deploy publishes req.Content and returns the public URL. When
// req.CurrentSubdomain is set the project keeps that name instead of
// allocating a new one.
func (s *DeployService) Deploy(ctx context.Context, req domain.DeployRequest) (*domain.DeployResult, error) {
	logger := logging.FromContext(ctx, "deploy")

	attempt := &domain.Attempt{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		ProjectID: req.ProjectID,
		Stage:     domain.StageAllocating,
		StartedAt: s.now().UTC(),
	}

	result, err := s.run(ctx, req, attempt)
	s.metrics.result(err)
	if err != nil {
		attempt.Stage = domain.StageFailed
		attempt.Error = err.Error()
		// the failed snapshot must land even when ctx was cancelled
		s.track(context.WithoutCancel(ctx), attempt)
		logger.Error().Err(err).
			Str("attempt_id", attempt.ID).
			Str("project_id", req.ProjectID).
			Str("subdomain", attempt.Subdomain).
			Msg("deploy failed")
		return nil, err
	}

	attempt.Stage = domain.StageDone
	s.track(ctx, attempt)
	logger.Info().
		Str("attempt_id", attempt.ID).
		Str("project_id", req.ProjectID).
		Str("url", result.URL).
		Msg("deploy finished")
	return result, nil
}

func (s *DeployService) run(ctx context.Context, req domain.DeployRequest, attempt *domain.Attempt) (*domain.DeployResult, error) {
	content := editor.StripEditorArtifacts(req.Content)
	if strings.TrimSpace(content) == "" {
		return nil, domain.ErrEmptyContent
	}

	// allocate
	s.track(ctx, attempt)
	started := s.now()
	sub := req.CurrentSubdomain
	if sub == "" || subdomain.Validate(sub) != nil {
		var err error
		sub, err = s.allocator.Allocate(ctx, req.ProjectName)
		if err != nil {
			return nil, err
		}
	}
	s.metrics.observeStep(domain.StageAllocating, started)
	attempt.Subdomain = sub

	// submit
	attempt.Stage = domain.StageSubmitting
	s.track(ctx, attempt)
	started = s.now()
	dep, err := s.provider.CreateDeployment(ctx, sub, []domain.File{{Path: indexFile, Data: content}})
	if err != nil {
		return nil, asDeploymentError(err)
	}
	s.metrics.observeStep(domain.StageSubmitting, started)
	attempt.DeploymentID = dep.ID
	attempt.Status = dep.Status

	// poll
	attempt.Stage = domain.StagePolling
	s.track(ctx, attempt)
	started = s.now()
	_, err = s.poller.WaitReady(ctx, dep.ID, func(st domain.Status) {
		if st != attempt.Status {
			attempt.Status = st
			s.track(ctx, attempt)
		}
	})
	if err != nil {
		return nil, err
	}
	s.metrics.observeStep(domain.StagePolling, started)

	// alias
	attempt.Stage = domain.StageAliasing
	s.track(ctx, attempt)
	started = s.now()
	alias := domain.AliasHost(sub, s.parentDomain)
	if err := s.provider.CreateAlias(ctx, dep.ID, alias); err != nil {
		var aliasErr *domain.AliasError
		if !errors.As(err, &aliasErr) {
			err = &domain.AliasError{Alias: alias, Message: err.Error()}
		}
		return nil, err
	}
	s.metrics.observeStep(domain.StageAliasing, started)
	attempt.Alias = alias
	url := domain.PublicURL(alias)
	attempt.URL = url

	// record
	attempt.Stage = domain.StageRecording
	s.track(ctx, attempt)
	started = s.now()
	if err := s.records.UpdateURL(ctx, req.UserID, req.ProjectID, url); err != nil {
		return nil, &domain.RecordUpdateError{URL: url, Err: err}
	}
	s.metrics.observeStep(domain.StageRecording, started)

	return &domain.DeployResult{
		AttemptID:    attempt.ID,
		URL:          url,
		Subdomain:    sub,
		DeploymentID: dep.ID,
	}, nil
}

// track is best effort; progress snapshots never fail a deploy.
func (s *DeployService) track(ctx context.Context, attempt *domain.Attempt) {
	if s.tracker == nil {
		return
	}
	attempt.UpdatedAt = s.now().UTC()
	if err := s.tracker.Save(ctx, attempt); err != nil {
		l := logging.FromContext(ctx, "deploy")
		l.Warn().Err(err).Str("attempt_id", attempt.ID).Msg("failed to save attempt snapshot")
	}
}

func asDeploymentError(err error) error {
	var depErr *domain.DeploymentError
	if errors.As(err, &depErr) {
		return err
	}
	return &domain.DeploymentError{Message: err.Error()}
}

// ParentDomain returns the configured parent domain.
func (s *DeployService) ParentDomain() string {
	return s.parentDomain
}
