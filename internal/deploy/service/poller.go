package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sitecraft-ai/sitecraft-backend/internal/deploy/domain"
	"github.com/sitecraft-ai/sitecraft-backend/internal/logging"
)

// StatusFetcher reads a deployment's current state from the provider.
type StatusFetcher interface {
	GetDeployment(ctx context.Context, deploymentID string) (*domain.Deployment, error)
}

// Poller checks deployment status on a fixed interval until it is terminal
// or the attempt budget runs out. There is no backoff.
type Poller struct {
	fetcher  StatusFetcher
	attempts int
	interval time.Duration
	metrics  *Metrics
}

func NewPoller(fetcher StatusFetcher, attempts int, interval time.Duration, metrics *Metrics) *Poller {
	if attempts < 1 {
		attempts = 1
	}
	return &Poller{fetcher: fetcher, attempts: attempts, interval: interval, metrics: metrics}
}

// WaitReady returns the deployment once it reports READY. The first check is
// immediate; later checks wait one interval each. onStatus, when non-nil, sees
// every status observed.
func (p *Poller) WaitReady(ctx context.Context, deploymentID string, onStatus func(domain.Status)) (*domain.Deployment, error) {
	logger := logging.FromContext(ctx, "deploy.poller")

	var last domain.Status
	for i := 0; i < p.attempts; i++ {
		if i > 0 {
			if err := sleep(ctx, p.interval); err != nil {
				return nil, err
			}
		}

		dep, err := p.fetcher.GetDeployment(ctx, deploymentID)
		p.metrics.statusCheck()
		if err != nil {
			logger.Warn().Err(err).Str("deployment_id", deploymentID).Int("attempt", i+1).Msg("status check failed")
			continue
		}

		last = dep.Status
		if onStatus != nil {
			onStatus(dep.Status)
		}

		switch {
		case dep.Status == domain.StatusReady:
			return dep, nil
		case dep.Status.Failed():
			return nil, &domain.DeploymentFailedError{
				DeploymentID: deploymentID,
				Status:       dep.Status,
				Message:      dep.ErrorMessage,
			}
		}
	}

	return nil, fmt.Errorf("%w: %d checks, last status %q", domain.ErrDeploymentTimeout, p.attempts, last)
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil || d <= 0 {
		return err
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
