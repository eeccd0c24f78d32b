package domain

import (
	"errors"
	"fmt"
)

var (
	ErrExhaustedFallback = errors.New("no free subdomain left in the fallback list")
	ErrDeploymentTimeout = errors.New("deployment did not become ready in time")
	ErrSubdomainLength   = errors.New("subdomain must be between 3 and 63 characters")
	ErrSubdomainFormat   = errors.New("subdomain may only contain lowercase letters, digits and inner hyphens")
	ErrAttemptNotFound   = errors.New("deployment attempt not found")
	ErrEmptyContent      = errors.New("project has no content to deploy")
)

// DeploymentError is returned when the provider rejects a deployment submission.
type DeploymentError struct {
	Message string
}

func (e *DeploymentError) Error() string {
	return fmt.Sprintf("deployment failed: %s", e.Message)
}

// DeploymentFailedError is returned when the provider reports a terminal failure.
type DeploymentFailedError struct {
	DeploymentID string
	Status       Status
	Message      string
}

func (e *DeploymentFailedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("deployment %s ended in %s: %s", e.DeploymentID, e.Status, e.Message)
	}
	return fmt.Sprintf("deployment %s ended in %s", e.DeploymentID, e.Status)
}

// AliasError is returned when the subdomain could not be bound to the deployment.
type AliasError struct {
	Alias   string
	Message string
}

func (e *AliasError) Error() string {
	return fmt.Sprintf("failed to assign %s: %s", e.Alias, e.Message)
}

// RecordUpdateError means the site is live but its URL could not be saved.
type RecordUpdateError struct {
	URL string
	Err error
}

func (e *RecordUpdateError) Error() string {
	return fmt.Sprintf("deployed to %s but failed to save the project url: %v", e.URL, e.Err)
}

func (e *RecordUpdateError) Unwrap() error {
	return e.Err
}
