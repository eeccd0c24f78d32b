package domain

import (
	"strings"
	"time"
)

// Status is the readiness state reported by the hosting provider.
type Status string

const (
	StatusQueued       Status = "QUEUED"
	StatusBuilding     Status = "BUILDING"
	StatusInitializing Status = "INITIALIZING"
	StatusReady        Status = "READY"
	StatusError        Status = "ERROR"
	StatusCanceled     Status = "CANCELED"
)

// Terminal reports whether no further transitions are expected.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusError || s == StatusCanceled
}

// Failed reports a terminal failure state.
func (s Status) Failed() bool {
	return s == StatusError || s == StatusCanceled
}

// Stage names the step of the deploy flow an attempt is in.
type Stage string

const (
	StageAllocating Stage = "allocating"
	StageSubmitting Stage = "submitting"
	StagePolling    Stage = "polling"
	StageAliasing   Stage = "aliasing"
	StageRecording  Stage = "recording"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// Finished reports whether no further snapshots will follow.
func (s Stage) Finished() bool {
	return s == StageDone || s == StageFailed
}

// Attempt is the ephemeral state of a single deploy request. It is never
// written to Postgres; only the final URL lands on the project.
type Attempt struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ProjectID    string    `json:"project_id"`
	Subdomain    string    `json:"subdomain,omitempty"`
	DeploymentID string    `json:"deployment_id,omitempty"`
	Status       Status    `json:"status,omitempty"`
	Stage        Stage     `json:"stage"`
	Alias        string    `json:"alias,omitempty"`
	URL          string    `json:"url,omitempty"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DeployRequest is the caller-facing input for a deploy.
type DeployRequest struct {
	ProjectName string
	ProjectID   string
	Content     string
	UserID      string
	// CurrentSubdomain is the label the project is already published under.
	CurrentSubdomain string
}

// DeployResult is returned on success.
type DeployResult struct {
	AttemptID    string `json:"attempt_id"`
	URL          string `json:"url"`
	Subdomain    string `json:"subdomain"`
	DeploymentID string `json:"deployment_id"`
}

// File is a single static file shipped with a deployment.
type File struct {
	Path string
	Data string
}

// Deployment is the provider's view of a deployment.
type Deployment struct {
	ID           string
	URL          string
	Status       Status
	ErrorMessage string
}

// AliasHost joins a subdomain with the parent domain.
// ParentDomain canonicalizes a configured parent domain so every component
// builds the same host: lowercase, no surrounding dots or spaces.
func ParentDomain(raw string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(raw), "."))
}

func AliasHost(subdomain, parentDomain string) string {
	return subdomain + "." + parentDomain
}

// PublicURL is the canonical URL stored on a project for an alias host.
func PublicURL(aliasHost string) string {
	return "https://" + aliasHost
}
