// Package tracker abstracts the minimal issue-tracker capability the
// synchronizer needs: an availability probe, a provenance-keyed duplicate
// lookup, and issue creation.
package tracker

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the tracker cannot be reached or the
// client is not authenticated.
var ErrUnavailable = errors.New("issue tracker unavailable")

// Issue is a tracker issue as seen by this tool.
type Issue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	Body   string `json:"body"`
	URL    string `json:"url"`
}

// NewIssue describes an issue to create.
type NewIssue struct {
	Title  string
	Body   string
	Labels []string
}

// Client is the minimal tracker surface used by the synchronizer. An
// in-memory implementation backs the tests so ordering and duplicate
// suppression can be exercised without network access.
type Client interface {
	// IsAvailable reports whether the tracker can be used at all. Called
	// once at startup; a false result disables synchronization for the run.
	IsAvailable(ctx context.Context) bool

	// FindByProvenance returns an open issue whose body contains the exact
	// provenance string, or nil when none exists.
	FindByProvenance(ctx context.Context, provenance string) (*Issue, error)

	// Create creates a new issue and returns it with its assigned number.
	Create(ctx context.Context, issue NewIssue) (*Issue, error)
}
