package tracker

import (
	"context"
	"fmt"
	"strings"
)

// MemoryClient is an in-memory Client used in tests and dry runs. It mimics
// the tracker's observable behavior: issues get sequential numbers and
// provenance search matches on body substrings.
type MemoryClient struct {
	Available bool

	// FailCreate, when set, makes Create return the given error.
	FailCreate error

	issues []Issue
	next   int
}

// NewMemoryClient creates an available in-memory tracker.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{Available: true, next: 1}
}

// IsAvailable implements Client.
func (c *MemoryClient) IsAvailable(ctx context.Context) bool {
	return c.Available
}

// FindByProvenance implements Client.
func (c *MemoryClient) FindByProvenance(ctx context.Context, provenance string) (*Issue, error) {
	if !c.Available {
		return nil, ErrUnavailable
	}
	for i := range c.issues {
		if c.issues[i].State == "open" && strings.Contains(c.issues[i].Body, provenance) {
			return &c.issues[i], nil
		}
	}
	return nil, nil
}

// Create implements Client.
func (c *MemoryClient) Create(ctx context.Context, issue NewIssue) (*Issue, error) {
	if !c.Available {
		return nil, ErrUnavailable
	}
	if c.FailCreate != nil {
		return nil, c.FailCreate
	}

	created := Issue{
		Number: c.next,
		Title:  issue.Title,
		State:  "open",
		Body:   issue.Body,
		URL:    fmt.Sprintf("memory://issues/%d", c.next),
	}
	c.next++
	c.issues = append(c.issues, created)
	return &created, nil
}

// Issues returns all issues created so far.
func (c *MemoryClient) Issues() []Issue {
	return c.issues
}
