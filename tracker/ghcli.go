package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// GHClient implements Client by shelling out to the gh CLI, which carries
// authentication and repository context on its own.
type GHClient struct {
	repoRoot string
}

// NewGHClient creates a gh-backed tracker client rooted at the given
// repository directory.
func NewGHClient(repoRoot string) *GHClient {
	return &GHClient{repoRoot: repoRoot}
}

// IsAvailable checks that the gh CLI is installed and authenticated.
func (c *GHClient) IsAvailable(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "gh", "auth", "status")
	cmd.Dir = c.repoRoot
	return cmd.Run() == nil
}

// FindByProvenance searches open issues whose body contains the provenance
// string. The search is keyed on the exact string, so an annotation that
// moved to a different line since the issue was created will not be found.
func (c *GHClient) FindByProvenance(ctx context.Context, provenance string) (*Issue, error) {
	output, err := c.runGH(ctx,
		"issue", "list",
		"--state", "open",
		"--search", fmt.Sprintf("%q in:body", provenance),
		"--json", "number,title,state,body,url",
	)
	if err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}

	var issues []Issue
	if err := json.Unmarshal([]byte(output), &issues); err != nil {
		return nil, fmt.Errorf("parse issue list: %w", err)
	}

	for i := range issues {
		if strings.Contains(issues[i].Body, provenance) {
			return &issues[i], nil
		}
	}
	return nil, nil
}

// Create creates a new issue via gh and parses the issue number out of the
// URL gh prints.
func (c *GHClient) Create(ctx context.Context, issue NewIssue) (*Issue, error) {
	args := []string{"issue", "create", "--title", issue.Title, "--body", issue.Body}
	for _, label := range issue.Labels {
		args = append(args, "--label", label)
	}

	output, err := c.runGH(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}

	url := strings.TrimSpace(output)
	number := extractIssueNumber(url)
	if number == 0 {
		return nil, fmt.Errorf("could not parse issue number from %q", url)
	}

	return &Issue{
		Number: number,
		Title:  issue.Title,
		State:  "open",
		Body:   issue.Body,
		URL:    url,
	}, nil
}

// runGH executes a gh command in the repository directory.
func (c *GHClient) runGH(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)
	cmd.Dir = c.repoRoot

	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// extractIssueNumber extracts the trailing issue number from a GitHub issue
// URL such as https://github.com/owner/repo/issues/123.
func extractIssueNumber(url string) int {
	idx := strings.LastIndex(url, "/")
	if idx < 0 || idx+1 >= len(url) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(url[idx+1:]))
	if err != nil {
		return 0
	}
	return n
}
