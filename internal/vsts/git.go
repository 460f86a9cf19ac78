package vsts

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const branchRefPrefix = "refs/heads/"

// Repositories lists every git repository of the account, across projects.
func (c *Client) Repositories(ctx context.Context) ([]Repository, error) {
	var resp listResponse[Repository]

	err := c.get(ctx, "DefaultCollection/_apis/git/repositories?api-version=1.0", &resp)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}

	return resp.Value, nil
}

// PullRequests lists the active pull requests of a repository.
func (c *Client) PullRequests(ctx context.Context, repositoryID string) ([]PullRequest, error) {
	var resp listResponse[PullRequest]

	err := c.get(ctx, pullRequestsRef(repositoryID), &resp)
	if err != nil {
		return nil, fmt.Errorf("list pull requests: %w", err)
	}

	return resp.Value, nil
}

// CreatePullRequest opens a pull request. Plain branch names are expanded to
// refs/heads/ references.
func (c *Client) CreatePullRequest(ctx context.Context, repositoryID string, pr NewPullRequest) (PullRequest, error) {
	if strings.TrimSpace(pr.Title) == "" {
		return PullRequest{}, fmt.Errorf("create pull request: %w: title is empty", ErrInvalidInput)
	}

	pr.SourceRefName = BranchRef(pr.SourceRefName)
	pr.TargetRefName = BranchRef(pr.TargetRefName)

	var created PullRequest

	err := c.write(ctx, http.MethodPost, pullRequestsRef(repositoryID), contentTypeJSON, pr, &created)
	if err != nil {
		return PullRequest{}, fmt.Errorf("create pull request: %w", err)
	}

	return created, nil
}

// BranchRef turns "main" into "refs/heads/main". Full references and empty
// names are returned as given.
func BranchRef(branch string) string {
	if branch == "" || strings.HasPrefix(branch, "refs/") {
		return branch
	}

	return branchRefPrefix + branch
}

func pullRequestsRef(repositoryID string) string {
	return "DefaultCollection/_apis/git/repositories/" + url.PathEscape(repositoryID) + "/pullRequests?api-version=3.0"
}
