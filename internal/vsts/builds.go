package vsts

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

func buildsRef(project string) string {
	return "DefaultCollection/" + url.PathEscape(project) + "/_apis/build/builds"
}

// Builds lists the recent builds of a project, all definitions mixed.
func (c *Client) Builds(ctx context.Context, project string) ([]Build, error) {
	var resp listResponse[Build]

	err := c.get(ctx, buildsRef(project)+"?api-version=2.0", &resp)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}

	return resp.Value, nil
}

// LatestBuild returns the newest build of a definition, or ErrNotFound.
func (c *Client) LatestBuild(ctx context.Context, project string, definitionID int) (Build, error) {
	ref := buildsRef(project) + "?definitions=" + strconv.Itoa(definitionID) + "&$top=1&api-version=2.0"

	var resp listResponse[Build]

	if err := c.get(ctx, ref, &resp); err != nil {
		return Build{}, fmt.Errorf("get latest build of definition %d: %w", definitionID, err)
	}

	if len(resp.Value) == 0 {
		return Build{}, fmt.Errorf("get latest build of definition %d: %w", definitionID, ErrNotFound)
	}

	return resp.Value[0], nil
}

// BuildTimeline returns the records of a build in service order.
func (c *Client) BuildTimeline(ctx context.Context, project string, buildID int) ([]TimelineRecord, error) {
	ref := buildsRef(project) + "/" + strconv.Itoa(buildID) + "/timeline?api-version=2.0"

	var resp struct {
		Records []TimelineRecord `json:"records"`
	}

	if err := c.get(ctx, ref, &resp); err != nil {
		return nil, fmt.Errorf("get timeline of build %d: %w", buildID, err)
	}

	return resp.Records, nil
}

// BuildLog returns the lines of one build log.
func (c *Client) BuildLog(ctx context.Context, project string, buildID, logID int) ([]string, error) {
	ref := buildsRef(project) + "/" + strconv.Itoa(buildID) + "/logs/" + strconv.Itoa(logID) + "?api-version=2.0"

	var resp listResponse[string]

	if err := c.get(ctx, ref, &resp); err != nil {
		return nil, fmt.Errorf("get log %d of build %d: %w", logID, buildID, err)
	}

	return resp.Value, nil
}

type queueBuildRequest struct {
	Definition struct {
		ID int `json:"id"`
	} `json:"definition"`
}

// QueueBuild queues a new build of a definition.
func (c *Client) QueueBuild(ctx context.Context, project string, definitionID int) (Build, error) {
	if definitionID <= 0 {
		return Build{}, fmt.Errorf("queue build: %w: definition id %d", ErrInvalidInput, definitionID)
	}

	var req queueBuildRequest
	req.Definition.ID = definitionID

	var queued Build

	err := c.write(ctx, http.MethodPost, buildsRef(project)+"?api-version=2.0", contentTypeJSON, req, &queued)
	if err != nil {
		return Build{}, fmt.Errorf("queue build of definition %d: %w", definitionID, err)
	}

	return queued, nil
}
