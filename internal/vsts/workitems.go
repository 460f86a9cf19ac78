package vsts

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/calvinalkan/vsts-cli/internal/names"
)

const (
	// detailBatchSize is the most ids the work items endpoint accepts at once.
	detailBatchSize = 200
	detailWorkers   = 4
)

// detailFields are the fields requested for every work item.
var detailFields = []string{
	"System.Id",
	"System.WorkItemType",
	"System.Title",
	"System.Description",
	"System.AssignedTo",
	"System.State",
	"System.CreatedDate",
	"System.Tags",
}

type wiqlRequest struct {
	Query string `json:"query"`
}

type wiqlResponse struct {
	QueryType       string        `json:"queryType"`
	QueryResultType string        `json:"queryResultType"`
	WorkItems       []WorkItemRef `json:"workItems"`
}

// SearchWorkItems runs a WIQL query in project and returns the matching ids.
func (c *Client) SearchWorkItems(ctx context.Context, project, query string) ([]WorkItemRef, error) {
	ref := "DefaultCollection/" + url.PathEscape(project) + "/_apis/wit/wiql?api-version=1.0"

	var resp wiqlResponse

	err := c.post(ctx, ref, wiqlRequest{Query: query}, &resp)
	if err != nil {
		return nil, fmt.Errorf("search work items: %w", err)
	}

	return resp.WorkItems, nil
}

// WorkItemDetails fetches the fields of the given work items, in the order
// of ids. Large id lists are split into batches fetched concurrently.
func (c *Client) WorkItemDetails(ctx context.Context, ids []int) ([]WorkItemFields, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	batches := make([][]int, 0, (len(ids)+detailBatchSize-1)/detailBatchSize)
	for start := 0; start < len(ids); start += detailBatchSize {
		batches = append(batches, ids[start:min(start+detailBatchSize, len(ids))])
	}

	results := make([][]WorkItemFields, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailWorkers)

	for i, batch := range batches {
		g.Go(func() error {
			fields, err := c.workItemBatch(gctx, batch)
			if err != nil {
				return err
			}

			results[i] = fields

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("get work item details: %w", err)
	}

	out := make([]WorkItemFields, 0, len(ids))
	for _, fields := range results {
		out = append(out, fields...)
	}

	return out, nil
}

func (c *Client) workItemBatch(ctx context.Context, ids []int) ([]WorkItemFields, error) {
	idList := make([]string, len(ids))
	for i, id := range ids {
		idList[i] = strconv.Itoa(id)
	}

	ref := "DefaultCollection/_apis/wit/WorkItems?ids=" + strings.Join(idList, ",") +
		"&fields=" + strings.Join(detailFields, ",") + "&api-version=1.0"

	var resp listResponse[struct {
		ID     int            `json:"id"`
		Fields WorkItemFields `json:"fields"`
	}]

	if err := c.get(ctx, ref, &resp); err != nil {
		return nil, err
	}

	out := make([]WorkItemFields, len(resp.Value))
	for i, v := range resp.Value {
		out[i] = v.Fields
		if out[i].ID == 0 {
			out[i].ID = v.ID
		}
	}

	return out, nil
}

// CreateWorkItem creates a work item of workItemType from a JSON patch
// document. The type name goes through the work item type aliases first.
func (c *Client) CreateWorkItem(ctx context.Context, project, workItemType string, doc []PatchOperation) (NewWorkItem, error) {
	workItemType = names.NormalizeWorkItemType(workItemType)
	if strings.TrimSpace(workItemType) == "" {
		return NewWorkItem{}, fmt.Errorf("create work item: %w: type is empty", ErrInvalidInput)
	}

	if len(doc) == 0 {
		return NewWorkItem{}, fmt.Errorf("create work item: %w: no fields", ErrInvalidInput)
	}

	ref := url.PathEscape(project) + "/_apis/wit/workitems/$" + url.PathEscape(workItemType) + "?api-version=2.2"

	var created NewWorkItem

	err := c.write(ctx, http.MethodPatch, ref, contentTypeJSONPatch, doc, &created)
	if err != nil {
		return NewWorkItem{}, fmt.Errorf("create work item: %w", err)
	}

	return created, nil
}
