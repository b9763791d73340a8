package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// CreateJob submits one job-creation request to the operation's endpoint.
// Requests carrying a source image go out as multipart form data; all others
// as JSON.
func (c *Client) CreateJob(ctx context.Context, op Operation, req CreateJobRequest) (CreateJobResponse, error) {
	var resp CreateJobResponse
	endpoint := c.endpoint("api", "queue", string(op))
	if len(req.SourceImage) > 0 {
		if err := c.postMultipart(ctx, endpoint, req, &resp); err != nil {
			return CreateJobResponse{}, err
		}
		return resp, nil
	}
	if err := c.postJSON(ctx, endpoint, req, &resp); err != nil {
		return CreateJobResponse{}, err
	}
	return resp, nil
}

// CancelJob requests cancellation of one active job. Cancellation is a
// request to the backend, not a local abort.
func (c *Client) CancelJob(ctx context.Context, id string) error {
	return c.do(ctx, "DELETE", c.endpoint("api", "queue", url.PathEscape(id)), nil, "", nil)
}

// CancelAll requests cancellation of every active job.
func (c *Client) CancelAll(ctx context.Context) (CancelAllResponse, error) {
	var resp CancelAllResponse
	if err := c.postJSON(ctx, c.endpoint("api", "queue", "cancel-all"), struct{}{}, &resp); err != nil {
		return CancelAllResponse{}, err
	}
	return resp, nil
}

// ListGenerations fetches one page of the jobs list, newest first.
func (c *Client) ListGenerations(ctx context.Context, page, pageSize int) (Page, error) {
	if page < 1 {
		page = 1
	}
	endpoint := fmt.Sprintf("%s?page=%d&pageSize=%d", c.endpoint("api", "generations"), page, pageSize)
	var result Page
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return Page{}, err
	}
	if result.Page == 0 {
		result.Page = page
	}
	if result.PageSize == 0 {
		result.PageSize = pageSize
	}
	return result, nil
}

// GetGeneration fetches the full record for one job, images included.
func (c *Client) GetGeneration(ctx context.Context, id string) (Generation, error) {
	var result Generation
	if err := c.getJSON(ctx, c.endpoint("api", "generations", url.PathEscape(id)), &result); err != nil {
		return Generation{}, err
	}
	return result, nil
}

// DeleteGeneration removes one job record permanently.
func (c *Client) DeleteGeneration(ctx context.Context, id string) error {
	return c.do(ctx, "DELETE", c.endpoint("api", "generations", url.PathEscape(id)), nil, "", nil)
}

// DeleteAllGenerations removes every job record, optionally deleting the
// stored image files along with them.
func (c *Client) DeleteAllGenerations(ctx context.Context, deleteFiles bool) (DeleteAllResponse, error) {
	endpoint := c.endpoint("api", "generations")
	if deleteFiles {
		endpoint += "?delete_files=" + strconv.FormatBool(deleteFiles)
	}
	var resp DeleteAllResponse
	if err := c.do(ctx, "DELETE", endpoint, nil, "", &resp); err != nil {
		return DeleteAllResponse{}, err
	}
	return resp, nil
}
