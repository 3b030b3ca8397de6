package client

import (
	"context"
	"net/url"
	"strconv"

	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

// ListJobs returns the latest run of each scheduled job.
func (c *Client) ListJobs(ctx context.Context) ([]domain.JobRun, error) {
	var runs []domain.JobRun
	err := c.get(ctx, "/api/v1/jobs", &runs)
	return runs, err
}

// GetJobHistory returns recent runs of jobName, newest first. limit <= 0
// leaves the page size to the server.
func (c *Client) GetJobHistory(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var runs []domain.JobRun
	err := c.get(ctx, withQuery("/api/v1/jobs/"+url.PathEscape(jobName), params), &runs)
	return runs, err
}
