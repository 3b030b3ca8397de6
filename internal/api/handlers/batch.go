package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

// BatchRunner runs one pass over every active task.
type BatchRunner interface {
	RunBatch(ctx context.Context) ([]domain.TaskOutcome, error)
}

// BatchHandler handles manual batch triggers.
type BatchHandler struct {
	runner BatchRunner
}

// NewBatchHandler creates a new BatchHandler.
func NewBatchHandler(r BatchRunner) *BatchHandler {
	return &BatchHandler{runner: r}
}

// BatchOutput is the response body for a batch run.
type BatchOutput struct {
	Body struct {
		Tasks     int                  `json:"tasks"     example:"12" doc:"Active tasks processed"`
		Succeeded int                  `json:"succeeded" example:"11" doc:"Tasks that wrote a metrics log"`
		Failed    int                  `json:"failed"    example:"1"  doc:"Tasks that did not"`
		Outcomes  []domain.TaskOutcome `json:"outcomes"                doc:"Per-task outcomes in task order"`
	}
}

// Run processes every active task synchronously.
func (h *BatchHandler) Run(ctx context.Context, _ *struct{}) (*BatchOutput, error) {
	outcomes, err := h.runner.RunBatch(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("batch run failed: " + err.Error())
	}
	if outcomes == nil {
		outcomes = []domain.TaskOutcome{}
	}

	out := &BatchOutput{}
	out.Body.Tasks = len(outcomes)
	for _, o := range outcomes {
		if o.Success {
			out.Body.Succeeded++
		}
	}
	out.Body.Failed = out.Body.Tasks - out.Body.Succeeded
	out.Body.Outcomes = outcomes
	return out, nil
}

// RegisterBatchRoutes registers the batch trigger with the Huma API.
func RegisterBatchRoutes(api huma.API, h *BatchHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "run-batch",
		Method:      http.MethodPost,
		Path:        "/api/v1/batch",
		Summary:     "Run a batch",
		Description: "Estimates every active task and appends one metrics log entry per successful task.",
		Tags:        []string{"batch"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.Run)
}
