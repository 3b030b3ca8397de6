package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/keyword-tracker/internal/engine"
	score "github.com/donaldgifford/keyword-tracker/pkg/scorer"
	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

// KeywordEstimator is the subset of the engine used by the estimate routes.
type KeywordEstimator interface {
	EstimateOne(ctx context.Context, keyword string) (*domain.KeywordMetrics, error)
	EstimateWithRetry(ctx context.Context, keyword string) (*domain.KeywordMetrics, error)
	EstimateCohort(ctx context.Context, keywords []string) ([]domain.KeywordResult, error)
	Discover(ctx context.Context, seed string, limit int) ([]domain.KeywordResult, error)
}

// EstimateHandler serves on-demand keyword estimates.
type EstimateHandler struct {
	est KeywordEstimator
}

// NewEstimateHandler creates a new EstimateHandler.
func NewEstimateHandler(est KeywordEstimator) *EstimateHandler {
	return &EstimateHandler{est: est}
}

// KeywordView is a keyword's metrics plus display strings.
type KeywordView struct {
	Keyword      string                `json:"keyword"                 example:"happy birthday"`
	Metrics      domain.KeywordMetrics `json:"metrics"`
	ViewsDisplay string                `json:"views_display"           example:"1.3M" doc:"Estimated views, abbreviated"`
	ItemsDisplay string                `json:"items_display"           example:"500"  doc:"Items observed, abbreviated"`
	Error        string                `json:"error,omitempty"                        doc:"Set when this keyword could not be estimated"`
}

// NewKeywordView formats a keyword result for display.
func NewKeywordView(r domain.KeywordResult) KeywordView {
	return KeywordView{
		Keyword:      r.Keyword,
		Metrics:      r.Metrics,
		ViewsDisplay: score.FormatCount(r.Metrics.EstimatedViews),
		ItemsDisplay: score.FormatCount(int64(r.Metrics.TotalItemCount)),
		Error:        r.Error,
	}
}

func keywordViews(results []domain.KeywordResult) []KeywordView {
	out := make([]KeywordView, len(results))
	for i := range results {
		out[i] = NewKeywordView(results[i])
	}
	return out
}

// EstimateInput is the request body for a single-keyword estimate.
type EstimateInput struct {
	Body struct {
		Keyword string `json:"keyword"         minLength:"1" maxLength:"200" doc:"Keyword to estimate" example:"happy birthday"`
		Retry   bool   `json:"retry,omitempty" doc:"Retry failed attempts with exponential backoff"`
	}
}

// EstimateOutput is the response body for a single-keyword estimate.
type EstimateOutput struct {
	Body KeywordView
}

// Estimate scores one keyword. Trend is never set.
func (h *EstimateHandler) Estimate(ctx context.Context, input *EstimateInput) (*EstimateOutput, error) {
	estimate := h.est.EstimateOne
	if input.Body.Retry {
		estimate = h.est.EstimateWithRetry
	}

	m, err := estimate(ctx, input.Body.Keyword)
	if err != nil {
		return nil, estimateError(err)
	}

	return &EstimateOutput{Body: NewKeywordView(domain.KeywordResult{
		Keyword: strings.TrimSpace(input.Body.Keyword),
		Metrics: *m,
	})}, nil
}

// CohortInput is the request body for a cohort estimate.
type CohortInput struct {
	Body struct {
		Keywords []string `json:"keywords" minItems:"1" maxItems:"50" doc:"Keywords scored against their mean views"`
	}
}

// KeywordsOutput is a list of keyword estimates.
type KeywordsOutput struct {
	Body struct {
		Keywords []KeywordView `json:"keywords"`
	}
}

// Cohort scores keywords against the cohort mean.
func (h *EstimateHandler) Cohort(ctx context.Context, input *CohortInput) (*KeywordsOutput, error) {
	results, err := h.est.EstimateCohort(ctx, input.Body.Keywords)
	if err != nil {
		return nil, estimateError(err)
	}

	out := &KeywordsOutput{}
	out.Body.Keywords = keywordViews(results)
	return out, nil
}

// DiscoverInput is the query for keyword discovery.
type DiscoverInput struct {
	Query string `query:"q"     required:"true" minLength:"1" doc:"Seed phrase" example:"birthday"`
	Limit int    `query:"limit" minimum:"1" maximum:"50" default:"20" doc:"Maximum keywords to return"`
}

// Discover suggests related keywords and scores them as a cohort.
func (h *EstimateHandler) Discover(ctx context.Context, input *DiscoverInput) (*KeywordsOutput, error) {
	results, err := h.est.Discover(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, estimateError(err)
	}

	out := &KeywordsOutput{}
	out.Body.Keywords = keywordViews(results)
	return out, nil
}

func estimateError(err error) error {
	if errors.Is(err, engine.ErrEmptyKeyword) {
		return huma.Error400BadRequest("keyword must not be blank")
	}
	return huma.Error500InternalServerError("estimation failed: " + err.Error())
}

// RegisterEstimateRoutes registers estimate and discovery endpoints with the Huma API.
func RegisterEstimateRoutes(api huma.API, h *EstimateHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "estimate-keyword",
		Method:      http.MethodPost,
		Path:        "/api/v1/estimate",
		Summary:     "Estimate one keyword",
		Description: "Samples catalog search results for the keyword and returns difficulty, cost and volume.",
		Tags:        []string{"estimate"},
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, h.Estimate)

	huma.Register(api, huma.Operation{
		OperationID: "estimate-cohort",
		Method:      http.MethodPost,
		Path:        "/api/v1/estimate/cohort",
		Summary:     "Estimate a keyword cohort",
		Description: "Estimates keywords concurrently and sets each trend against the cohort's mean views.",
		Tags:        []string{"estimate"},
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, h.Cohort)

	huma.Register(api, huma.Operation{
		OperationID: "discover-keywords",
		Method:      http.MethodGet,
		Path:        "/api/v1/keywords",
		Summary:     "Discover related keywords",
		Description: "Expands a seed phrase through catalog tags and estimates the matches as a cohort.",
		Tags:        []string{"estimate"},
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, h.Discover)
}
