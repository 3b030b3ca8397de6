// Package domain defines the core business types for the keyword tracker.
package domain

import (
	"strings"
	"time"
)

// TaskStatus represents the lifecycle state of a tracking task.
type TaskStatus string

// Task status constants.
const (
	TaskActive TaskStatus = "active"
	TaskPaused TaskStatus = "paused"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	return s == TaskActive || s == TaskPaused
}

// VolumeBucket is a coarse popularity tier derived from estimated views.
type VolumeBucket string

// Volume bucket constants, highest tier first.
const (
	Volume1B    VolumeBucket = "1B+"
	Volume1M    VolumeBucket = "1M+"
	Volume500K  VolumeBucket = "500K+"
	Volume100K  VolumeBucket = "100K+"
	Volume10K   VolumeBucket = "10K+"
	VolumeUnder VolumeBucket = "<10K"
)

// Trend classifies a keyword's views relative to its cohort baseline.
type Trend string

// Trend constants.
const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Task is a tracked unit of work: one or more keywords checked on every
// batch run while the task is active.
type Task struct {
	ID            string     `json:"id"                        db:"id"              bson:"_id"`
	Name          string     `json:"name"                      db:"name"            bson:"name"`
	Owner         string     `json:"owner"                     db:"owner"           bson:"owner"`
	Keywords      string     `json:"keywords"                  db:"keywords"        bson:"keywords"`
	Status        TaskStatus `json:"status"                    db:"status"          bson:"status"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty" db:"last_checked_at" bson:"last_checked_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"                db:"created_at"      bson:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"                db:"updated_at"      bson:"updated_at"`
}

// KeywordList splits the comma-joined keyword string, trimming each entry
// and dropping empty ones. Order is preserved.
func (t *Task) KeywordList() []string {
	return SplitKeywords(t.Keywords)
}

// SplitKeywords splits a comma-joined keyword string into trimmed,
// non-empty keywords.
func SplitKeywords(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// KeywordMetrics is the scored estimate for a single keyword.
type KeywordMetrics struct {
	EstimatedViews int64        `json:"estimated_views"  bson:"estimated_views"`
	TotalItemCount int          `json:"total_item_count" bson:"total_item_count"`
	Difficulty     int          `json:"difficulty"       bson:"difficulty"`
	CostProxy      float64      `json:"cost_proxy"       bson:"cost_proxy"`
	VolumeBucket   VolumeBucket `json:"volume_bucket"    bson:"volume_bucket"`
	Trend          *Trend       `json:"trend,omitempty"  bson:"trend,omitempty"`
}

// KeywordResult pairs a keyword with its metrics. Error is set when the
// keyword could not be estimated; Metrics is then the zero value.
type KeywordResult struct {
	Keyword string         `json:"keyword"         bson:"keyword"`
	Metrics KeywordMetrics `json:"metrics"         bson:"metrics"`
	Error   string         `json:"error,omitempty" bson:"error,omitempty"`
}

// Failed reports whether the keyword could not be estimated.
func (r *KeywordResult) Failed() bool {
	return r.Error != ""
}

// MetricsLog is the write-once snapshot produced by one pass over a task.
type MetricsLog struct {
	ID         string          `json:"id"          db:"id"          bson:"_id"`
	TaskID     string          `json:"task_id"     db:"task_id"     bson:"task_id"`
	RecordedAt time.Time       `json:"recorded_at" db:"recorded_at" bson:"recorded_at"`
	Keywords   []KeywordResult `json:"keywords"    db:"keywords"    bson:"keywords"`
}

// TaskOutcome reports the result of processing one task during a batch run.
type TaskOutcome struct {
	TaskID        string `json:"task_id"`
	TaskName      string `json:"task_name,omitempty"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
	LogID         string `json:"log_id,omitempty"`
	KeywordErrors int    `json:"keyword_errors,omitempty"`
}

// JobRun records a single execution of a scheduled job.
type JobRun struct {
	ID           string     `json:"id"                      db:"id"            bson:"_id"`
	JobName      string     `json:"job_name"                db:"job_name"      bson:"job_name"`
	StartedAt    time.Time  `json:"started_at"              db:"started_at"    bson:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"  db:"completed_at"  bson:"completed_at,omitempty"`
	Status       string     `json:"status"                  db:"status"        bson:"status"`
	ErrorText    string     `json:"error_text,omitempty"    db:"error_text"    bson:"error_text,omitempty"`
	RowsAffected *int       `json:"rows_affected,omitempty" db:"rows_affected" bson:"rows_affected,omitempty"`
}
