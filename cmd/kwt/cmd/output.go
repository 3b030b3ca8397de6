package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	apiclient "github.com/donaldgifford/keyword-tracker/internal/api/client"
	"github.com/donaldgifford/keyword-tracker/internal/api/handlers"
	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printKeywordTable(w io.Writer, views []handlers.KeywordView) error {
	tw := newTabWriter(w)
	tw.writef("KEYWORD\tVIEWS\tITEMS\tDIFFICULTY\tCOST\tVOLUME\tTREND\n")
	for i := range views {
		v := &views[i]
		if v.Error != "" {
			tw.writef("%s\t-\t-\t-\t-\t-\terror: %s\n", truncate(v.Keyword, 40), truncate(v.Error, 40))
			continue
		}
		tw.writef("%s\t%s\t%s\t%d\t%.2f\t%s\t%s\n",
			truncate(v.Keyword, 40),
			v.ViewsDisplay,
			v.ItemsDisplay,
			v.Metrics.Difficulty,
			v.Metrics.CostProxy,
			v.Metrics.VolumeBucket,
			trendText(v.Metrics.Trend),
		)
	}
	return tw.finish()
}

func printKeywordDetail(w io.Writer, v *handlers.KeywordView) error {
	tw := newTabWriter(w)
	tw.writef("Keyword:\t%s\n", v.Keyword)
	tw.writef("Estimated Views:\t%d (%s)\n", v.Metrics.EstimatedViews, v.ViewsDisplay)
	tw.writef("Items:\t%d (%s)\n", v.Metrics.TotalItemCount, v.ItemsDisplay)
	tw.writef("Difficulty:\t%d/100\n", v.Metrics.Difficulty)
	tw.writef("Cost Proxy:\t%.2f\n", v.Metrics.CostProxy)
	tw.writef("Volume:\t%s\n", v.Metrics.VolumeBucket)
	if v.Metrics.Trend != nil {
		tw.writef("Trend:\t%s\n", *v.Metrics.Trend)
	}
	return tw.finish()
}

func printTaskTable(w io.Writer, tasks []domain.Task) error {
	tw := newTabWriter(w)
	tw.writef("ID\tNAME\tOWNER\tSTATUS\tKEYWORDS\tLAST CHECKED\n")
	for i := range tasks {
		t := &tasks[i]
		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			truncate(t.Name, 30),
			t.Owner,
			t.Status,
			truncate(t.Keywords, 40),
			timeOrDash(t.LastCheckedAt),
		)
	}
	return tw.finish()
}

func printTaskDetail(w io.Writer, t *domain.Task) error {
	tw := newTabWriter(w)
	tw.writef("ID:\t%s\n", t.ID)
	tw.writef("Name:\t%s\n", t.Name)
	tw.writef("Owner:\t%s\n", t.Owner)
	tw.writef("Status:\t%s\n", t.Status)
	tw.writef("Keywords:\t%s\n", strings.Join(t.KeywordList(), ", "))
	tw.writef("Last Checked:\t%s\n", timeOrDash(t.LastCheckedAt))
	tw.writef("Created:\t%s\n", t.CreatedAt.Format(timeLayout))
	return tw.finish()
}

func printLogTable(w io.Writer, logs []domain.MetricsLog) error {
	tw := newTabWriter(w)
	tw.writef("RECORDED\tKEYWORD\tVIEWS\tDIFFICULTY\tVOLUME\tERROR\n")
	for i := range logs {
		l := &logs[i]
		for j := range l.Keywords {
			k := &l.Keywords[j]
			tw.writef("%s\t%s\t%d\t%d\t%s\t%s\n",
				l.RecordedAt.Format(timeLayout),
				truncate(k.Keyword, 40),
				k.Metrics.EstimatedViews,
				k.Metrics.Difficulty,
				k.Metrics.VolumeBucket,
				truncate(k.Error, 40),
			)
		}
	}
	return tw.finish()
}

func printBatchResult(w io.Writer, res *apiclient.BatchResult) error {
	tw := newTabWriter(w)
	tw.writef("TASK\tNAME\tRESULT\tKEYWORD ERRORS\tDETAIL\n")
	for i := range res.Outcomes {
		o := &res.Outcomes[i]
		result, detail := "ok", o.LogID
		if !o.Success {
			result, detail = "failed", truncate(o.Error, 40)
		}
		tw.writef("%s\t%s\t%s\t%d\t%s\n", o.TaskID, truncate(o.TaskName, 30), result, o.KeywordErrors, detail)
	}
	tw.writef("\nTasks: %d, succeeded: %d, failed: %d\n", res.Tasks, res.Succeeded, res.Failed)
	return tw.finish()
}

func printJobRunsTable(w io.Writer, runs []domain.JobRun) error {
	tw := newTabWriter(w)
	tw.writef("JOB\tSTATUS\tSTARTED\tCOMPLETED\tERROR\n")
	for i := range runs {
		r := &runs[i]
		tw.writef("%s\t%s\t%s\t%s\t%s\n",
			r.JobName,
			r.Status,
			r.StartedAt.Format(timeLayout),
			timeOrDash(r.CompletedAt),
			truncate(r.ErrorText, 40),
		)
	}
	return tw.finish()
}

func printQuota(w io.Writer, q *apiclient.Quota) error {
	tw := newTabWriter(w)
	if !q.Limited {
		tw.writef("Daily Limit:\tunlimited\n")
		tw.writef("Used:\t%d\n", q.DailyUsed)
		return tw.finish()
	}
	tw.writef("Daily Limit:\t%d\n", q.DailyLimit)
	tw.writef("Used:\t%d\n", q.DailyUsed)
	tw.writef("Remaining:\t%d\n", q.Remaining)
	if q.ResetAt != nil {
		tw.writef("Resets:\t%s\n", q.ResetAt.Format(timeLayout))
	}
	return tw.finish()
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func trendText(t *domain.Trend) string {
	if t == nil {
		return "-"
	}
	return string(*t)
}

func timeOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(timeLayout)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
