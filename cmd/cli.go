package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/schollz/progressbar/v3"

	"songfetch/services"
	"songfetch/types"
)

// RunBatch downloads every reference in text, drawing a progress bar on w
func RunBatch(ctx context.Context, app *App, text string, format types.Format, w io.Writer) (*types.BatchReport, error) {
	refs := services.ParseReferences(text)
	for _, ref := range refs {
		if !ref.Valid {
			fmt.Fprintf(w, "skipping %q: %s\n", ref.SourceText, ref.ErrorReason)
		}
	}

	total := len(services.ValidReferences(refs))
	bar := progressbar.NewOptions(total*100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
	base := 0

	report, err := app.Orchestrator.RunBatch(ctx, refs, format, func(ev types.ProgressEvent) {
		bar.Describe(fmt.Sprintf("[%d/%d] %s", ev.Index+1, ev.Total, ev.CanonicalID))
		if ev.Status.IsFinished() {
			base += 100
			bar.Set(base)
			return
		}
		bar.Set(base + ev.Progress)
	})
	bar.Finish()
	if report == nil {
		return nil, err
	}

	fmt.Fprintln(w)
	for _, task := range report.Tasks {
		switch task.Status {
		case types.TaskStatusCompleted:
			fmt.Fprintf(w, "  ok      %s -> %s\n", task.CanonicalID, task.OutputFilename)
		case types.TaskStatusFailed:
			fmt.Fprintf(w, "  failed  %s: %s\n", task.CanonicalID, task.FailureReason)
		default:
			fmt.Fprintf(w, "  skipped %s\n", task.CanonicalID)
		}
	}
	fmt.Fprintf(w, "%d/%d downloaded to %s\n", report.Completed(), report.Attempted(), app.Config.DownloadDir())
	return report, err
}

// PrintSearch resolves query and prints the outcome to w
func PrintSearch(ctx context.Context, app *App, query string, order types.SortOrder, w io.Writer) error {
	outcome, err := app.Resolver.Resolve(ctx, query, order)
	if services.IsResolutionKind(err, services.NoMatches) {
		fmt.Fprintln(w, "No results found")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Best match (%s search):\n", outcome.Strategy)
	printTrack(w, *outcome.Primary)
	if lyrics := strings.TrimSpace(outcome.Primary.Lyrics); lyrics != "" {
		fmt.Fprintf(w, "\n%s\n", lyrics)
	}
	if len(outcome.Alternatives) > 0 {
		fmt.Fprintln(w, "\nOther results:")
		for _, t := range outcome.Alternatives {
			printTrack(w, t)
		}
	}
	return nil
}

func printTrack(w io.Writer, t types.CanonicalTrack) {
	fmt.Fprintf(w, "  %s - %s [%s] %s views  https://youtu.be/%s\n",
		t.Artist, t.Title, formatDuration(t.DurationSeconds), formatCount(t.ViewCount), t.CanonicalID)
}

func formatDuration(seconds int) string {
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// IsNoValidReferences reports whether err means the batch had nothing to do
func IsNoValidReferences(err error) bool {
	return errors.Is(err, services.ErrNoValidReferences)
}
