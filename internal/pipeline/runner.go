package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yshiproto/lazy-email-to-spreadsheet/internal/gmail"
	"github.com/yshiproto/lazy-email-to-spreadsheet/internal/llm"
	"github.com/yshiproto/lazy-email-to-spreadsheet/internal/logging"
	"github.com/yshiproto/lazy-email-to-spreadsheet/internal/state"
	"github.com/yshiproto/lazy-email-to-spreadsheet/internal/tracker"
)

// MessageSource lists and fetches Gmail messages.
type MessageSource interface {
	ListMessageIDs(ctx context.Context, query string, max int) ([]string, error)
	FetchMessage(ctx context.Context, id string) (gmail.Message, error)
}

// Extractor turns email text into structured application fields.
type Extractor interface {
	Extract(ctx context.Context, content string) (llm.Extraction, error)
}

// SheetWriter reads and writes the tracking spreadsheet.
type SheetWriter interface {
	ExistingApplications(ctx context.Context) (map[tracker.Key]tracker.RowRef, error)
	AppendApplications(ctx context.Context, apps []tracker.Application) (int, error)
	UpdateRow(ctx context.Context, upd tracker.Update) error
}

// Options control a single pipeline run.
type Options struct {
	Since     string // YYYY-MM-DD, inclusive
	Until     string // YYYY-MM-DD, exclusive; empty means no upper bound
	MaxEmails int    // 0 means unlimited
	DryRun    bool
}

// Result summarizes what a run did.
type Result struct {
	Listed    int
	Skipped   int // already processed in a previous run
	Extracted int
	Failed    int
	Appended  int
	Updated   int
	Duplicate int // matched an existing row with no status progress
}

// Runner drives one sync: list messages, extract each unprocessed one,
// reconcile against the sheet, and write the plan.
type Runner struct {
	source MessageSource
	llm    Extractor
	sheet  SheetWriter
	state  *state.Manager
	logger *slog.Logger
}

// NewRunner assembles a pipeline over the given collaborators.
func NewRunner(source MessageSource, extractor Extractor, sheet SheetWriter, st *state.Manager, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		source: source,
		llm:    extractor,
		sheet:  sheet,
		state:  st,
		logger: logger,
	}
}

// Run executes the pipeline. The checkpoint is saved before returning,
// including on context cancellation, so an interrupted run resumes
// where it stopped. Dry runs never touch the checkpoint.
func (r *Runner) Run(ctx context.Context, opts Options) (Result, error) {
	var res Result

	query := gmail.BuildQuery(opts.Since, opts.Until)
	r.logger.Info("listing messages", "query", query)

	ids, err := r.source.ListMessageIDs(ctx, query, opts.MaxEmails)
	if err != nil {
		return res, fmt.Errorf("list messages: %w", err)
	}
	res.Listed = len(ids)

	pending := r.state.Unprocessed(ids)
	res.Skipped = len(ids) - len(pending)
	r.logger.Info("messages to process",
		logging.Count(len(pending)),
		"already_processed", res.Skipped)

	if !opts.DryRun {
		r.state.SetSinceDate(opts.Since)
	}

	apps, runErr := r.extractAll(ctx, pending, opts.DryRun, &res)

	if len(apps) > 0 {
		if err := r.write(ctx, apps, opts.DryRun, &res); err != nil && runErr == nil {
			runErr = err
		}
	}

	if opts.DryRun {
		return res, runErr
	}

	if err := r.state.Save(); err != nil {
		r.logger.Warn("failed to save checkpoint", logging.Err(err))
		if runErr == nil {
			runErr = err
		}
	}
	return res, runErr
}

// extractAll fetches and extracts each pending message. Per-message
// failures are logged and checkpointed so the run keeps going; only
// context cancellation stops the loop early. Dry runs leave the
// checkpoint untouched so the previewed messages are still written by
// the next real run.
func (r *Runner) extractAll(ctx context.Context, ids []string, dryRun bool, res *Result) ([]tracker.Application, error) {
	var apps []tracker.Application

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("run interrupted, saving progress",
				"remaining", len(ids)-res.Extracted-res.Failed)
			return apps, err
		}

		app, ok := r.processMessage(ctx, id, res)
		if !dryRun {
			r.state.MarkProcessed(id)
		}
		if ok {
			apps = append(apps, app)
			res.Extracted++
		}
	}
	return apps, nil
}

// processMessage handles one message end to end. A false return means
// the message yielded no usable application; the caller still marks it
// processed so it is not retried forever.
func (r *Runner) processMessage(ctx context.Context, id string, res *Result) (tracker.Application, bool) {
	msg, err := r.source.FetchMessage(ctx, id)
	if err != nil {
		r.logger.Warn("failed to fetch message",
			logging.MessageID(id), logging.Err(err))
		res.Failed++
		return tracker.Application{}, false
	}

	if msg.Content == "" {
		r.logger.Debug("message has no text content",
			logging.MessageID(id), logging.Sender(msg.Sender))
		res.Failed++
		return tracker.Application{}, false
	}

	ext, err := r.llm.Extract(ctx, msg.Content)
	if err != nil {
		r.logger.Warn("extraction failed",
			logging.MessageID(id), logging.Err(err))
		res.Failed++
		return tracker.Application{}, false
	}

	if ext.Company == "" || ext.Company == "Unknown" {
		r.logger.Debug("no company extracted, skipping",
			logging.MessageID(id), "subject", msg.Subject)
		res.Failed++
		return tracker.Application{}, false
	}

	app := tracker.Application{
		Company:       ext.Company,
		Role:          ext.Role,
		Status:        tracker.ParseStatus(ext.RawStatus),
		DateSubmitted: msg.DateSent.Format("2006-01-02"),
		EmailLink:     msg.Link,
	}

	r.logger.Info("extracted application",
		logging.MessageID(id),
		slog.String(logging.KeyCompany, app.Company),
		slog.String(logging.KeyRole, app.Role),
		logging.Status(string(app.Status)))
	return app, true
}

// write reconciles the extracted batch against the sheet and applies
// the resulting plan. In dry-run mode the plan is logged but nothing
// is written.
func (r *Runner) write(ctx context.Context, apps []tracker.Application, dryRun bool, res *Result) error {
	existing, err := r.sheet.ExistingApplications(ctx)
	if err != nil {
		return fmt.Errorf("read existing rows: %w", err)
	}

	plan := tracker.Reconcile(existing, apps)
	res.Duplicate = plan.Skipped
	r.logger.Info("reconciled batch against sheet",
		"appends", len(plan.Appends),
		"updates", len(plan.Updates),
		"duplicates", plan.Skipped)

	if dryRun {
		for _, app := range plan.Appends {
			r.logger.Info("dry-run: would append",
				slog.String(logging.KeyCompany, app.Company),
				slog.String(logging.KeyRole, app.Role),
				logging.Status(string(app.Status)))
		}
		for _, upd := range plan.Updates {
			r.logger.Info("dry-run: would update",
				"row", upd.Row,
				slog.String(logging.KeyCompany, upd.App.Company),
				logging.Status(string(upd.App.Status)))
		}
		return nil
	}

	if len(plan.Appends) > 0 {
		n, err := r.sheet.AppendApplications(ctx, plan.Appends)
		res.Appended = n
		r.state.MarkWritten(n)
		if err != nil {
			return fmt.Errorf("append rows: %w", err)
		}
	}

	for _, upd := range plan.Updates {
		if err := r.sheet.UpdateRow(ctx, upd); err != nil {
			return fmt.Errorf("update row %d: %w", upd.Row, err)
		}
		res.Updated++
	}
	r.state.MarkWritten(res.Updated)

	return nil
}
