package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yshiproto/lazy-email-to-spreadsheet/internal/config"
	"github.com/yshiproto/lazy-email-to-spreadsheet/internal/gmail"
	"github.com/yshiproto/lazy-email-to-spreadsheet/internal/google"
	"github.com/yshiproto/lazy-email-to-spreadsheet/internal/llm"
	"github.com/yshiproto/lazy-email-to-spreadsheet/internal/logging"
	"github.com/yshiproto/lazy-email-to-spreadsheet/internal/pipeline"
	"github.com/yshiproto/lazy-email-to-spreadsheet/internal/sheets"
	"github.com/yshiproto/lazy-email-to-spreadsheet/internal/state"
)

type syncOptions struct {
	since       string
	until       string
	spreadsheet string
	sheetName   string
	model       string
	maxEmails   int
	reset       bool
	dryRun      bool
}

func newSyncCmd() *cobra.Command {
	var opts syncOptions

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Read job application emails and write them to the spreadsheet",
		Long: `Scan the Gmail primary inbox for emails received since the given date,
extract company, role, and status from each with the local Ollama
model, and append or update rows in the tracking spreadsheet.

Already-processed emails (tracked in the checkpoint file) are skipped,
so the command can be re-run or interrupted safely.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.since, "since", "", "Only process emails on or after this date (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&opts.until, "until", "", "Only process emails before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.spreadsheet, "spreadsheet-id", "", "Spreadsheet ID or full Google Sheets URL (default: SPREADSHEET_ID env)")
	cmd.Flags().StringVar(&opts.sheetName, "sheet-name", "", "Tab name inside the spreadsheet (default: "+config.DefaultSheetName+")")
	cmd.Flags().StringVar(&opts.model, "model", "", "Ollama model to use (default: "+config.DefaultOllamaModel+")")
	cmd.Flags().IntVar(&opts.maxEmails, "max-emails", 0, "Stop after this many emails (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.reset, "reset", false, "Discard the checkpoint and reprocess everything")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Extract and report, but write nothing to the spreadsheet")
	_ = cmd.MarkFlagRequired("since")

	return cmd
}

func runSync(cmd *cobra.Command, opts syncOptions) error {
	logger := logging.Setup(verbose)

	if err := validateDate(opts.since); err != nil {
		return fmt.Errorf("invalid --since: %w", err)
	}
	if opts.until != "" {
		if err := validateDate(opts.until); err != nil {
			return fmt.Errorf("invalid --until: %w", err)
		}
		if opts.until <= opts.since {
			return fmt.Errorf("--until (%s) must be after --since (%s)", opts.until, opts.since)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.ApplyOverrides(sheets.ParseSpreadsheetID(opts.spreadsheet), opts.sheetName, opts.model)
	if cfg.SpreadsheetID == "" {
		return errors.New("no spreadsheet configured: pass --spreadsheet-id or set SPREADSHEET_ID")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := state.NewManager(cfg.StatePath, logger)
	resumed, err := st.Load()
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.reset {
		if err := st.Reset(); err != nil {
			return err
		}
		logger.Info("checkpoint reset")
	} else if resumed && st.HasPreviousSession() {
		if prev := st.SinceDate(); prev != "" && prev != opts.since {
			logger.Warn("checkpoint was created with a different --since date",
				"checkpoint_since", prev, "since", opts.since)
		}
		logger.Info("resuming from checkpoint")
	}

	auth := google.NewAuthenticator(cfg.CredentialsPath, cfg.TokenPath)
	if !auth.HasToken() {
		return errors.New("no Google token stored: run `lazy-email-to-spreadsheet auth` first")
	}
	httpClient, err := auth.HTTPClient(ctx)
	if err != nil {
		return err
	}

	gm, err := gmail.NewClient(ctx, httpClient, cfg.GmailRequestsPerSecond, logger)
	if err != nil {
		return err
	}
	addr, err := gm.Profile(ctx)
	if err != nil {
		return fmt.Errorf("Gmail auth check failed: %w", err)
	}
	logger.Info("Gmail ready", logging.Sender(addr))

	sh, err := sheets.NewClient(ctx, httpClient, cfg.SpreadsheetID, cfg.SheetName,
		cfg.SheetsWritesPerMinute, cfg.SheetsBatchSize, logger)
	if err != nil {
		return err
	}
	title, err := sh.Verify(ctx)
	if err != nil {
		return err
	}
	logger.Info("spreadsheet ready", "title", title, "sheet", cfg.SheetName)

	ex, err := llm.New(cfg.OllamaHost, cfg.OllamaModel, logger)
	if err != nil {
		return err
	}
	if err := ex.Verify(ctx); err != nil {
		return err
	}
	logger.Info("Ollama ready", "model", ex.Model())

	runner := pipeline.NewRunner(gm, ex, sh, st, logger)
	res, runErr := runner.Run(ctx, pipeline.Options{
		Since:     opts.since,
		Until:     opts.until,
		MaxEmails: opts.maxEmails,
		DryRun:    opts.dryRun,
	})

	interrupted := errors.Is(runErr, context.Canceled)
	if runErr != nil && !interrupted {
		return runErr
	}

	if !opts.dryRun && (res.Appended > 0 || res.Updated > 0) {
		if err := sh.RenameWithDate(context.WithoutCancel(ctx), time.Now()); err != nil {
			logger.Warn("failed to stamp spreadsheet title", logging.Err(err))
		}
	}

	printReport(cmd, res, opts.dryRun)
	cmd.Println(st.Summary())
	if interrupted {
		cmd.Println("\nInterrupted: progress saved, re-run to resume.")
	}
	return nil
}

func printReport(cmd *cobra.Command, res pipeline.Result, dryRun bool) {
	if dryRun {
		cmd.Println("Dry run: no rows were written.")
	}
	cmd.Printf("Emails matched: %d (already processed: %d)\n", res.Listed, res.Skipped)
	cmd.Printf("Applications extracted: %d (failed/unusable: %d)\n", res.Extracted, res.Failed)
	cmd.Printf("Rows appended: %d, updated: %d, duplicates skipped: %d\n\n",
		res.Appended, res.Updated, res.Duplicate)
}

// validateDate checks the YYYY-MM-DD form used by --since and --until.
func validateDate(s string) error {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("%q is not a YYYY-MM-DD date", s)
	}
	return nil
}
