package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"cockpit/internal/config"
	"cockpit/internal/events"
	"cockpit/internal/journal"
	"cockpit/internal/logger"
	"cockpit/internal/pipeline"
	"cockpit/internal/refdata"
	"cockpit/internal/runner"
	"cockpit/internal/session/replay"
	"cockpit/internal/sheets"
	"cockpit/pkg/models"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Validate and post the documents waiting in the cockpit",
	Long: `Run every selected cockpit document through the validation pipeline.

Documents are processed one after another. Each one ends posted, rejected with
a reason, or not found. A lost host session is reopened before the next
document.

The host is bound through a recorded cockpit workbook (--snapshot).

Optional environment variables:
  GOOGLE_SHEET_URL - reference workbook, needed for --refdata sheets and --report
  DATABASE_URL - journal every disposition to Postgres
  KAFKA_BROKERS - publish every disposition to Kafka`,
	Example: `  # Process every document of a recorded cockpit
  cockpit process --snapshot cockpit.json

  # Only company 3B5, reference lists from Google Sheets, report appended
  cockpit process --snapshot cockpit.json --company 3B5 --refdata sheets --report

  # List the documents that would be processed
  cockpit process --snapshot cockpit.json --docs 5105600001,5105600002 --dry-run`,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().String("snapshot", "", "Recorded cockpit workbook (JSON)")
	processCmd.Flags().String("company", "", "Company code to process (default: every configured company)")
	processCmd.Flags().String("docs", "", "Comma separated document numbers (default: every document of the workbook)")
	processCmd.Flags().String("refdata", "snapshot", "Reference list source: sheets or snapshot")
	processCmd.Flags().Bool("report", false, "Append dispositions to the report sheet")
	processCmd.Flags().Bool("dry-run", false, "List the selected documents without processing them")
	_ = processCmd.MarkFlagRequired("snapshot")
}

func runProcess(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("process")

	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	company, _ := cmd.Flags().GetString("company")
	docs, _ := cmd.Flags().GetString("docs")
	source, _ := cmd.Flags().GetString("refdata")
	report, _ := cmd.Flags().GetBool("report")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	company = strings.ToUpper(strings.TrimSpace(company))

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if company != "" && !cfg.HasCompany(company) {
		return fmt.Errorf("company code %s is not configured in COCKPIT_COMPANY_CODES", company)
	}
	if (source == "sheets" || report) && cfg.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL environment variable is required")
	}

	wb, err := replay.LoadFile(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if wb.MaxSessions == 0 {
		wb.MaxSessions = cfg.MaxSecondarySessions
	}

	jobs := selectJobs(wb, splitDocs(docs), company, cfg)

	log.Info().
		Str("snapshot", snapshotPath).
		Str("company", company).
		Str("refdata", source).
		Int("documents", len(jobs)).
		Bool("report", report).
		Bool("dry_run", dryRun).
		Msg("Starting cockpit run")

	if dryRun {
		for _, job := range jobs {
			fmt.Printf("%s\t%s\n", job.CompanyCode, job.DocNumber)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sheetsService *sheets.Service
	if source == "sheets" || report {
		sheetsService, err = sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
		if err != nil {
			return fmt.Errorf("failed to initialize Google Sheets service: %w", err)
		}
	}

	var refs refdata.Store
	switch source {
	case "snapshot":
		refs, err = refdata.FromSnapshot(wb.Refdata)
	case "sheets":
		refs, err = refdata.NewSheetsLoader(sheetsService, cfg.Tabs()).Load(ctx)
	default:
		return fmt.Errorf("unknown reference data source %q: use sheets or snapshot", source)
	}
	if err != nil {
		return fmt.Errorf("failed to load reference data: %w", err)
	}

	sinks, closeSinks, err := openSinks(ctx, cfg, sheetsService, report)
	if err != nil {
		return err
	}
	defer closeSinks()

	r := runner.New(replay.NewHost(wb), refs, runner.Options{
		Pipeline: pipeline.Options{LineMatchTimeout: cfg.LineMatchTimeout},
	}, sinks...)

	summary, err := r.Run(ctx, jobs)
	printSummary(summary)
	if err != nil {
		return fmt.Errorf("run %s stopped: %w", summary.RunID, err)
	}

	log.Info().
		Str("run_id", summary.RunID).
		Int("posted", summary.Posted).
		Int("rejected", summary.Rejected).
		Int("not_found", summary.NotFound).
		Msg("Cockpit run completed successfully")
	return nil
}

// openSinks builds the disposition sinks the environment asks for. The
// returned func releases their connections.
func openSinks(ctx context.Context, cfg *config.Config, sheetsService *sheets.Service, report bool) ([]runner.Sink, func(), error) {
	const op = "openSinks"
	log := logger.WithComponent("process-sinks")

	var sinks []runner.Sink
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.DatabaseURL != "" {
		pool, err := journal.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, closeAll, fmt.Errorf("%s: %w", op, err)
		}
		closers = append(closers, pool.Close)

		j := journal.New(pool)
		if err := j.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("%s: %w", op, err)
		}
		sinks = append(sinks, runner.Named("journal", j))
		log.Info().Msg("Disposition journal enabled")
	}

	if len(cfg.KafkaBrokers) > 0 {
		pub := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaDispositionTopic)
		closers = append(closers, func() {
			if err := pub.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close Kafka writer")
			}
		})
		sinks = append(sinks, runner.Named("events", runner.SinkFunc(pub.PublishDisposition)))
		log.Info().
			Strs("brokers", cfg.KafkaBrokers).
			Str("topic", cfg.KafkaDispositionTopic).
			Msg("Disposition events enabled")
	}

	if report {
		sheet := cfg.ReportSheet
		sinks = append(sinks, runner.Named("report", runner.NewBatch(
			func(ctx context.Context, recs []models.DispositionRecord) error {
				return sheetsService.AppendDispositions(ctx, sheet, recs)
			})))
		log.Info().Str("sheet", sheet).Msg("Disposition report enabled")
	}

	return sinks, closeAll, nil
}

// selectJobs picks the documents of a run. Explicit document numbers keep
// their order; unknown ones are still processed so that they end as not
// found.
func selectJobs(wb *replay.Workbook, docs []string, company string, cfg *config.Config) []runner.Job {
	companyOf := make(map[string]string, len(wb.Documents))
	for _, d := range wb.Documents {
		companyOf[d.DocNumber] = d.CompanyCode
	}

	var jobs []runner.Job
	if len(docs) > 0 {
		for _, doc := range docs {
			cc := company
			if cc == "" {
				cc = companyOf[doc]
			}
			jobs = append(jobs, runner.Job{DocNumber: doc, CompanyCode: cc})
		}
		return jobs
	}

	for _, doc := range wb.DocumentNumbers(company) {
		if cc := companyOf[doc]; cfg.HasCompany(cc) {
			jobs = append(jobs, runner.Job{DocNumber: doc, CompanyCode: cc})
		}
	}
	return jobs
}

func splitDocs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printSummary(s runner.Summary) {
	fmt.Printf("Run %s\n", s.RunID)
	for _, rec := range s.Records {
		detail := rec.Disposition.Reason
		if rec.Disposition.PostingNumber != "" {
			detail = rec.Disposition.PostingNumber
		}
		fmt.Printf("  %-12s %-5s %-10s %s\n", rec.DocNumber, rec.CompanyCode, rec.Disposition.Kind, detail)
	}
	fmt.Printf("Posted: %d  Rejected: %d  Not found: %d  Session resets: %d\n",
		s.Posted, s.Rejected, s.NotFound, s.SessionResets)
}
