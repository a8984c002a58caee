package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"

	"stream-scheduler/internal/adapter"
	"stream-scheduler/internal/auth"
	"stream-scheduler/internal/config"
	"stream-scheduler/internal/domain"
	"stream-scheduler/internal/logger"
	"stream-scheduler/internal/notify"
	"stream-scheduler/internal/repository"
	"stream-scheduler/internal/repository/sqlite"
	"stream-scheduler/internal/service"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	var (
		authorize = pflag.Bool("authorize", false, "Run the interactive OAuth consent flow, store the token, and exit")
		dryRun    = pflag.Bool("dry-run", false, "Verify the channel and check for conflicts without creating broadcasts")
		history   = pflag.Int("history", 0, "Print the N most recent runs and exit")
		cronSpec  = pflag.String("cron", "", "Keep running and schedule runs on this cron expression instead of running once")
	)
	pflag.Parse()

	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Log configuration (excluding secrets)
	cfg.LogConfiguration()

	if *history > 0 {
		if err := printHistory(cfg, *history); err != nil {
			log.Fatalf("Failed to read run history: %v", err)
		}
		return
	}

	if *authorize {
		flow := auth.NewConsentFlow(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.TokenPath, os.Stdin, os.Stdout)
		if _, err := flow.Client(context.Background()); err != nil {
			log.Fatalf("Authorization failed: %v", err)
		}
		return
	}

	if *cronSpec != "" {
		c := cron.New(cron.WithLocation(cfg.Location()))
		if _, err := c.AddFunc(*cronSpec, func() {
			if code := runOnce(cfg, *dryRun); code != 0 {
				log.Printf("Scheduled run finished with exit code %d", code)
			}
		}); err != nil {
			log.Fatalf("Invalid cron expression %q: %v", *cronSpec, err)
		}
		log.Printf("Running on cron schedule %q", *cronSpec)
		c.Run()
		return
	}

	os.Exit(runOnce(cfg, *dryRun))
}

// runOnce performs a complete scheduling run: authenticate, verify the
// channel, process every request, record the run, and email the summary.
// Individual request failures do not change the exit code; only a failed
// verification or a top-level error does.
func runOnce(cfg *config.Config, dryRun bool) int {
	ctx := context.Background()

	// Per-run log capture feeds the summary email's log tail
	capture := logger.NewCapture(200)
	appLog := logger.New(logger.LevelInfo, capture)

	appLog.Info("run started", map[string]interface{}{
		"time": time.Now().In(cfg.Location()).Format("2006-01-02 15:04:05"),
		"zone": cfg.TimeZone,
	})

	provider := auth.NewStoredTokenFlow(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.TokenPath, appLog)
	httpClient, err := provider.Client(ctx)
	if err != nil {
		appLog.Error("authorization failed", map[string]interface{}{"error": err.Error()})
		notifyTopLevelFailure(ctx, cfg, capture, appLog, err)
		return 1
	}
	httpClient.Timeout = cfg.APITimeout

	api := adapter.NewYouTubeAdapter(httpClient, appLog)
	var detector domain.ConflictDetector = service.NewConflictDetector(api, cfg.ExpectedChannelID, cfg.ConflictWindowMinutes, cfg.UpcomingPageSize, appLog)
	var scheduler domain.SchedulerService = service.NewScheduler(api, detector, service.SchedulerConfig{
		ExpectedChannelID:   cfg.ExpectedChannelID,
		Location:            cfg.Location(),
		Anchor:              time.Sunday,
		CategoryID:          cfg.CategoryID,
		PrimaryLabelKeyword: cfg.PrimaryLabelKeyword,
		DescriptionBlurb:    cfg.DescriptionBlurb,
	}, appLog)

	// Identity verification gates the entire run
	if _, err := scheduler.VerifyChannel(ctx); err != nil {
		notifyTopLevelFailure(ctx, cfg, capture, appLog, err)
		return 1
	}

	reqs := cfg.ScheduleRequests()

	if dryRun {
		return dryRunCheck(ctx, scheduler, detector, reqs, appLog)
	}

	summary := scheduler.ScheduleAll(ctx, reqs)

	recordRun(ctx, cfg, summary, appLog)

	if cfg.EmailConfigured() {
		if err := newNotifier(cfg, appLog).Notify(ctx, summary, capture.Lines()); err != nil {
			// The scheduling work is done; a notification failure is not fatal
			appLog.Error("failed to send summary email", map[string]interface{}{"error": err.Error()})
		}
	}

	return 0
}

// dryRunCheck reports what a real run would do without any upstream mutation
func dryRunCheck(ctx context.Context, scheduler domain.SchedulerService, detector domain.ConflictDetector, reqs []domain.ScheduleRequest, appLog *logger.Logger) int {
	for _, req := range reqs {
		if req.StreamID == "" {
			appLog.Error("request has no stream ID", map[string]interface{}{"label": req.Label})
			continue
		}
		start, plan := scheduler.Plan(req)
		conflict, err := detector.HasConflict(ctx, req.StreamID, start)
		switch {
		case err != nil:
			appLog.Error("conflict check failed", map[string]interface{}{
				"title": plan.Title,
				"error": err.Error(),
			})
		case conflict != nil:
			appLog.Warn("would conflict with existing broadcast", map[string]interface{}{
				"title":    plan.Title,
				"conflict": conflict.Title,
			})
		default:
			appLog.Info("would schedule", map[string]interface{}{
				"title": plan.Title,
				"start": start.Format("2006-01-02 15:04"),
			})
		}
	}
	return 0
}

// recordRun stores the summary in the local history database. Persistence
// failures are logged, never fatal: the run itself already happened.
func recordRun(ctx context.Context, cfg *config.Config, summary *domain.RunSummary, appLog *logger.Logger) {
	db, err := sqlite.NewDB(cfg.DatabasePath)
	if err != nil {
		appLog.Error("failed to open run history database", map[string]interface{}{"error": err.Error()})
		return
	}
	defer db.Close()

	if err := sqlite.Migrate(db.DB); err != nil {
		appLog.Error("failed to migrate run history database", map[string]interface{}{"error": err.Error()})
		return
	}

	var repo repository.RunRepository = sqlite.NewRunRepository(db)
	if err := repo.RecordRun(ctx, summary); err != nil {
		appLog.Error("failed to record run", map[string]interface{}{"error": err.Error()})
	}
}

// notifyTopLevelFailure sends a best-effort email about a run that aborted
// before producing any transaction results
func notifyTopLevelFailure(ctx context.Context, cfg *config.Config, capture *logger.Capture, appLog *logger.Logger, cause error) {
	if !cfg.EmailConfigured() {
		return
	}

	summary := &domain.RunSummary{
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
		Results: []domain.TransactionResult{
			{Title: "Top-level error", Err: cause.Error()},
		},
	}

	if err := newNotifier(cfg, appLog).Notify(ctx, summary, capture.Lines()); err != nil {
		appLog.Error("failed to send failure email", map[string]interface{}{"error": err.Error()})
	}
}

func newNotifier(cfg *config.Config, appLog *logger.Logger) domain.Notifier {
	return notify.NewEmailNotifier(notify.EmailConfig{
		Host:       cfg.SMTPHost,
		Port:       cfg.SMTPPort,
		Sender:     cfg.EmailSender,
		Password:   cfg.EmailPassword,
		Recipients: cfg.EmailRecipients,
	}, cfg.Location(), time.Sunday, appLog)
}

// printHistory prints the most recent recorded runs
func printHistory(cfg *config.Config, limit int) error {
	db, err := sqlite.NewDB(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlite.Migrate(db.DB); err != nil {
		return err
	}

	var repo repository.RunRepository = sqlite.NewRunRepository(db)
	summaries, err := repo.ListRecent(context.Background(), limit)
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	for _, summary := range summaries {
		fmt.Printf("Run %s at %s (%d success, %d failure)\n",
			summary.RunID,
			summary.StartedAt.In(cfg.Location()).Format("2006-01-02 15:04"),
			len(summary.Successes()),
			len(summary.Failures()),
		)
		for _, result := range summary.Results {
			if result.Success {
				fmt.Printf("  ok   %s  %s\n", result.Title, result.Link)
			} else {
				fmt.Printf("  fail %s  %s\n", result.Title, result.Err)
			}
		}
	}
	return nil
}
