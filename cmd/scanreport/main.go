package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dkazakov/scan-reporting/internal/credential"
	"github.com/dkazakov/scan-reporting/internal/model"
	"github.com/dkazakov/scan-reporting/internal/postproc"
	"github.com/dkazakov/scan-reporting/internal/reporter"
	"github.com/dkazakov/scan-reporting/internal/reporter/email"
	"github.com/dkazakov/scan-reporting/internal/reporter/engagement"
	"github.com/dkazakov/scan-reporting/internal/reporter/jira"
	"github.com/dkazakov/scan-reporting/internal/store"
	"github.com/dkazakov/scan-reporting/internal/summary"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Local .env values supplement the environment before config loading.
	_ = godotenv.Load()

	var err error
	switch os.Args[1] {
	case "report":
		err = runReport(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "history":
		err = runHistory(os.Args[2:])
	case "sample-config":
		err = runSampleConfig(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runReport(args []string) error {
	cmd := flag.NewFlagSet("report", flag.ExitOnError)
	configPath := cmd.String("config", model.DefaultConfigPath(), "Configuration file")
	findingsPath := cmd.String("findings", "-", `Findings JSON document ("-" for stdin)`)
	timeoutSec := cmd.Int("timeout", 0, "Overall timeout in seconds (0 = none)")
	debug := cmd.Bool("debug", false, "Enable debug logging")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	log := newLogger(*debug)

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := credential.ResolveReporters(&cfg.Reporters); err != nil {
		return fmt.Errorf("resolving credentials: %w", err)
	}

	batch, err := loadFindings(*findingsPath)
	if err != nil {
		return err
	}
	log.Info().
		Int("findings", len(batch.Findings)).
		Str("testing_type", batch.TestingType).
		Msg("findings loaded")

	kept, err := postproc.FilterFalsePositives(batch.Findings)
	if err != nil {
		return err
	}
	if removed := len(batch.Findings) - len(kept); removed > 0 {
		log.Info().Int("removed", removed).Msg("false positives filtered out")
	}
	batch.Findings = kept

	ctx := context.Background()
	if *timeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*timeoutSec)*time.Second)
		defer cancel()
	}

	started := time.Now()
	result, trackerUsed := postproc.ReportToTracker(ctx, cfg.Reporters.Jira, batch, log)
	result.Merge(postproc.ReportToPortal(ctx, cfg.Reporters.Engagement, batch, log))
	postproc.SendEmails(ctx, cfg.Reporters.Email, result.NewTickets, trackerUsed, log)

	run := model.ReportRun{
		ID:            uuid.New().String(),
		TestingType:   batch.TestingType,
		StartedAt:     started,
		FinishedAt:    time.Now(),
		FindingCount:  len(batch.Findings),
		NewCount:      len(result.NewTickets),
		ExistingCount: len(result.ExistingTickets),
		ErrorCount:    len(result.Errors),
	}
	saveRun(ctx, cfg.History.Path, run, result, log)

	fmt.Print(summary.Render(run, result))
	return nil
}

func runValidate(args []string) error {
	cmd := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := cmd.String("config", model.DefaultConfigPath(), "Configuration file")
	debug := cmd.Bool("debug", false, "Enable debug logging")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	log := newLogger(*debug)

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := credential.ResolveReporters(&cfg.Reporters); err != nil {
		return fmt.Errorf("resolving credentials: %w", err)
	}

	configured := 0
	failed := false

	if cfg.Reporters.Jira != nil {
		configured++
		rep, err := jira.New(cfg.Reporters.Jira, log)
		switch {
		case err != nil:
			failed = true
			fmt.Printf("jira: INVALID (%v)\n", err)
		default:
			if err := rep.Validate(context.Background()); err != nil {
				failed = true
				fmt.Printf("jira: UNREACHABLE (%v)\n", err)
			} else {
				fmt.Println("jira: OK")
			}
		}
	}
	if cfg.Reporters.Engagement != nil {
		configured++
		if _, err := engagement.New(cfg.Reporters.Engagement, log); err != nil {
			failed = true
			fmt.Printf("engagement: INVALID (%v)\n", err)
		} else {
			fmt.Println("engagement: OK")
		}
	}
	if cfg.Reporters.Email != nil {
		configured++
		if _, err := email.New(cfg.Reporters.Email, log); err != nil {
			failed = true
			fmt.Printf("email: INVALID (%v)\n", err)
		} else {
			fmt.Println("email: OK")
		}
	}

	if configured == 0 {
		fmt.Println("No reporters configured.")
	}
	if failed {
		return fmt.Errorf("configuration is invalid")
	}
	return nil
}

func runHistory(args []string) error {
	cmd := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := cmd.String("config", model.DefaultConfigPath(), "Configuration file")
	limit := cmd.Int("limit", 10, "Number of runs to show")
	if err := cmd.Parse(args); err != nil {
		return err
	}

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return fmt.Errorf("run history is disabled in the configuration")
	}

	path := expandHome(cfg.History.Path)
	if _, err := os.Stat(path); err != nil {
		fmt.Print(summary.RenderHistory(nil))
		return nil
	}

	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return fmt.Errorf("opening run history: %w", err)
	}
	defer s.Close()

	runs, err := s.GetRuns(context.Background(), *limit)
	if err != nil {
		return err
	}
	fmt.Print(summary.RenderHistory(runs))
	return nil
}

func runSampleConfig(args []string) error {
	cmd := flag.NewFlagSet("sample-config", flag.ExitOnError)
	out := cmd.String("out", "", "Write the sample to a file instead of stdout")
	if err := cmd.Parse(args); err != nil {
		return err
	}

	if *out == "" {
		fmt.Print(model.SampleConfig)
		return nil
	}

	path := expandHome(*out)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(model.SampleConfig), 0o600); err != nil {
		return fmt.Errorf("writing sample config: %w", err)
	}
	fmt.Printf("Sample configuration written to %s\n", path)
	return nil
}

// loadFindings opens the findings document, reading stdin for "-".
func loadFindings(path string) (*model.FindingBatch, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening findings document: %w", err)
		}
		defer f.Close()
		r = f
	}
	return model.ParseFindings(r)
}

// saveRun persists the run history. History failures are logged only: the
// reporting already happened.
func saveRun(
	ctx context.Context,
	path string,
	run model.ReportRun,
	result *reporter.Result,
	log zerolog.Logger,
) {
	if path == "" {
		log.Debug().Msg("run history disabled")
		return
	}

	path = expandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Error().Err(err).Msg("creating history directory failed")
		return
	}

	s, err := store.NewSQLiteStore(path)
	if err != nil {
		log.Error().Err(err).Msg("opening run history failed")
		return
	}
	defer s.Close()

	err = s.SaveRun(ctx, run, result.NewTickets, result.ExistingTickets, result.Errors)
	if err != nil {
		log.Error().Err(err).Msg("recording run history failed")
		return
	}
	log.Debug().Str("run", run.ID).Msg("run recorded")
}

func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func printUsage() {
	fmt.Println("Usage: scanreport <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  report         Submit a findings document to the configured reporters")
	fmt.Println("  validate       Check reporter configuration and tracker connectivity")
	fmt.Println("  history        Show recent reporting runs")
	fmt.Println("  sample-config  Print a commented sample configuration")
	fmt.Println("Run \"scanreport <command> -h\" for command flags.")
}
