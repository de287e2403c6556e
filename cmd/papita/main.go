package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papita/transactions/internal/application/registry"
	"github.com/papita/transactions/internal/domain/shared"
	"github.com/papita/transactions/internal/infrastructure/config"
	"github.com/papita/transactions/internal/infrastructure/ingest"
	"github.com/papita/transactions/internal/infrastructure/logger"
	"github.com/papita/transactions/internal/infrastructure/persistence"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

func main() {
	var (
		filePath  string
		entity    string
		policy    string
		delimiter string
		timeout   time.Duration
	)
	flag.StringVar(&filePath, "file", "", "CSV file to ingest")
	flag.StringVar(&entity, "entity", "", "Target entity label (see 'labels')")
	flag.StringVar(&policy, "policy", string(persistence.ConflictUpdate),
		"Conflict policy: update, nothing or raise")
	flag.StringVar(&delimiter, "delimiter", ",", "CSV field delimiter")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Operation deadline")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	conn := persistence.NewConnector()
	db, err := conn.Establish(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to establish database connection", zap.Error(err))
	}
	defer func() { _ = conn.Teardown() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	switch command {
	case "migrate":
		if err := db.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
		log.Info("schema migrated", zap.String("dialect", string(db.Dialect())))

	case "labels":
		reg, err := registry.Default(db, cfg.App.IngestTolerance, log)
		if err != nil {
			log.Fatal("failed to build service registry", zap.Error(err))
		}
		for _, label := range reg.Labels() {
			fmt.Println(label)
		}

	case "ingest":
		if err := runIngest(ctx, db, cfg, log, filePath, entity, policy, delimiter); err != nil {
			log.Fatal("ingestion failed", zap.Error(err))
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func runIngest(
	ctx context.Context,
	db *persistence.Database,
	cfg *config.Config,
	log *zap.Logger,
	filePath, entity, policy, delimiter string,
) error {
	if filePath == "" || entity == "" {
		return errors.New("ingest requires -file and -entity")
	}
	conflictPolicy := persistence.ConflictPolicy(strings.ToLower(policy))
	if !conflictPolicy.Valid() {
		return fmt.Errorf("unknown conflict policy %q", policy)
	}

	reg, err := registry.Default(db, cfg.App.IngestTolerance, log)
	if err != nil {
		return err
	}
	svc, err := reg.Lookup(entity)
	if err != nil {
		return err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	var opts []ingest.Option
	if delimiter != "" {
		opts = append(opts, ingest.WithDelimiter([]rune(delimiter)[0]))
	}
	table, err := ingest.ReadCSV(f, opts...)
	if err != nil {
		return err
	}

	report, err := svc.UpsertTable(ctx, table, conflictPolicy)
	printReport(report)
	var tolErr *shared.ToleranceExceededError
	if errors.As(err, &tolErr) {
		// Committed rows stand; the report above tells the full story.
		return fmt.Errorf("failure ratio %.4f exceeded tolerance %.4f",
			tolErr.Report.FailureRatio, tolErr.Tolerance)
	}
	return err
}

func printReport(report shared.UpsertReport) {
	fmt.Printf("total=%d succeeded=%d skipped=%d failed=%d\n",
		report.Total, report.Succeeded, report.Skipped, report.Failed)
	for _, re := range report.RowErrors {
		fmt.Printf("  row %d: [%s] %s\n", re.Row, re.Code, re.Message)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: papita [flags] <command>

Commands:
  migrate   Create or update the schema for the configured target
  labels    List the entity labels available for ingestion
  ingest    Load a CSV file into an entity (-file, -entity, -policy)

Flags:
`)
	flag.PrintDefaults()
}
