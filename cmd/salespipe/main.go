package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vendalab/salespipe/internal/flow"
	"github.com/vendalab/salespipe/internal/models"
	"github.com/vendalab/salespipe/internal/store"
	"github.com/vendalab/salespipe/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for salespipe state data
	DefaultStateDir = "/var/lib/salespipe"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "salespipe.db"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	st, err := openStore(flags)
	if err != nil {
		slog.Error("Failed to open conversation store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	processor := flow.NewProcessor(st)

	slog.Info("salespipe ready, reading turns from stdin")
	if err := runTurnLoop(context.Background(), processor, os.Stdin, os.Stdout); err != nil {
		slog.Error("salespipe turn loop failed", "error", err)
		os.Exit(1)
	}
	slog.Info("salespipe exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseDSN string
	StateDir    string
}

// Flags holds command line flag values
type Flags struct {
	stateDir *string
	dbDSN    *string
}

// initializeLogger sets up structured logging; SALESPIPE_DEBUG enables
// debug-level output.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("SALESPIPE_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseDSN: os.Getenv("DATABASE_DSN"),
		StateDir:    os.Getenv("SALESPIPE_STATE_DIR"),
	}

	// Legacy name still honored when the preferred one is unset
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = os.Getenv("DATABASE_URL")
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No SALESPIPE_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database DSN is provided, default to SQLite in the state directory
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseDSN)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_DSN_SET", config.DatabaseDSN != "",
		"SALESPIPE_STATE_DIR", config.StateDir)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir: flag.String("state-dir", config.StateDir, "state directory for salespipe data (overrides $SALESPIPE_STATE_DIR)"),
		dbDSN:    flag.String("db-dsn", config.DatabaseDSN, "database DSN for the conversation store (overrides $DATABASE_DSN or $DATABASE_URL)"),
	}

	flag.Parse()

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseDSN && config.DatabaseDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	slog.Debug("flags parsed", "stateDir", *flags.stateDir, "dbDSN_set", *flags.dbDSN != "")
	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		return nil
	}
	stateDir := filepath.Dir(*flags.dbDSN)
	slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
		return err
	}
	return nil
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN == "" {
		slog.Debug("No database DSN provided, will use in-memory store")
		return storeOpts
	}
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		storeOpts = append(storeOpts, store.WithPostgresDSN(*flags.dbDSN))
	} else {
		slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", *flags.dbDSN)
		storeOpts = append(storeOpts, store.WithSQLiteDSN(*flags.dbDSN))
	}
	return storeOpts
}

// openStore selects the store backend from the configured DSN.
func openStore(flags Flags) (store.Store, error) {
	opts := buildStoreOptions(flags)
	if len(opts) == 0 {
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		return store.NewPostgresStore(opts...)
	}
	return store.NewSQLiteStore(opts...)
}

// runTurnLoop reads tab-separated "contactID<TAB>message" lines and prints
// one decision JSON per turn. A message starting with ">" is recorded as an
// outbound message for that contact instead of being processed as a turn.
func runTurnLoop(ctx context.Context, processor *flow.Processor, in *os.File, out *os.File) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		contactID, text, ok := strings.Cut(line, "\t")
		if !ok {
			fmt.Fprintln(os.Stderr, "expected: contactID<TAB>message")
			continue
		}

		if rest, isOutbound := strings.CutPrefix(text, ">"); isOutbound {
			processor.RecordOutbound(contactID, strings.TrimSpace(rest))
			continue
		}

		decision, err := processor.Process(ctx, models.TurnInput{
			ContactID:   contactID,
			InboundText: text,
		})
		if err != nil {
			slog.Error("turn failed", "contactID", contactID, "error", err)
			continue
		}
		if err := enc.Encode(decision); err != nil {
			return err
		}
	}
	return scanner.Err()
}
