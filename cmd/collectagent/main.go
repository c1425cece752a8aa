// The collectagent service runs the automated debt-collection conversation
// agent: inbound customer messages arrive over the HTTP webhook, turns run
// through the flow engine, and replies go out over WhatsApp (Twilio) or the
// console for local runs.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/api"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/flow"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/genai"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/intent"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/lockfile"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/messaging"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/recovery"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/reminder"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/session"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/store"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for agent state data.
	DefaultStateDir = "/var/lib/collectagent"
	// DefaultDBFileName is the default SQLite database filename.
	DefaultDBFileName = "collectagent.db"
	// shutdownTimeout bounds the graceful HTTP shutdown.
	shutdownTimeout = 10 * time.Second
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := run(flags); err != nil {
		slog.Error("collectagent failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("collectagent exited successfully")
}

// Config holds environment configuration.
type Config struct {
	DatabaseURL      string
	StateDir         string
	OpenAIKey        string
	APIAddr          string
	ReminderSchedule string
	RemindersEnabled bool
	PaymentBaseURL   string
	LateFeeRate      string
}

// Flags holds command line flag values.
type Flags struct {
	stateDir       *string
	dbDSN          *string
	openaiKey      *string
	apiAddr        *string
	reminderCron   *string
	remindersOn    *bool
	paymentBaseURL *string
	lateFeeRate    *string
}

// initializeLogger sets up structured logging with the level taken from
// LOG_LEVEL (debug, info, warn, error; default info).
func initializeLogger() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and
// the .env file.
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StateDir:         os.Getenv("COLLECTAGENT_STATE_DIR"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		APIAddr:          os.Getenv("API_ADDR"),
		ReminderSchedule: os.Getenv("REMINDER_SCHEDULE"),
		RemindersEnabled: util.ParseBoolEnv("REMINDERS_ENABLED", true),
		PaymentBaseURL:   os.Getenv("PAYMENT_BASE_URL"),
		LateFeeRate:      os.Getenv("DAILY_LATE_FEE_RATE"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No COLLECTAGENT_STATE_DIR set, using default", "state_dir", config.StateDir)
	}

	// Without a database URL, default to SQLite in the state directory.
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No DATABASE_URL provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", os.Getenv("DATABASE_URL") != "",
		"COLLECTAGENT_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"REMINDER_SCHEDULE", config.ReminderSchedule,
		"PAYMENT_BASE_URL", config.PaymentBaseURL)

	return config
}

// parseCommandLineFlags parses command line arguments with environment
// defaults.
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:       flag.String("state-dir", config.StateDir, "state directory for agent data (overrides $COLLECTAGENT_STATE_DIR)"),
		dbDSN:          flag.String("db-dsn", config.DatabaseURL, "database DSN: a postgres:// URL or a SQLite file path (overrides $DATABASE_URL)"),
		openaiKey:      flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:        flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		reminderCron:   flag.String("reminder-cron", config.ReminderSchedule, "cron schedule for payment reminders (overrides $REMINDER_SCHEDULE)"),
		remindersOn:    flag.Bool("reminders-enabled", config.RemindersEnabled, "run the daily payment-reminder sweep (overrides $REMINDERS_ENABLED)"),
		paymentBaseURL: flag.String("payment-base-url", config.PaymentBaseURL, "payment portal base URL (overrides $PAYMENT_BASE_URL)"),
		lateFeeRate:    flag.String("late-fee-rate", config.LateFeeRate, "daily late-charge rate as a fraction, e.g. 0.02 (overrides $DAILY_LATE_FEE_RATE)"),
	}

	flag.Parse()

	if updated := deriveDSN(config, *flags.stateDir, *flags.dbDSN); updated != *flags.dbDSN {
		*flags.dbDSN = updated
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

// deriveDSN follows the state directory when the DSN was left at its derived
// SQLite default.
func deriveDSN(config Config, stateDir, dsn string) string {
	if dsn == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && stateDir != config.StateDir {
		return filepath.Join(stateDir, DefaultDBFileName)
	}
	return dsn
}

// isPostgresDSN reports whether the DSN selects the PostgreSQL backend.
func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=")
}

// openStore selects and opens the storage backend for the DSN.
func openStore(dsn string) (store.Store, error) {
	if isPostgresDSN(dsn) {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		s, err := store.NewPostgresStore(store.WithDSN(dsn))
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", dsn)
	s, err := store.NewSQLiteStore(store.WithDSN(dsn))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// buildFlowConfig applies business-parameter overrides to the default flow
// configuration.
func buildFlowConfig(flags Flags) flow.Config {
	cfg := flow.DefaultConfig()
	if *flags.paymentBaseURL != "" {
		cfg.PaymentBaseURL = *flags.paymentBaseURL
	}
	if *flags.lateFeeRate != "" {
		rate, err := strconv.ParseFloat(*flags.lateFeeRate, 64)
		if err != nil || rate <= 0 || rate >= 1 {
			slog.Warn("Ignoring invalid late-fee rate", "value", *flags.lateFeeRate)
		} else {
			cfg.DailyLateFeeRate = rate
		}
	}
	return cfg
}

// buildMessagingService selects the delivery channel: Twilio WhatsApp when
// credentials are configured, the console otherwise.
func buildMessagingService() messaging.Service {
	if os.Getenv("TWILIO_ACCOUNT_SID") == "" {
		slog.Info("No Twilio credentials configured, delivering to console")
		return messaging.NewConsoleService()
	}
	client, err := messaging.NewTwilioClient()
	if err != nil {
		slog.Error("Twilio configuration incomplete, falling back to console", "error", err)
		return messaging.NewConsoleService()
	}
	slog.Info("Twilio WhatsApp delivery configured")
	return messaging.NewTwilioService(client)
}

// run wires the modules together and serves until interrupted.
func run(flags Flags) error {
	// One instance per state directory; two agents sharing a session store
	// would interleave turns.
	lock, err := lockfile.Acquire(*flags.stateDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	st, err := openStore(*flags.dbDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	var generator *genai.Client
	if *flags.openaiKey != "" {
		generator, err = genai.NewClient(genai.WithAPIKey(*flags.openaiKey))
		if err != nil {
			return err
		}
	} else {
		slog.Warn("No OpenAI API key configured; classification and phrasing run rule-based only")
	}

	engineOpts := []flow.Option{flow.WithConfig(buildFlowConfig(flags))}
	var classifier *intent.Classifier
	if generator != nil {
		classifier = intent.NewClassifier(generator)
		engineOpts = append(engineOpts, flow.WithGenerator(generator))
	} else {
		classifier = intent.NewClassifier(nil)
	}

	engine := flow.NewEngine(st, classifier, engineOpts...)
	sessions := session.NewManager(st, engine)
	msgService := buildMessagingService()

	// Let customers the previous process was waiting on resume.
	if stats, err := recovery.NewManager(st, msgService).Run(context.Background()); err != nil {
		slog.Error("Startup recovery pass failed", "error", err)
	} else if stats.Scanned > 0 {
		slog.Info("Startup recovery pass finished", "scanned", stats.Scanned, "reprompted", stats.Reprompted, "archived", stats.Archived)
	}

	if *flags.remindersOn {
		reminderOpts := []reminder.Option{}
		if *flags.reminderCron != "" {
			reminderOpts = append(reminderOpts, reminder.WithSchedule(*flags.reminderCron))
		}
		reminders := reminder.NewService(st, msgService, reminderOpts...)
		if err := reminders.Start(); err != nil {
			return err
		}
		defer reminders.Stop()
	} else {
		slog.Info("Payment reminders disabled")
	}

	apiOpts := []api.Option{}
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	server := api.NewServer(sessions, st, msgService, apiOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
