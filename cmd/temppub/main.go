// temppub publishes temperature readings to an MQTT broker.
//
// It validates each reading against the temperature message schema and
// publishes it once at QoS 1, retrying the whole connection a bounded
// number of times. With -simulate it keeps publishing random readings
// until interrupted.
//
// Usage:
//
//	temppub [-config file] [-host h] [-port p] [-value v]
//	temppub -simulate [-interval seconds]
//	temppub -history 20
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	_ "github.com/nerrad567/temppub/migrations"

	"github.com/nerrad567/temppub/internal/infrastructure/config"
	"github.com/nerrad567/temppub/internal/infrastructure/database"
	"github.com/nerrad567/temppub/internal/infrastructure/influxdb"
	"github.com/nerrad567/temppub/internal/infrastructure/logging"
	"github.com/nerrad567/temppub/internal/infrastructure/mqtt"
	"github.com/nerrad567/temppub/internal/journal"
	"github.com/nerrad567/temppub/internal/publisher"
	"github.com/nerrad567/temppub/internal/reading"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// defaultValue is published when neither -value nor -simulate is given.
const defaultValue = 22.5

// errNotPublished is returned when a one-shot publish exhausts its attempts.
var errNotPublished = errors.New("temperature reading was not published")

// clientFactory overrides the paho client constructor. Tests set it to an
// in-memory broker.
var clientFactory mqtt.ClientFactory

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the parsed command line.
type options struct {
	configPath string
	host       string
	port       int
	value      string
	simulate   bool
	interval   float64
	history    int

	// set records which flags were given explicitly.
	set map[string]bool
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	opts := &options{set: make(map[string]bool)}

	fs := flag.NewFlagSet("temppub", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.configPath, "config", "", "path to YAML config file (env TEMPPUB_CONFIG)")
	fs.StringVar(&opts.host, "host", "", "MQTT broker host")
	fs.IntVar(&opts.port, "port", 0, "MQTT broker port")
	fs.StringVar(&opts.value, "value", "", "temperature value to publish (default 22.5)")
	fs.BoolVar(&opts.simulate, "simulate", false, "publish random readings until interrupted")
	fs.Float64Var(&opts.interval, "interval", 0, "seconds between simulated readings")
	fs.IntVar(&opts.history, "history", 0, "print the last N journal entries and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if opts.set["value"] && opts.simulate {
		return nil, errors.New("-value and -simulate are mutually exclusive")
	}
	if opts.set["history"] && opts.history < 1 {
		return nil, errors.New("-history must be at least 1")
	}
	return opts, nil
}

// loadConfig loads the file (or defaults), then applies flag overrides
// and validates the result again.
func loadConfig(opts *options) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = os.Getenv("TEMPPUB_CONFIG")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.set["host"] {
		cfg.MQTT.Broker.Host = opts.host
	}
	if opts.set["port"] {
		cfg.MQTT.Broker.Port = opts.port
	}
	if opts.set["interval"] {
		cfg.Simulation.Interval = time.Duration(opts.interval * float64(time.Second))
	}
	if opts.set["history"] {
		cfg.Database.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating flags: %w", err)
	}
	return cfg, nil
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log := logging.New(cfg.Logging, version)
	defer log.Close() //nolint:errcheck // nothing left to report to
	mqtt.RouteTransportLogs(log.With("component", "paho"))

	log.Info("starting temppub",
		"version", version,
		"commit", commit,
		"build_date", date,
		"broker", cfg.MQTT.BrokerURL(),
		"topic", cfg.Channel.Topic,
	)

	var db *database.DB
	if cfg.Database.Enabled {
		db, err = openJournal(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("publish journal ready", "path", cfg.Database.Path)
	}

	if opts.history > 0 {
		return printHistory(ctx, stdout, journal.NewSQLiteRepository(db.DB), opts.history)
	}

	schema, err := reading.NewSchema(cfg.Schema.IDPattern, cfg.Schema.Required)
	if err != nil {
		return fmt.Errorf("building schema: %w", err)
	}

	session, err := mqtt.NewSession(cfg.MQTT, cfg.Channel.Topic)
	if err != nil {
		return fmt.Errorf("creating MQTT session: %w", err)
	}
	session.SetLogger(log.With("component", "mqtt"))
	if clientFactory != nil {
		session.SetClientFactory(clientFactory)
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB, cfg.Channel.Topic)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB mirror connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	if err := healthCheck(ctx, db, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	pubOpts := publisher.Options{
		Session:        session,
		Schema:         schema,
		Topic:          cfg.Channel.Topic,
		MaxAttempts:    cfg.Publish.MaxAttempts,
		ConnectTimeout: cfg.Publish.ConnectTimeout,
		AckTimeout:     cfg.Publish.AckTimeout,
		RetryDelay:     cfg.Publish.RetryDelay,
		Logger:         log.With("component", "publisher"),
	}
	if db != nil {
		pubOpts.Recorder = &journalRecorder{repo: journal.NewSQLiteRepository(db.DB)}
	}
	if influxClient != nil {
		pubOpts.Sink = influxClient
	}

	pub, err := publisher.New(pubOpts)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}

	if opts.simulate {
		sim, err := publisher.NewSimulator(pub, cfg.Simulation, log.With("component", "simulator"))
		if err != nil {
			return fmt.Errorf("creating simulator: %w", err)
		}
		if err := sim.Run(ctx); err != nil {
			return fmt.Errorf("simulation: %w", err)
		}
		log.Info("temppub stopped")
		return nil
	}

	value := parseValue(opts.value)
	ok, err := pub.Publish(ctx, value)
	if err != nil {
		return fmt.Errorf("publishing %v: %w", value, err)
	}
	if !ok {
		return fmt.Errorf("%w after %d attempts", errNotPublished, pub.MaxAttempts())
	}
	return nil
}

// parseValue returns the -value flag as a number when it parses as one.
// Anything else is passed through so the validator reports it.
func parseValue(raw string) any {
	if raw == "" {
		return defaultValue
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return v
	}
	return raw
}

func openJournal(ctx context.Context, cfg config.DatabaseConfig) (*database.DB, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// healthCheck verifies the optional backends. Either may be nil.
func healthCheck(ctx context.Context, db *database.DB, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

func printHistory(ctx context.Context, w io.Writer, repo journal.Repository, limit int) error {
	entries, err := repo.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}
	summary, err := repo.Summary(ctx)
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tID\tVALUE\tATTEMPT\tOUTCOME\tDURATION\tERROR")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%d/%d\t%s\t%s\t%s\n",
			e.CreatedAt.Format(time.RFC3339), e.TemperatureID, e.Value,
			e.Attempt, e.MaxAttempts, e.Outcome, e.Duration, e.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "\n%d attempts: %d published, %d failed\n",
		summary.Attempts, summary.Published, summary.Failed)
	return err
}

// journalRecorder adapts the journal repository to the publisher's
// AttemptRecorder.
type journalRecorder struct {
	repo journal.Repository
}

func (r *journalRecorder) RecordAttempt(ctx context.Context, a publisher.Attempt) error {
	e := &journal.Entry{
		TemperatureID: a.TemperatureID,
		Value:         a.Value,
		Topic:         a.Topic,
		Attempt:       a.Number,
		MaxAttempts:   a.MaxAttempts,
		Outcome:       journal.OutcomePublished,
		Duration:      a.Duration,
		CreatedAt:     a.At,
	}
	if !a.Succeeded() {
		e.Outcome = journal.OutcomeFailed
		e.Error = a.Err.Error()
	}
	return r.repo.Record(ctx, e)
}
