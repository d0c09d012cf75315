package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/speedwagon-io/odse/internal/config"
	"github.com/speedwagon-io/odse/internal/harness"
	"github.com/speedwagon-io/odse/internal/lib/logger/sl"
	"github.com/speedwagon-io/odse/internal/model"
	"github.com/speedwagon-io/odse/internal/oem"
	"github.com/speedwagon-io/odse/internal/server"
	"github.com/speedwagon-io/odse/internal/sink"
	"github.com/speedwagon-io/odse/internal/store"
	"github.com/speedwagon-io/odse/internal/validate"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var code int
	switch os.Args[1] {
	case "transform":
		code = runTransform(os.Args[2:])
	case "harness":
		code = runHarness(os.Args[2:])
	case "serve":
		code = runServe(os.Args[2:])
	case "sources":
		code = runSources()
	case "help", "-h", "-help", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		code = 2
	}
	os.Exit(code)
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: odse <command> [flags]

Commands:
  transform  normalize one vendor payload into canonical records
  harness    run transform checks across vendors (fixtures or live APIs)
  serve      run the HTTP transform service
  sources    list supported vendor sources

Run 'odse <command> -h' for command flags.
`)
}

func runTransform(args []string) int {
	fs := flag.NewFlagSet("transform", flag.ExitOnError)
	source := fs.String("source", "", "vendor source identifier (required)")
	file := fs.String("file", "", "read the payload from this file instead of stdin")
	data := fs.String("data", "", "inline payload instead of stdin")
	asset := fs.String("asset", "", "asset id attached to every record")
	timezone := fs.String("timezone", "", "±HH:MM offset applied to naive timestamps")
	interval := fs.Int("interval", 0, "sampling interval in minutes (0 = vendor default)")
	expectedDevices := fs.Int("expected-devices", 0, "expected reporting device count")
	validateLevel := fs.String("validate", "", "validate records: schema or semantic")
	capacity := fs.Float64("capacity", 0, "rated capacity in kW for semantic validation")
	storePath := fs.String("store", "", "archive the envelope to this SQLite database")
	pretty := fs.Bool("pretty", false, "indent the envelope JSON")
	stream := fs.Bool("stream", false, "emit records as NDJSON while parsing, no envelope")
	logLevel := fs.String("log-level", "warn", "log level")
	fs.Parse(args)

	log := sl.SetupLogger(*logLevel, "text")

	if *source == "" {
		fmt.Fprintln(os.Stderr, "transform: -source is required")
		return 2
	}

	var level validate.Level
	switch *validateLevel {
	case "":
	case "schema":
		level = validate.LevelSchema
	case "semantic":
		level = validate.LevelSemantic
	default:
		fmt.Fprintf(os.Stderr, "transform: invalid -validate %q (schema or semantic)\n", *validateLevel)
		return 2
	}

	payload, err := readPayload(*file, *data)
	if err != nil {
		fmt.Fprintln(os.Stderr, "transform:", err)
		return 2
	}

	opts := oem.Options{
		AssetID:         *asset,
		Timezone:        *timezone,
		IntervalMinutes: *interval,
		ExpectedDevices: *expectedDevices,
	}

	if *stream {
		return streamTransform(payload, *source, opts)
	}

	records, err := oem.Transform(payload, *source, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "transform:", err)
		var unknown *oem.UnknownSourceError
		if errors.As(err, &unknown) {
			return 2
		}
		return 1
	}

	envelope := model.NewResultEnvelope(*source, *asset, records)

	invalid := 0
	if level != "" {
		results := validate.Records(records, validate.Options{Level: level, CapacityKW: *capacity})
		for i, res := range results {
			for _, issue := range res.Errors {
				fmt.Fprintf(os.Stderr, "record %d: %s (%s)\n", i, issue.Message, issue.Code)
			}
			for _, issue := range res.Warnings {
				fmt.Fprintf(os.Stderr, "record %d: warning: %s (%s)\n", i, issue.Message, issue.Code)
			}
			if !res.Valid {
				invalid++
			}
		}
	}

	if *storePath != "" {
		if err := archiveEnvelope(log, *storePath, envelope); err != nil {
			fmt.Fprintln(os.Stderr, "transform:", err)
			return 1
		}
	}

	var out []byte
	if *pretty {
		out, err = json.MarshalIndent(envelope, "", "  ")
	} else {
		out, err = envelope.ToJSON()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "transform:", err)
		return 1
	}
	fmt.Println(string(out))

	if invalid > 0 {
		return 1
	}
	return 0
}

// readPayload picks the payload source: inline data, a file path (resolved
// by the engine itself) or stdin.
func readPayload(file, data string) (string, error) {
	if file != "" && data != "" {
		return "", errors.New("-file and -data are mutually exclusive")
	}
	if data != "" {
		return data, nil
	}
	if file != "" {
		return file, nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(b), nil
}

func streamTransform(payload, source string, opts oem.Options) int {
	s, err := oem.TransformStream(payload, source, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "transform:", err)
		var unknown *oem.UnknownSourceError
		if errors.As(err, &unknown) {
			return 2
		}
		return 1
	}
	defer s.Close()

	enc := json.NewEncoder(os.Stdout)
	for {
		rec, ok := s.Next()
		if !ok {
			break
		}
		if err := enc.Encode(rec); err != nil {
			fmt.Fprintln(os.Stderr, "transform:", err)
			return 1
		}
	}
	if err := s.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "transform:", err)
		return 1
	}
	return 0
}

func archiveEnvelope(log *slog.Logger, path string, envelope *model.ResultEnvelope) error {
	st, err := store.NewSQLiteStore(log, path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.Save(context.Background(), envelope)
}

func runHarness(args []string) int {
	fs := flag.NewFlagSet("harness", flag.ExitOnError)
	mode := fs.String("mode", "mixed", "fixture, live or mixed")
	oems := fs.String("oems", "all", "comma separated OEM keys, or all")
	envFile := fs.String("env-file", ".env", "dotenv file with live API configuration")
	logLevel := fs.String("log-level", "warn", "log level")
	fs.Parse(args)

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "harness:", err)
		return 2
	}

	m, err := harness.ParseMode(*mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "harness:", err)
		return 2
	}

	selected, err := harness.Select(*oems)
	if err != nil {
		fmt.Fprintln(os.Stderr, "harness:", err)
		return 2
	}

	r := harness.NewRunner(sl.SetupLogger(*logLevel, "text"), m)
	defer r.Close()

	if harness.Report(os.Stdout, r.Run(context.Background(), selected)) > 0 {
		return 1
	}
	return 0
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	cfg := config.MustLoad(*configPath)

	log := sl.SetupLogger(cfg.Log.Level, cfg.Log.Format)

	log.Info("starting ODS-E transform service",
		slog.String("env", cfg.Env),
		slog.String("address", cfg.Server.Address),
	)

	var fleet *config.FleetConfig
	if cfg.Fleet.ConfigPath != "" {
		fleet = config.MustLoadFleet(cfg.Fleet.ConfigPath)
		log.Info("loaded fleet config",
			slog.String("fleet_id", fleet.FleetID),
			slog.Int("assets", len(fleet.Assets)),
		)
	}

	var st store.Store
	if cfg.Store.Enabled {
		sqliteStore, err := store.NewSQLiteStore(log, cfg.Store.Path)
		if err != nil {
			log.Error("failed to open record store", sl.Err(err))
			return 1
		}
		st = sqliteStore
		log.Info("record store enabled", slog.String("path", cfg.Store.Path))
	}

	sinks, err := buildSinks(log, cfg.Sinks)
	if err != nil {
		log.Error("failed to build sinks", sl.Err(err))
		return 1
	}
	if sinks != nil {
		log.Info("sinks enabled", slog.Int("count", sinks.Len()))
	}

	srv := server.New(log, cfg.Server, fleet, st, sinks)
	if sqliteStore, ok := st.(*store.SQLiteStore); ok {
		srv.AddChecker(server.NewStoreHealthChecker(sqliteStore.Count))
	}

	if err := srv.Start(); err != nil {
		log.Error("failed to start http server", sl.Err(err))
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if st != nil && cfg.Store.MaxAge > 0 {
		go pruneLoop(ctx, log, st, cfg.Store.MaxAge)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info("received signal, shutting down", slog.String("signal", sig.String()))
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop http server", sl.Err(err))
	}

	if sinks != nil {
		if err := sinks.Close(); err != nil {
			log.Error("failed to close sinks", sl.Err(err))
		}
	}

	if st != nil {
		if err := st.Close(); err != nil {
			log.Error("failed to close record store", sl.Err(err))
		}
	}

	log.Info("service stopped")
	return 0
}

func buildSinks(log *slog.Logger, cfg config.SinksConfig) (*sink.Fanout, error) {
	var sinks []sink.Sink

	if cfg.Stdout.Enabled {
		sinks = append(sinks, sink.NewStdoutSink(os.Stdout))
	}
	if cfg.Influx.Enabled {
		sinks = append(sinks, sink.NewInfluxSink(cfg.Influx))
	}
	if cfg.MQTT.Enabled {
		mqttSink, err := sink.NewMQTTSink(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("failed to connect mqtt sink: %w", err)
		}
		sinks = append(sinks, mqttSink)
	}

	if len(sinks) == 0 {
		return nil, nil
	}
	return sink.NewFanout(log, sinks...), nil
}

func pruneLoop(ctx context.Context, log *slog.Logger, st store.Store, maxAge time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := st.Prune(ctx, maxAge); err != nil {
				log.Error("failed to prune record store", sl.Err(err))
			}
		}
	}
}

func runSources() int {
	for _, source := range oem.Sources() {
		fmt.Println(source)
	}
	return 0
}
