// Command bto-export writes booking reports and record snapshots from the
// configured record store to the configured artifact store.
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
	"strings"
	"time"

	"btocore/internal/adapters/exports"
	"btocore/internal/blob"
	"btocore/internal/core"
	"btocore/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	exitFunc(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	report      bool
	backup      bool
	restore     string
	formats     string
	project     string
	flatType    string
	marital     string
	requestedBy string
	metricsFile string
	timeout     time.Duration
	verbose     bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("bto-export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&opts.report, "report", true, "export the booking report")
	fs.BoolVar(&opts.backup, "backup", true, "write a record snapshot backup")
	fs.StringVar(&opts.restore, "restore", "", "restore the snapshot at this key (\"latest\" picks the newest) instead of exporting")
	fs.StringVar(&opts.formats, "formats", "json", "comma separated report formats (json,csv)")
	fs.StringVar(&opts.project, "project", "", "only include bookings for this project")
	fs.StringVar(&opts.flatType, "flat-type", "", "only include bookings of this flat type")
	fs.StringVar(&opts.marital, "marital-status", "", "only include applicants with this marital status")
	fs.StringVar(&opts.requestedBy, "requested-by", "bto-export", "actor recorded on export audit entries")
	fs.StringVar(&opts.metricsFile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")
	fs.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall deadline")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func (o options) filter() (core.BookingFilter, error) {
	filter := core.BookingFilter{ProjectName: strings.TrimSpace(o.project)}
	if o.flatType != "" {
		ft, err := domain.ParseFlatType(o.flatType)
		if err != nil {
			return core.BookingFilter{}, err
		}
		filter.FlatType = ft
	}
	switch strings.ToLower(strings.TrimSpace(o.marital)) {
	case "":
	case "single":
		filter.MaritalStatus = domain.MaritalSingle
	case "married":
		filter.MaritalStatus = domain.MaritalMarried
	default:
		return core.BookingFilter{}, fmt.Errorf("unknown marital status %q", o.marital)
	}
	return filter, nil
}

func (o options) exportFormats() []core.ExportFormat {
	var out []core.ExportFormat
	for _, raw := range strings.Split(o.formats, ",") {
		if f := strings.ToLower(strings.TrimSpace(raw)); f != "" {
			out = append(out, core.ExportFormat(f))
		}
	}
	return out
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	if err := execute(ctx, opts, logger, stdout); err != nil {
		logger.Error("bto-export failed", "error", err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, opts options, logger *slog.Logger, stdout io.Writer) (retErr error) {
	cfg := core.ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}
	filter, err := opts.filter()
	if err != nil {
		return err
	}

	store, err := core.OpenPersistentStore(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := core.CloseStore(store); err != nil && retErr == nil {
			retErr = err
		}
	}()
	artifacts, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return fmt.Errorf("open artifact store: %w", err)
	}

	metrics := core.NewPrometheusMetricsRecorder(nil)
	if opts.metricsFile != "" {
		defer func() {
			if err := metrics.WriteTextfile(opts.metricsFile); err != nil {
				logger.Warn("write metrics textfile", "path", opts.metricsFile, "error", err)
			}
		}()
	}
	audit := core.LoggerAuditRecorder{Logger: logger}
	opt := append(cfg.ServiceOptions(),
		core.WithLogger(logger),
		core.WithMetricsRecorder(metrics),
		core.WithAuditRecorder(audit),
	)
	svc := core.NewService(store, opt...)
	logger.Info("bto-export starting",
		"storage_driver", string(cfg.StorageDriver),
		"blob_driver", string(artifacts.Driver()),
	)

	if opts.restore != "" {
		return restore(ctx, svc, artifacts, opts.restore, logger)
	}

	worker := exports.NewWorker(svc, artifacts, exports.WithAudit(audit), exports.WithLogger(logger))
	worker.Start()
	defer func() { _ = worker.Stop(context.Background()) }()

	var inputs []exports.Input
	if opts.report {
		inputs = append(inputs, exports.Input{Kind: exports.KindBookingReport, Filter: filter, Formats: opts.exportFormats(), RequestedBy: opts.requestedBy})
	}
	if opts.backup {
		inputs = append(inputs, exports.Input{Kind: exports.KindBackup, RequestedBy: opts.requestedBy})
	}
	if len(inputs) == 0 {
		return errors.New("nothing to do: both -report and -backup are disabled")
	}

	var records []exports.Record
	for _, input := range inputs {
		queued, err := worker.Enqueue(ctx, input)
		if err != nil {
			return err
		}
		record, err := worker.Wait(ctx, queued.ID)
		if err != nil {
			return err
		}
		records = append(records, record)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return err
	}
	for _, r := range records {
		if r.Status == exports.StatusFailed {
			return fmt.Errorf("%s export %s failed: %s", r.Kind, r.ID, r.Error)
		}
	}
	return nil
}

func restore(ctx context.Context, svc *core.Service, artifacts blob.Store, key string, logger *slog.Logger) error {
	if key == "latest" {
		latest, ok, err := core.LatestBackup(ctx, artifacts)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("no backups found")
		}
		key = latest
	}
	if err := svc.RestoreSnapshot(ctx, artifacts, key); err != nil {
		return fmt.Errorf("restore %s: %w", key, err)
	}
	logger.Info("snapshot restored", "key", key)
	return nil
}
