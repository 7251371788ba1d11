package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"

	"github.com/rtm0/era5wind/internal/config"
	"github.com/rtm0/era5wind/internal/era5"
	"github.com/rtm0/era5wind/internal/powercurve"
	"github.com/rtm0/era5wind/internal/vm"
	"github.com/rtm0/era5wind/internal/wind"
)

var (
	configPath    = pflag.StringP("config", "c", "site.yaml", "path to the site assessment configuration")
	logLevel      = pflag.String("logLevel", "info", "log level: debug, info, warn or error")
	vmInsertURL   = pflag.String("vmInsertUrl", "", "Victoria Metrics insert API URL; overrides export.vm_insert_url. Empty disables the export")
	concurrency   = pflag.Int("concurrency", 0, "number of concurrent requests to Victoria Metrics; overrides export.concurrency")
	recsPerInsert = pflag.Int("recsPerInsert", 0, "number of records sent to VM in one batch; overrides export.recs_per_insert")
)

func main() {
	pflag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q: %v\n", *logLevel, err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Could not load configuration", "err", err)
		os.Exit(1)
	}
	applyFlags(&cfg.Export)

	field, err := era5.Open(logger, cfg.Files...)
	if err != nil {
		logger.Error("Could not open ERA5 files", "err", err)
		os.Exit(1)
	}

	series, err := assess(logger, wind.NewResource(logger, field), cfg)
	if err != nil {
		logger.Error("Assessment failed", "site", cfg.Site.Name, "err", err)
		os.Exit(1)
	}

	if cfg.Export.InsertURL == "" {
		return
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	loc := wind.Location{Lat: cfg.Site.Latitude, Lon: cfg.Site.Longitude}
	if err := export(ctx, logger, cfg.Export, series.Records(loc, cfg.Height)); err != nil {
		logger.Error("Export failed", "err", err)
		stop()
		os.Exit(1)
	}
}

func applyFlags(exp *config.Export) {
	if pflag.CommandLine.Changed("vmInsertUrl") {
		exp.InsertURL = *vmInsertURL
	}
	if *concurrency > 0 {
		exp.Concurrency = *concurrency
	}
	if *recsPerInsert > 0 {
		exp.RecsPerInsert = *recsPerInsert
	}
}

// assess runs the site statistics and returns the speed and direction series
// at the configured reference height.
func assess(logger *slog.Logger, res *wind.Resource, cfg *config.Config) (*wind.SpeedDirection, error) {
	loc := wind.Location{Lat: cfg.Site.Latitude, Lon: cfg.Site.Longitude}
	period := wind.Period{StartYear: cfg.Period.StartYear, EndYear: cfg.Period.EndYear}
	logger = logger.With("site", cfg.Site.Name)

	sd, err := res.SpeedDirectionAtPoint(loc, cfg.Height, period)
	if err != nil {
		return nil, err
	}
	logger.Info("speed and direction",
		"height", cfg.Height,
		"samples", len(sd.Speed),
		"meanSpeed", wind.Mean(sd.Speed),
		"meanDirection", wind.Mean(sd.Direction),
	)

	alpha, err := res.ShearExponent(loc, period)
	if err != nil {
		return nil, err
	}
	logger.Info("shear exponent", "alpha", alpha)

	w, err := res.FitWeibullAtPoint(loc, cfg.Weibull.Height, period, cfg.Weibull.UsePowerLaw)
	if err != nil {
		return nil, err
	}
	logger.Info("Weibull fit",
		"height", cfg.Weibull.Height,
		"usePowerLaw", cfg.Weibull.UsePowerLaw,
		"k", w.K,
		"A", w.A,
		"mean", w.Mean(),
	)

	rose, err := wind.WindRose(sd.Direction, cfg.Sectors)
	if err != nil {
		return nil, err
	}
	width := 360.0 / float64(cfg.Sectors)
	for i, n := range rose {
		logger.Info("wind rose", "from", float64(i)*width, "to", float64(i+1)*width, "count", n)
	}

	for _, t := range cfg.Turbines {
		speeds, power, err := powercurve.Load(t.PowerCurve, cfg.Columns)
		if err != nil {
			return nil, err
		}
		pc, err := wind.NewPowerCurve(speeds, power)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.PowerCurve, err)
		}
		aep, err := res.AnnualEnergy(loc, t.HubHeight, pc, cfg.AEPYear, t.AvailabilityFactor())
		if err != nil {
			return nil, fmt.Errorf("turbine %q: %w", t.Name, err)
		}
		logger.Info("AEP",
			"turbine", t.Name,
			"year", cfg.AEPYear,
			"hubHeight", t.HubHeight,
			"availability", t.AvailabilityFactor(),
			"mwh", aep,
		)
	}
	return sd, nil
}

// export sends records to Victoria Metrics from a pool of workers. Batches
// not yet handed to a worker are dropped once ctx is done.
func export(ctx context.Context, logger *slog.Logger, exp config.Export, recs []wind.Record) error {
	vmCli, err := vm.NewClient(logger, exp.InsertURL, exp.Concurrency, exp.MetricPrefix)
	if err != nil {
		return fmt.Errorf("could not create new VM client: %w", err)
	}

	recsCh := make(chan []wind.Record)
	progressCh := make(chan int)
	var wg sync.WaitGroup
	var failed atomic.Int64
	for range exp.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range recsCh {
				if err := vmCli.Insert(ctx, batch); err != nil {
					logger.Error("Could not insert records", "err", err)
					failed.Add(1)
				}
				progressCh <- len(batch)
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		var inserted, total float64
		total = float64(len(recs))
		start := time.Now()
		for n := range progressCh {
			inserted += float64(n)
			percent := fmt.Sprintf("%.2f%%", 100*inserted/total)
			duration := time.Since(start).Round(1 * time.Second)
			logger.Info("progress", "inserted", percent, "in", duration)
		}
	}()
feed:
	for begin := 0; begin < len(recs); begin += exp.RecsPerInsert {
		limit := min(begin+exp.RecsPerInsert, len(recs))
		select {
		case recsCh <- recs[begin:limit]:
		case <-ctx.Done():
			break feed
		}
	}
	close(recsCh)
	wg.Wait()
	close(progressCh)
	<-done

	if err := ctx.Err(); err != nil {
		return err
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d batches failed to insert", n)
	}
	return nil
}
