// Command sattrack tracks a satellite by name from the command line: current
// position, visibility from a ground station, and upcoming passes.
//
// Usage:
//
//	sattrack [flags] <satellite name>
package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shivmishra76/sat-tracker-cli/internal/output"
	"github.com/shivmishra76/sat-tracker-cli/internal/passes"
	"github.com/shivmishra76/sat-tracker-cli/internal/propagation"
	"github.com/shivmishra76/sat-tracker-cli/internal/tle"
	"github.com/shivmishra76/sat-tracker-cli/internal/transform"
)

// tleCacheMaxAge keeps CLI runs from hammering the TLE source.
const tleCacheMaxAge = 2 * time.Hour

type options struct {
	name         string
	gsLat        float64
	gsLon        float64
	gsAltKm      float64
	hours        float64
	minElevation float64
	jsonOutput   bool
	sourceURL    string
	cacheDir     string
}

func parseOptions() (options, error) {
	var opts options
	flag.Float64Var(&opts.gsLat, "gs-lat", 40.0, "ground station latitude (degrees)")
	flag.Float64Var(&opts.gsLon, "gs-lon", -88.0, "ground station longitude (degrees)")
	flag.Float64Var(&opts.gsAltKm, "gs-alt", 0.2, "ground station altitude (km)")
	flag.Float64Var(&opts.hours, "hours", 24, "hours ahead to predict passes")
	flag.Float64Var(&opts.minElevation, "min-elevation", 10.0, "minimum elevation for pass prediction (degrees)")
	flag.BoolVar(&opts.jsonOutput, "json", false, "output results in JSON format")
	flag.StringVar(&opts.sourceURL, "tle-url", "", "TLE source URL (default: CelesTrak active set)")
	flag.StringVar(&opts.cacheDir, "cache-dir", defaultCacheDir(), "TLE cache directory")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <satellite name>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		return opts, fmt.Errorf("expected exactly one satellite name argument, got %d", flag.NArg())
	}
	opts.name = flag.Arg(0)
	return opts, nil
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "sattrack")
	}
	return "./tle-cache"
}

func main() {
	opts, err := parseOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	logLevel := slog.LevelWarn
	if v := os.Getenv("SATTRACK_LOG_LEVEL"); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			logLevel = lvl
		}
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if err := run(opts, logger); err != nil {
		output.WriteError(pickErrorWriter(opts), err, opts.jsonOutput)
		os.Exit(1)
	}
}

// pickErrorWriter sends JSON errors to stdout (they are the program output)
// and human errors to stderr.
func pickErrorWriter(opts options) io.Writer {
	if opts.jsonOutput {
		return os.Stdout
	}
	return os.Stderr
}

func run(opts options, logger *slog.Logger) error {
	if !opts.jsonOutput {
		fmt.Println("Tracking satellite position and visibility...")
	}

	entries, err := loadTLEData(opts, logger)
	if err != nil {
		return err
	}

	entry, err := selectSatellite(entries, opts)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	prop, err := propagation.NewSGP4(entry.Line1, entry.Line2, entry.NORADID)
	if err != nil {
		return err
	}
	track, err := prop.GroundTrackAt(now)
	if err != nil {
		return err
	}
	period, err := passes.EstimatePeriod(entry)
	if err != nil {
		return err
	}

	observer := transform.NewObserverPosition(opts.gsLat, opts.gsLon, opts.gsAltKm*1000)
	look := transform.GeodeticLookAngles(observer, track.Point)

	records, err := passes.Predict(passes.Request{
		Entry:        entry,
		Observer:     observer,
		Start:        now,
		HorizonHours: opts.hours,
		MinElevation: opts.minElevation,
	}, logger)
	if err != nil {
		return err
	}

	report := output.NewReport(output.ReportInput{
		Timestamp:    now,
		Name:         entry.Name,
		SubLatDeg:    track.Point.LatDeg,
		SubLonDeg:    track.Point.LonDeg,
		AltKm:        track.Point.AltM / 1000,
		VelocityKms:  track.SpeedKms,
		PeriodMin:    period,
		GSLatDeg:     opts.gsLat,
		GSLonDeg:     opts.gsLon,
		GSAltKm:      opts.gsAltKm,
		AzimuthDeg:   look.AzimuthDeg,
		ElevationDeg: look.ElevationDeg,
		RangeKm:      look.RangeKm,
		HorizonHours: opts.hours,
		MinElevation: opts.minElevation,
		Passes:       records,
		NextPass:     passes.NextPass(records, now),
	})

	if opts.jsonOutput {
		return output.WriteJSON(os.Stdout, report)
	}
	output.WriteHuman(os.Stdout, report)
	return nil
}

// loadTLEData returns the parsed TLE set, from the disk cache when it is
// fresh enough and from the network otherwise.
func loadTLEData(opts options, logger *slog.Logger) ([]tle.TLEEntry, error) {
	diskCache := tle.NewCache(opts.cacheDir, 3)

	data, _, err := diskCache.LoadFresh(time.Now(), tleCacheMaxAge)
	if err != nil {
		fetcher := tle.NewFetcher(opts.sourceURL)
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		data, err = fetcher.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching TLE data: %w", err)
		}
		if err := diskCache.Write(data, time.Now()); err != nil {
			logger.Warn("writing TLE cache failed", "error", err)
		}
	}

	entries, err := tle.Parse(bytes.NewReader(data), logger)
	if err != nil {
		return nil, fmt.Errorf("parsing TLE data: %w", err)
	}
	return entries, nil
}

// maxShownMatches caps the interactive match list.
const maxShownMatches = 10

// selectSatellite resolves the name query to one satellite. Multiple matches
// prompt an interactive pick in human mode; JSON mode takes the first match
// so scripted runs never block on stdin.
func selectSatellite(entries []tle.TLEEntry, opts options) (tle.TLEEntry, error) {
	matches := tle.Search(entries, opts.name)
	if len(matches) == 0 {
		return tle.TLEEntry{}, fmt.Errorf("satellite %q not found", opts.name)
	}
	if len(matches) == 1 || opts.jsonOutput {
		return matches[0], nil
	}

	if len(matches) > maxShownMatches {
		matches = matches[:maxShownMatches]
	}
	fmt.Println("Multiple matches found:")
	for i, m := range matches {
		fmt.Printf("%d. %s\n", i+1, m.Name)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("Select a satellite by number (1-%d): ", len(matches))
		if !scanner.Scan() {
			return tle.TLEEntry{}, fmt.Errorf("no selection made")
		}
		choice := strings.TrimSpace(scanner.Text())
		idx, err := strconv.Atoi(choice)
		if err == nil && idx >= 1 && idx <= len(matches) {
			return matches[idx-1], nil
		}
		fmt.Println("Invalid choice, please try again.")
	}
}
