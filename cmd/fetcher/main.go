// Command fetcher downloads, normalizes, and exports state enrollment data
// for one or more school years.
//
// Usage:
//
//	fetcher -years 2022-2024 -tidy -validate
//	fetcher -years 2019,2021,2023 -out enrollment.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"mischooldata/internal/config"
	"mischooldata/internal/enrollment"
	"mischooldata/internal/era"
	"mischooldata/internal/exporter"
	"mischooldata/internal/fetch"
	"mischooldata/internal/files"
	"mischooldata/internal/infrastructure"
	"mischooldata/internal/validation"
	"mischooldata/pkg/contracts"
)

func main() {
	yearsFlag := flag.String("years", "", "school end years to fetch, e.g. 2024 or 2019,2021 or 2015-2024")
	tidyFlag := flag.Bool("tidy", false, "export the tidy (long) schema instead of the wide schema")
	outFlag := flag.String("out", "", "export file name (defaults to enrollment_<years>.csv)")
	validateFlag := flag.Bool("validate", false, "run consistency checks and print findings")
	listFlag := flag.Bool("list-years", false, "print the available years and exit")
	versionFlag := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *versionFlag {
		info := contracts.GetVersionInfo()
		fmt.Printf("%s (data format %s, %s, built %s, commit %s)\n",
			contracts.GetVersionString(), info.DataFormat, info.GoVersion, info.BuildTime, info.GitCommit)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	table := era.Default()
	cache := files.NewManager(&cfg.Paths, logger)
	client := fetch.NewClient(cfg.HTTP, cache, logger)
	service := enrollment.NewService(enrollment.NewSource(client), table, cfg.Validation, logger)

	if *listFlag {
		for _, y := range service.AvailableYears() {
			fmt.Println(y)
		}
		return
	}

	years, err := parseYears(*yearsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	if err := cfg.Paths.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataset, diagnostics := service.FetchYears(ctx, years)
	for _, d := range diagnostics {
		logger.Warn("year failed", slog.String("diagnostic", d.String()))
		fmt.Fprintf(os.Stderr, "Warning: %s\n", d)
	}
	if len(dataset.Wide()) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no year could be fetched")
		os.Exit(1)
	}

	if *validateFlag {
		opts := validation.DefaultOptions()
		opts.AbsoluteTolerance = cfg.Validation.AbsoluteTolerance
		opts.StateSumTolerance = cfg.Validation.StateSumTolerance
		for _, finding := range validation.RunChecks(dataset.Wide(), opts) {
			fmt.Println(finding)
		}
	}

	name := *outFlag
	if name == "" {
		name = defaultExportName(years, *tidyFlag)
	}

	writer := exporter.NewCSVWriter(&cfg.Paths, logger)
	if *tidyFlag {
		err = writer.WriteTidyCSV(name, dataset.Tidy())
	} else {
		err = writer.WriteWideCSV(name, dataset.Wide())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: export failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Exported %s (%d wide records, %d of %d years)\n",
		cfg.Paths.ExportPath(name), len(dataset.Wide()), len(years)-len(diagnostics), len(years))
}

// parseYears accepts comma-separated years and inclusive ranges: "2024",
// "2019,2021", "2015-2024", or mixes of both.
func parseYears(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("-years is required")
	}
	var years []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil {
				return nil, fmt.Errorf("invalid year range %q", part)
			}
			end, err := strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || end < start {
				return nil, fmt.Errorf("invalid year range %q", part)
			}
			for y := start; y <= end; y++ {
				years = append(years, y)
			}
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid year %q", part)
		}
		years = append(years, y)
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("-years is required")
	}
	return years, nil
}

func defaultExportName(years []int, tidy bool) string {
	shape := "wide"
	if tidy {
		shape = "tidy"
	}
	if len(years) == 1 {
		return fmt.Sprintf("enrollment_%d_%s.csv", years[0], shape)
	}
	min, max := years[0], years[0]
	for _, y := range years {
		if y < min {
			min = y
		}
		if y > max {
			max = y
		}
	}
	return fmt.Sprintf("enrollment_%d-%d_%s.csv", min, max, shape)
}
