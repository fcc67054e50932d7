// Klipper Doctor - Klipper host log analysis and health reporting tool
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/supporttools/klipper-doctor/pkg/analyzer"
	"github.com/supporttools/klipper-doctor/pkg/exporters"
	httpexporter "github.com/supporttools/klipper-doctor/pkg/exporters/http"
	promexporter "github.com/supporttools/klipper-doctor/pkg/exporters/prometheus"
	"github.com/supporttools/klipper-doctor/pkg/logger"
	"github.com/supporttools/klipper-doctor/pkg/parser"
	"github.com/supporttools/klipper-doctor/pkg/report"
	"github.com/supporttools/klipper-doctor/pkg/types"
	"github.com/supporttools/klipper-doctor/pkg/util"
)

// Build-time variables set by goreleaser or make
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Command-line flags
var (
	configPath   = flag.String("config", "", "Path to configuration file (YAML or JSON)")
	outputDir    = flag.String("output-dir", ".", "Output directory for reports and exports")
	extractStats = flag.String("extract-stats", "", "Extract stats lines to the specified file")
	reportOnly   = flag.Bool("report-only", false, "Print the text report only, skip file exports")
	serve        = flag.Bool("serve", false, "Serve the results over HTTP after analysis")
	watchMode    = flag.Bool("watch", false, "Re-analyze when the log file changes (implies -serve)")
	logLevel     = flag.String("log-level", "", "Override log level (debug, info, warn, error, fatal)")
	showVersion  = flag.Bool("version", false, "Show version information and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("klipper-doctor %s (commit %s, built %s)\n", Version, GitCommit, BuildTime)
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: klipper-doctor [flags] <klippy.log>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	logPath := flag.Arg(0)

	config, err := util.LoadConfigOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		config.Settings.LogLevel = *logLevel
	}
	if *watchMode {
		config.Watch.Enabled = true
		config.Server.Enabled = true
	}
	if *serve {
		config.Server.Enabled = true
	}

	if err := logger.Initialize(config.Settings.LogLevel, config.Settings.LogFormat,
		config.Settings.LogOutput, config.Settings.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Infof("Klipper Doctor %s analyzing %s", Version, logPath)

	if err := run(logPath, config); err != nil {
		if errors.Is(err, parser.ErrNoData) {
			logger.Errorf("no data: %s contains nothing to analyze", logPath)
			os.Exit(3)
		}
		logger.Fatalf("analysis failed: %v", err)
	}
}

// run performs one analysis pass plus the requested exports, then serves
// or watches when configured.
func run(logPath string, config *types.Config) error {
	result, assessment, rpt, err := analyzeOnce(logPath, config)
	if err != nil {
		return err
	}

	fmt.Println(rpt.Render())

	if *extractStats != "" {
		count, err := exporters.ExtractStatsLines(logPath, *extractStats)
		if err != nil {
			return err
		}
		logger.Infof("extracted %d stats lines to %s", count, *extractStats)
	}

	if !*reportOnly {
		if err := exporters.ExportAll(*outputDir, result, assessment, rpt); err != nil {
			return err
		}
	}

	if !config.Server.Enabled {
		return nil
	}
	return serveResults(logPath, config, result, assessment, rpt)
}

// analyzeOnce runs the full pipeline on the log file.
func analyzeOnce(logPath string, config *types.Config) (*types.AnalysisResult, *analyzer.Assessment, *report.Report, error) {
	result, err := parser.AnalyzeFile(logPath)
	if err != nil {
		return nil, nil, nil, err
	}
	assessment := analyzer.Aggregate(result, config.Thresholds)
	rpt := report.Synthesize(result, assessment)
	return result, assessment, rpt, nil
}

// serveResults publishes the analysis over HTTP and, in watch mode,
// re-analyzes the log after each debounced change.
func serveResults(logPath string, config *types.Config, result *types.AnalysisResult, assessment *analyzer.Assessment, rpt *report.Report) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	promExp, err := promexporter.NewExporter(config.Server.MetricsNamespace)
	if err != nil {
		return err
	}
	promExp.Publish(result, assessment)

	server := httpexporter.NewServer(config.Server, promExp.Registry())
	server.SetReport(rpt)

	if config.Watch.Enabled {
		debounce, err := time.ParseDuration(config.Watch.DebounceString)
		if err != nil {
			return fmt.Errorf("invalid watch debounce %q: %w", config.Watch.DebounceString, err)
		}
		watcher, err := watchLog(ctx, logPath, debounce, config, promExp, server)
		if err != nil {
			return err
		}
		defer watcher.Stop()
	}

	return server.Start(ctx)
}
