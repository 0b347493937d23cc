package tripanalyzer

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/livepeer/trip-analyzer/analysis"
	"github.com/livepeer/trip-analyzer/api"
	"github.com/livepeer/trip-analyzer/metrics"
	"github.com/livepeer/trip-analyzer/report"
	"github.com/livepeer/trip-analyzer/source"
	"github.com/livepeer/trip-analyzer/stats"
	"github.com/livepeer/trip-analyzer/trips"
	"github.com/peterbourgon/ff"
	"github.com/prometheus/client_golang/prometheus"
)

const usageArgs = "anchor_date min_delta max_delta window step"

// Build flags to be overwritten at build-time and passed to Run()
type BuildFlags struct {
	Version string
}

type cliFlags struct {
	plot            bool
	plotOut         string
	xlsxOut         string
	metricsTextfile string

	dataDir    string
	sourceType string
	strategy   string
	delimiter  string

	httpOpts source.HTTPOptions
	s3Opts   source.S3Options

	serve      bool
	serverOpts api.ServerOptions

	args []string
}

func parseFlags(version string) cliFlags {
	cli := cliFlags{}
	fs := flag.NewFlagSet("tripanalyzer", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: tripanalyzer [flags] %s\n\n", usageArgs)
		fmt.Fprintln(fs.Output(), "Durations are a number of days (60), a Go duration (20m) or e.g. \"20 min\".")
		fs.PrintDefaults()
	}

	// Output options
	fs.BoolVar(&cli.plot, "plot", false, "Whether to render the rolling mean as a line chart")
	fs.StringVar(&cli.plotOut, "plot-out", "rolling_mean.png", "File where to save the chart when -plot is set")
	fs.StringVar(&cli.xlsxOut, "xlsx-out", "", "Spreadsheet file where to export the rolling mean windows (optional)")
	fs.StringVar(&cli.metricsTextfile, "metrics-textfile", "", "File where to write the Prometheus metrics of the run, for the node exporter textfile collector (optional)")

	// Source options
	fs.StringVar(&cli.dataDir, "data-dir", ".", "Directory where trip record files are cached")
	fs.StringVar(&cli.sourceType, "source", "http", "Where to fetch missing trip record files from {http, s3}")
	fs.StringVar(&cli.httpOpts.BaseURL, "base-url", source.DefaultBaseURL, "Base URL of the trip record files")
	fs.DurationVar(&cli.httpOpts.Timeout, "fetch-timeout", 0, "Timeout for downloading a single file (0 for none)")
	fs.StringVar(&cli.s3Opts.Bucket, "s3-bucket", "nyc-tlc", "S3 bucket of the trip record files")
	fs.StringVar(&cli.s3Opts.Prefix, "s3-prefix", "trip data/", "Key prefix of the trip record files in the S3 bucket")
	fs.StringVar(&cli.s3Opts.Region, "s3-region", "us-east-1", "Region of the S3 bucket")
	fs.StringVar(&cli.s3Opts.Endpoint, "s3-endpoint", "", "Custom endpoint for S3-compatible storages (optional)")
	fs.StringVar(&cli.s3Opts.AccessKeyID, "s3-access-key-id", "", "Static access key ID, the default AWS credential chain is used if empty")
	fs.StringVar(&cli.s3Opts.SecretAccessKey, "s3-secret-access-key", "", "Static secret access key")
	fs.BoolVar(&cli.s3Opts.UsePathStyle, "s3-path-style", false, "Whether to use path-style S3 addressing")
	fs.BoolVar(&cli.s3Opts.Anonymous, "s3-anonymous", false, "Whether to skip request signing for public buckets")

	// Computation options
	fs.StringVar(&cli.strategy, "strategy", "naive", "Rolling mean strategy {naive, incremental}")
	fs.StringVar(&cli.delimiter, "delimiter", ",", "Field delimiter of the trip record files")

	// Server options
	fs.BoolVar(&cli.serve, "serve", false, "Run the HTTP API instead of a single computation. Positional args are ignored")
	fs.StringVar(&cli.serverOpts.Host, "host", "localhost", "Hostname to bind to")
	fs.UintVar(&cli.serverOpts.Port, "port", 8080, "Port to listen on")
	fs.DurationVar(&cli.serverOpts.ShutdownGracePeriod, "shutdown-grace-period", 15*time.Second, "Grace period to wait for server shutdown before using the force")
	fs.StringVar(&cli.serverOpts.APIRoot, "api-root", "/data", "Root path where to bind the API to")
	fs.BoolVar(&cli.serverOpts.Prometheus, "prometheus", false, "Whether to enable Prometheus metrics registry and expose /metrics endpoint")

	flag.Set("logtostderr", "true")
	glogVFlag := flag.Lookup("v")
	verbosity := fs.Int("v", 0, "Log verbosity {0-10}")

	fs.String("config", "", "config file (optional)")
	ff.Parse(fs, os.Args[1:],
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithEnvVarPrefix("TRIP"),
		ff.WithEnvVarIgnoreCommas(true),
	)
	flag.CommandLine.Parse(nil)
	glogVFlag.Value.Set(strconv.Itoa(*verbosity))

	cli.args = fs.Args()
	if !cli.serve && len(cli.args) != 5 {
		fs.Usage()
		os.Exit(2)
	}
	cli.httpOpts.UserAgent = "tripanalyzer/" + version
	return cli
}

func Run(build BuildFlags) {
	cli := parseFlags(build.Version)
	cli.serverOpts.APIHandlerOptions.ServerName = "tripanalyzer/" + build.Version

	glog.Infof("Trip analyzer starting up... version=%q", build.Version)
	ctx := contextUntilSignal(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	opts, err := analysisOptions(cli)
	if err != nil {
		exitInvalid(err)
	}
	var req analysis.Request
	if !cli.serve {
		// validated before any file gets fetched
		if req, err = parseRequest(cli.args); err != nil {
			exitInvalid(err)
		}
	}

	fetcher, err := newFetcher(ctx, cli)
	if err != nil {
		glog.Fatalf("Error creating source fetcher. err=%q", err)
	}
	cache := source.NewCache(cli.dataDir, fetcher)
	glog.Infof("Using trip records cache dir=%q source=%s", cache.Dir(), cli.sourceType)
	analyzer := analysis.New(cache, opts)

	if cli.serve {
		if cli.serverOpts.Prometheus {
			metrics.Init(prometheus.DefaultRegisterer)
		}
		glog.Info("Starting server...")
		err = api.ListenAndServe(ctx, cli.serverOpts, analyzer)
		if err != nil {
			glog.Fatalf("Error starting api server. err=%q", err)
		}
		return
	}

	var registry *prometheus.Registry
	if cli.metricsTextfile != "" {
		registry = prometheus.NewRegistry()
		metrics.Init(registry)
	}

	res, err := analyzer.Run(ctx, req)
	if errors.Is(err, trips.ErrInvalidInterval) {
		exitInvalid(err)
	} else if err != nil {
		glog.Fatalf("Error computing rolling mean. err=%q", err)
	}

	if err := writeOutputs(os.Stdout, cli, res); err != nil {
		glog.Fatalf("Error writing outputs. err=%q", err)
	}
	if registry != nil {
		if err := prometheus.WriteToTextfile(cli.metricsTextfile, registry); err != nil {
			glog.Fatalf("Error writing metrics textfile. path=%q err=%q", cli.metricsTextfile, err)
		}
	}
}

func analysisOptions(cli cliFlags) (analysis.Options, error) {
	strategy, err := stats.StrategyByName(cli.strategy)
	if err != nil {
		return analysis.Options{}, err
	}
	delim := []rune(cli.delimiter)
	if len(delim) != 1 {
		return analysis.Options{}, fmt.Errorf("delimiter must be a single character, got %q", cli.delimiter)
	}
	return analysis.Options{Strategy: strategy, Delimiter: delim[0]}, nil
}

// parseRequest builds a request from the positional args, in the order
// anchor_date min_delta max_delta window step.
func parseRequest(args []string) (analysis.Request, error) {
	if len(args) != 5 {
		return analysis.Request{}, fmt.Errorf("expected args: %s", usageArgs)
	}
	anchor, err := trips.ParseTimestamp(args[0])
	if err != nil {
		return analysis.Request{}, fmt.Errorf("bad anchor_date: %w", err)
	}
	durations := make([]time.Duration, 4)
	for i, name := range []string{"min_delta", "max_delta", "window", "step"} {
		if durations[i], err = trips.ParseDuration(args[i+1]); err != nil {
			return analysis.Request{}, fmt.Errorf("bad %s: %w", name, err)
		}
	}

	iv, err := trips.NewInterval(anchor, durations[0], durations[1])
	if err != nil {
		return analysis.Request{}, err
	}
	ws, err := stats.NewWindowSpec(durations[2], durations[3])
	if err != nil {
		return analysis.Request{}, err
	}
	return analysis.Request{Interval: iv, Window: ws}, nil
}

func newFetcher(ctx context.Context, cli cliFlags) (source.Fetcher, error) {
	switch cli.sourceType {
	case "http":
		return source.NewHTTPFetcher(cli.httpOpts), nil
	case "s3":
		fetcher, err := source.NewS3Fetcher(ctx, cli.s3Opts)
		if err != nil {
			return nil, err
		}
		return fetcher, nil
	default:
		return nil, fmt.Errorf("unknown source %q", cli.sourceType)
	}
}

func writeOutputs(w io.Writer, cli cliFlags, res *analysis.Result) error {
	if err := report.WriteSeries(w, res.Means); err != nil {
		return err
	}
	if err := report.WriteSummary(os.Stderr, res); err != nil {
		return err
	}
	if cli.plot {
		title := fmt.Sprintf("Rolling mean trip distance from %s", res.Interval)
		if err := report.SavePlot(cli.plotOut, title, res.Means); err != nil {
			return fmt.Errorf("error saving plot: %w", err)
		}
		glog.Infof("Saved rolling mean plot path=%q", cli.plotOut)
	}
	if cli.xlsxOut != "" {
		if err := report.SaveXLSX(cli.xlsxOut, res); err != nil {
			return fmt.Errorf("error saving spreadsheet: %w", err)
		}
		glog.Infof("Saved rolling mean spreadsheet path=%q", cli.xlsxOut)
	}
	return nil
}

func exitInvalid(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	os.Exit(1)
}

// contextUntilSignal returns a context cancelled on the first of sigs.
func contextUntilSignal(parent context.Context, sigs ...os.Signal) context.Context {
	ctx, cancel := context.WithCancel(parent)
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, sigs...)
	go func() {
		defer signal.Stop(sigc)
		defer cancel()
		select {
		case sig := <-sigc:
			glog.Infof("Stopping trip analyzer signal=%q", sig)
		case <-ctx.Done():
		}
	}()
	return ctx
}
