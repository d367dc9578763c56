// Copyright 2024 Gapwatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Gapwatch finds gaps in integer identifier columns of SQL tables.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gapwatch/gapwatch/build/version"
	"github.com/gapwatch/gapwatch/internal/scanner"
	"github.com/gapwatch/gapwatch/internal/sources/registry"
	"github.com/gapwatch/gapwatch/internal/util/ctxutil"
	"github.com/gapwatch/gapwatch/internal/util/debug"
	"github.com/gapwatch/gapwatch/internal/util/debugbuild"
	"github.com/gapwatch/gapwatch/internal/util/logging"
	"github.com/gapwatch/gapwatch/internal/util/must"
	"github.com/gapwatch/gapwatch/internal/util/state"
)

// The cli struct represents all command-line commands, fields and flags.
// It's used for parsing the user input.
//
//nolint:lll // some tags are long
var cli struct {
	Version  bool   `default:"false" help:"Print version to stdout and exit." env:"-"`
	Source   string `default:"sqlite" help:"${help_source}"`
	StateDir string `default:"."      help:"Process state directory."`

	Table   []string `help:"Table to scan, as 'name' or 'name:column'; repeatable. All tables are scanned if not set." short:"t"`
	MaxSpan int64    `default:"${default_max_span}" help:"Fail a table whose identifier span (max-min+1) exceeds this limit."`

	Format string `default:"text" help:"${help_format}" enum:"${enum_format}" short:"f"`

	DebugAddr string `default:"-" help:"Listen address for HTTP handlers for metrics, pprof, etc; set to '-' to disable."`

	// see setCLIPlugins
	kong.Plugins

	Log struct {
		Level  string `default:"${default_log_level}" help:"${help_log_level}"`
		Format string `default:"console"              help:"${help_log_format}" enum:"${enum_log_format}"`
		UUID   bool   `default:"false"                help:"Add instance UUID to all log messages." negatable:""`
	} `embed:"" prefix:"log-"`

	MetricsUUID bool `default:"false" help:"Add instance UUID to all metrics." negatable:""`
}

// The sqliteFlags struct represents flags that are used by the "sqlite" source.
//
// See main_sqlite.go.
var sqliteFlags struct {
	SQLiteURL string `name:"sqlite-url" default:"file:data.db" help:"SQLite URI for 'sqlite' source."`
}

// The postgreSQLFlags struct represents flags that are used by the "postgresql" source.
//
// See main_postgresql.go.
//
//nolint:lll // the default is long
var postgreSQLFlags struct {
	PostgreSQLURL string `name:"postgresql-url" default:"postgres://127.0.0.1:5432/postgres" help:"PostgreSQL URL for 'postgresql' source."`
}

// The mySQLFlags struct represents flags that are used by the "mysql" source.
//
// See main_mysql.go.
var mySQLFlags struct {
	MySQLURL string `name:"mysql-url" default:"root@tcp(127.0.0.1:3306)/mysql" help:"MySQL DSN for 'mysql' source."`
}

// sourceFlags is a map of source names to their flags.
var sourceFlags = map[string]any{}

// setCLIPlugins adds Kong flags for sources in the right order.
func setCLIPlugins() {
	sourcesList := registry.Sources()

	if len(sourcesList) != len(sourceFlags) {
		panic("sources and sourceFlags are not in sync")
	}

	for _, s := range sourcesList {
		f := sourceFlags[s]
		if f == nil {
			panic(fmt.Sprintf("source %q has no flags", s))
		}

		cli.Plugins = append(cli.Plugins, f)
	}
}

// Additional variables for the kong parsers.
var (
	logLevels = []string{
		zap.DebugLevel.String(),
		zap.InfoLevel.String(),
		zap.WarnLevel.String(),
		zap.ErrorLevel.String(),
	}

	logFormats = []string{"console", "json"}

	outFormats = []string{"text", "json"}

	kongOptions = []kong.Option{
		kong.Vars{
			"default_log_level": defaultLogLevel().String(),
			"default_max_span":  fmt.Sprintf("%d", scanner.DefaultMaxSpan),

			"enum_log_format": strings.Join(logFormats, ","),
			"enum_format":     strings.Join(outFormats, ","),

			"help_source":     fmt.Sprintf("Source: '%s'.", strings.Join(registry.Sources(), "', '")),
			"help_format":     fmt.Sprintf("Output format: '%s'.", strings.Join(outFormats, "', '")),
			"help_log_format": fmt.Sprintf("Log format: '%s'.", strings.Join(logFormats, "', '")),
			"help_log_level":  fmt.Sprintf("Log level: '%s'.", strings.Join(logLevels, "', '")),
		},
		kong.DefaultEnvars("GAPWATCH"),
	}
)

func main() {
	setCLIPlugins()
	kong.Parse(&cli, kongOptions...)

	os.Exit(run())
}

// defaultLogLevel returns the default log level.
func defaultLogLevel() zapcore.Level {
	if version.Get().DebugBuild {
		return zap.DebugLevel
	}

	return zap.InfoLevel
}

// setupState setups state provider.
func setupState() *state.Provider {
	var f string

	// https://github.com/alecthomas/kong/issues/389
	if cli.StateDir != "" && cli.StateDir != "-" {
		var err error
		if f, err = filepath.Abs(filepath.Join(cli.StateDir, "state.json")); err != nil {
			log.Fatalf("Failed to get path for state file: %s.", err)
		}
	}

	sp, err := state.NewProvider(f)
	if err != nil {
		log.Fatalf("Failed to create state provider: %s.", err)
	}

	return sp
}

// setupMetrics setups Prometheus metrics registerer with some metrics.
func setupMetrics(stateProvider *state.Provider) prometheus.Registerer {
	r := prometheus.DefaultRegisterer
	m := stateProvider.MetricsCollector(true)

	// we don't do it by default due to
	// https://prometheus.io/docs/instrumenting/writing_exporters/#target-labels-not-static-scraped-labels
	if cli.MetricsUUID {
		r = prometheus.WrapRegistererWith(
			prometheus.Labels{"uuid": stateProvider.Get().UUID},
			prometheus.DefaultRegisterer,
		)
		m = stateProvider.MetricsCollector(false)
	}

	r.MustRegister(m)

	return r
}

// setupLogger setups zap logger.
func setupLogger(stateProvider *state.Provider, format string) *zap.Logger {
	info := version.Get()

	startupFields := []zap.Field{
		zap.String("version", info.Version),
		zap.String("commit", info.Commit),
		zap.Bool("dirty", info.Dirty),
		zap.Bool("debugBuild", info.DebugBuild),
	}
	logUUID := stateProvider.Get().UUID

	// Similarly to Prometheus, unless requested, don't add UUID to all messages, but log it once at startup.
	if !cli.Log.UUID {
		startupFields = append(startupFields, zap.String("uuid", logUUID))
		logUUID = ""
	}

	level, err := zapcore.ParseLevel(cli.Log.Level)
	if err != nil {
		log.Fatal(err)
	}

	logging.Setup(level, format, logUUID)
	l := zap.L()

	l.Info("Starting gapwatch "+info.Version+"...", startupFields...)

	if debugbuild.Enabled {
		l.Info("This is debug build. The performance will be affected.")
	}

	return l
}

// parseTables converts the repeatable --table flags into scanner table selectors.
func parseTables(flags []string) ([]scanner.Table, error) {
	res := make([]scanner.Table, len(flags))

	for i, f := range flags {
		name, column, _ := strings.Cut(f, ":")
		if name == "" {
			return nil, fmt.Errorf("invalid table selector %q", f)
		}

		res[i] = scanner.Table{Name: name, Column: column}
	}

	return res, nil
}

// dumpMetrics dumps all Prometheus metrics to stderr.
func dumpMetrics() {
	mfs := must.NotFail(prometheus.DefaultGatherer.Gather())

	for _, mf := range mfs {
		must.NotFail(expfmt.MetricFamilyToText(os.Stderr, mf))
	}
}

// run sets up environment based on provided flags and runs a scan.
// It returns the process exit code.
func run() int {
	// to increase a chance of resource finalizers to spot problems
	if debugbuild.Enabled {
		defer func() {
			runtime.GC()
			runtime.GC()
		}()
	}

	info := version.Get()

	if cli.Version {
		fmt.Fprintln(os.Stdout, "version:", info.Version)
		fmt.Fprintln(os.Stdout, "commit:", info.Commit)
		fmt.Fprintln(os.Stdout, "dirty:", info.Dirty)
		fmt.Fprintln(os.Stdout, "debugBuild:", info.DebugBuild)

		return 0
	}

	tables, err := parseTables(cli.Table)
	if err != nil {
		log.Fatalf("%s.", err)
	}

	stateProvider := setupState()

	metricsRegisterer := setupMetrics(stateProvider)

	logger := setupLogger(stateProvider, cli.Log.Format)

	if _, err = maxprocs.Set(maxprocs.Logger(logger.Sugar().Debugf)); err != nil {
		logger.Sugar().Warnf("Failed to set GOMAXPROCS: %s.", err)
	}

	ctx, stop := ctxutil.SigTerm(context.Background())
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("Stopping...")
	}()

	var wg sync.WaitGroup

	// https://github.com/alecthomas/kong/issues/389
	if cli.DebugAddr != "" && cli.DebugAddr != "-" {
		wg.Add(1)

		go func() {
			defer wg.Done()
			debug.RunHandler(ctx, cli.DebugAddr, metricsRegisterer, logger.Named("debug"))
		}()
	}

	src, err := registry.NewSource(cli.Source, &registry.NewSourceOpts{
		Logger:        logger,
		StateProvider: stateProvider,

		SQLiteURI:     sqliteFlags.SQLiteURL,
		PostgreSQLURI: postgreSQLFlags.PostgreSQLURL,
		MySQLURI:      mySQLFlags.MySQLURL,
	})
	if err != nil {
		logger.Sugar().Fatalf("Failed to construct source: %s.", err)
	}

	defer src.Close()

	metricsRegisterer.MustRegister(src)

	metrics := scanner.NewMetrics()
	metricsRegisterer.MustRegister(metrics)

	s := scanner.NewScanner(&scanner.NewScannerOpts{
		Source:  src,
		Logger:  logger.Named("scanner"),
		Metrics: metrics,
	})

	res, err := s.Scan(ctx, &scanner.ScanParams{
		Tables:  tables,
		MaxSpan: cli.MaxSpan,
	})
	if err != nil {
		logger.Error("Scan failed", zap.Error(err))

		stop()
		wg.Wait()

		return 1
	}

	switch cli.Format {
	case "json":
		err = res.RenderJSON(os.Stdout)
	default:
		err = res.RenderText(os.Stdout)
	}

	if err != nil {
		logger.Error("Failed to render results", zap.Error(err))

		stop()
		wg.Wait()

		return 1
	}

	stop()
	wg.Wait()

	if debugbuild.Enabled {
		dumpMetrics()
	}

	if res.Failed > 0 {
		return 2
	}

	return 0
}
