package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/XiangYd616/webtest/packages/alerts"
	"github.com/XiangYd616/webtest/packages/core/config"
	"github.com/XiangYd616/webtest/packages/core/spec"
	"github.com/XiangYd616/webtest/packages/engine"
	"github.com/XiangYd616/webtest/packages/history"
	"github.com/XiangYd616/webtest/packages/httpx"
	"github.com/XiangYd616/webtest/packages/output"
	"github.com/XiangYd616/webtest/packages/progress"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <suite-file>",
	Short: "Run endpoint tests from a suite file",
	Long: `Run endpoint tests defined in a YAML or JSON suite file.

Examples:
  webtest run suite.yaml
  webtest run suite.yaml --mode parallel --concurrency 10
  webtest run suite.yaml --var baseUrl=https://staging.example.com
  webtest run suite.yaml --output json --output-file report.json
  webtest run suite.yaml --watch
  webtest run suite.yaml --history runs.db`,
	Args: cobra.ExactArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	configFlag       string
	modeFlag         string
	concurrencyFlag  int
	timeoutFlag      string
	varFlags         []string
	outputFlag       string
	outputFileFlag   string
	verboseFlag      bool
	noColorFlag      bool
	watchFlag        bool
	historyFlag      string
	alertWebhookFlag string
	thresholdFlag    int
	rateFlag         float64
	proxyFlag        string
	insecureFlag     bool
)

func init() {
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("WEBTEST_CONFIG", ""), "Path to config file (env: WEBTEST_CONFIG)")
	runCmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Execution mode: sequential, parallel (overrides suite)")
	runCmd.Flags().IntVar(&concurrencyFlag, "concurrency", getEnvInt("WEBTEST_CONCURRENCY", 0), "Parallel chunk size (env: WEBTEST_CONCURRENCY)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("WEBTEST_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: WEBTEST_TIMEOUT)")
	runCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Seed variable as name=value (repeatable)")

	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("WEBTEST_OUTPUT", "console"), "Output format: console, json (env: WEBTEST_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("WEBTEST_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: WEBTEST_OUTPUT_FILE)")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("WEBTEST_VERBOSE", false), "Verbose output with extractions and progress (env: WEBTEST_VERBOSE)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("WEBTEST_NO_COLOR", false), "Disable colored output (env: WEBTEST_NO_COLOR)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch the suite file for changes and re-run")

	runCmd.Flags().StringVar(&historyFlag, "history", getEnvString("WEBTEST_HISTORY", ""), "SQLite file to record run history (env: WEBTEST_HISTORY)")
	runCmd.Flags().StringVar(&alertWebhookFlag, "alert-webhook", getEnvString("WEBTEST_ALERT_WEBHOOK", ""), "Webhook URL for alert notifications (env: WEBTEST_ALERT_WEBHOOK)")
	runCmd.Flags().IntVar(&thresholdFlag, "threshold", 0, "Response time alert threshold in milliseconds")
	runCmd.Flags().Float64VarP(&rateFlag, "rate", "r", 0, "Cap request starts at N per second")

	runCmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("WEBTEST_PROXY", ""), "Proxy URL for HTTP requests (env: WEBTEST_PROXY)")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("WEBTEST_INSECURE", false), "Disable SSL certificate validation (env: WEBTEST_INSECURE)")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func runCommand(cmd *cobra.Command, args []string) error {
	suitePath := args[0]

	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}
	cfg := applyFlagOverrides(fileConfig)

	var outWriter *os.File
	if outputFileFlag != "" {
		outWriter, err = os.Create(outputFileFlag)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer outWriter.Close()
	}
	formatter := buildFormatter(cfg, outWriter)
	formatter.FormatHeader(version)

	var store *history.Store
	if cfg.HistoryPath != "" {
		store, err = history.Open(cfg.HistoryPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	orchestrator, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt, stopping...")
		cancel()
	}()

	runOnce := func() (*engine.RunReport, error) {
		req, err := loadRequest(suitePath)
		if err != nil {
			formatter.FormatError(err)
			return nil, err
		}

		report, err := orchestrator.RunBatch(ctx, req)
		if err != nil {
			formatter.FormatError(err)
			return nil, err
		}

		formatter.FormatReport(report)

		if store != nil {
			if _, err := store.SaveReport(ctx, report); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to save run history: %v\n", err)
			}
		}
		return report, nil
	}

	report, err := runOnce()

	if !watchFlag {
		if err != nil {
			return err
		}
		if !report.Success {
			os.Exit(1)
		}
		return nil
	}

	return watchAndRerun(cmd, suitePath, runOnce)
}

// applyFlagOverrides layers the CLI flags over the file config.
func applyFlagOverrides(fileConfig *config.Config) *config.Config {
	overrides := &config.Config{
		Concurrency:           concurrencyFlag,
		ResponseTimeThreshold: thresholdFlag,
		HistoryPath:           historyFlag,
		AlertWebhook:          alertWebhookFlag,
		Proxy:                 proxyFlag,
	}
	if timeoutFlag != "" {
		if d, err := time.ParseDuration(timeoutFlag); err == nil {
			overrides.Timeout = int(d.Milliseconds())
		}
	}
	if insecureFlag {
		overrides.ValidateSSL = config.BoolPtr(false)
	}
	if noColorFlag {
		overrides.NoColor = config.BoolPtr(true)
	}
	if verboseFlag {
		overrides.Verbose = config.BoolPtr(true)
	}
	return fileConfig.Merge(overrides)
}

func buildFormatter(cfg *config.Config, outWriter *os.File) output.Formatter {
	switch strings.ToLower(outputFlag) {
	case "json":
		opts := []output.JSONOption{}
		if outWriter != nil {
			opts = append(opts, output.JSONWithWriter(outWriter))
		}
		return output.NewJSONFormatter(opts...)
	default: // "console"
		opts := []output.ConsoleOption{
			output.WithVerbose(cfg.GetVerbose()),
			output.WithNoColor(cfg.GetNoColor()),
		}
		if outWriter != nil {
			opts = append(opts, output.WithWriter(outWriter))
		}
		return output.NewConsoleFormatter(opts...)
	}
}

func buildOrchestrator(cfg *config.Config) (*engine.Orchestrator, error) {
	log := logrus.StandardLogger()
	if cfg.GetVerbose() {
		log.SetLevel(logrus.DebugLevel)
	}

	clientOpts := []httpx.ClientOption{
		httpx.WithFollowRedirects(cfg.GetFollowRedirects()),
		httpx.WithValidateSSL(cfg.GetValidateSSL()),
	}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, httpx.WithTimeout(time.Duration(cfg.Timeout)*time.Millisecond))
	}
	if cfg.MaxRedirects > 0 {
		clientOpts = append(clientOpts, httpx.WithMaxRedirects(cfg.MaxRedirects))
	}
	if cfg.Proxy != "" {
		clientOpts = append(clientOpts, httpx.WithProxy(cfg.Proxy))
	}
	if len(cfg.Headers) > 0 {
		clientOpts = append(clientOpts, httpx.WithDefaultHeaders(cfg.Headers))
	}
	client := httpx.NewClient(clientOpts...)

	executor := engine.NewExecutor(client, log)

	orchOpts := []engine.Option{
		engine.WithLogger(log),
		engine.WithVersion(version),
	}
	if cfg.Concurrency > 0 {
		orchOpts = append(orchOpts, engine.WithConcurrency(cfg.Concurrency))
	}
	if cfg.ResponseTimeThreshold > 0 {
		orchOpts = append(orchOpts, engine.WithResponseTimeThreshold(int64(cfg.ResponseTimeThreshold)))
	}
	if rateFlag > 0 {
		orchOpts = append(orchOpts, engine.WithRateLimit(rateFlag))
	}
	if cfg.GetVerbose() {
		orchOpts = append(orchOpts, engine.WithProgress(progress.LogPublisher{Log: log}))
	}
	if cfg.AlertWebhook != "" {
		orchOpts = append(orchOpts, engine.WithAlerts(alerts.NewWebhookChecker(cfg.AlertWebhook)))
	}

	return engine.NewOrchestrator(executor, orchOpts...), nil
}

// loadRequest loads the suite and applies the suite-level CLI overrides.
func loadRequest(path string) (*spec.TestRunRequest, error) {
	req, err := spec.Load(path)
	if err != nil {
		return nil, err
	}

	if modeFlag != "" {
		req.Mode = strings.ToLower(modeFlag)
	}
	if concurrencyFlag > 0 {
		req.Concurrency = concurrencyFlag
	}

	for _, kv := range varFlags {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q: expected name=value", kv)
		}
		if req.Variables == nil {
			req.Variables = make(map[string]string)
		}
		req.Variables[name] = value
	}

	return req, req.Validate()
}

// watchAndRerun re-runs the suite on every debounced write to the file or
// its directory.
func watchAndRerun(cmd *cobra.Command, suitePath string, runOnce func() (*engine.RunReport, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save and
	// a direct file watch goes stale after the first write.
	dir := filepath.Dir(suitePath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	target, _ := filepath.Abs(suitePath)
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			changed, _ := filepath.Abs(event.Name)
			if changed != target || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nFile changed: %s\nRe-running tests...\n\n", event.Name)
				_, _ = runOnce()
				fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watcher error: %v\n", err)
		}
	}
}
