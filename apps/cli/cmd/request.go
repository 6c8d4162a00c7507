package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/hitclient"
	"github.com/abdul-hamid-achik/hitclient/packages/auth"
	"github.com/abdul-hamid-achik/hitclient/packages/cancel"
	"github.com/abdul-hamid-achik/hitclient/packages/client"
	"github.com/abdul-hamid-achik/hitclient/packages/core/config"
	"github.com/abdul-hamid-achik/hitclient/packages/core/env"
	hithttp "github.com/abdul-hamid-achik/hitclient/packages/http"
	"github.com/abdul-hamid-achik/hitclient/packages/interceptors"
	"github.com/abdul-hamid-achik/hitclient/packages/metrics"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

var requestCmd = &cobra.Command{
	Use:     "request [method] <url>",
	Aliases: []string{"req"},
	Short:   "Send an HTTP request",
	Long: `Send a request through the interceptor pipeline and print the response.

The method defaults to GET. Relative URLs are resolved against baseURL from
the config file. Data starting with @ is read from a file; JSON data is sent
as application/json, anything else with the method's default content type.

Examples:
  hitclient request https://httpbin.org/get
  hitclient request post /users -d '{"name":"ada"}' -H "X-Team: core"
  hitclient request /users --param page=2 --query "0.name"
  hitclient request put /avatar -F name=ada -F file=@avatar.png
  hitclient request /users --auth "basic user pass" --schema user.schema.json
  hitclient request "/teams/{{team}}" --var team=core --env-file .env -H "X-Trace: {{uuid()}}"
  hitclient request /health --repeat 200 --concurrency 10 --rate 50 --threshold "p95<200ms,errors<1%"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: requestCommand,
}

var (
	headerFlags     []string
	paramFlags      []string
	formFlags       []string
	dataFlag        string
	configFlag      string
	timeoutFlag     string
	proxyFlag       string
	insecureFlag    bool
	noFollowFlag    bool
	authFlag        string
	bearerFlag      string
	queryFlag       string
	schemaFlag      string
	includeFlag     bool
	verboseFlag     bool
	noColorFlag     bool
	requestIDFlag   bool
	repeatFlag      int
	concurrencyFlag int
	rateFlag        float64
	thresholdFlag   string
	metricsFileFlag string
	varFlags        []string
	envFileFlag     string
	captureFlags    []string
	strictVarsFlag  bool
)

func init() {
	f := requestCmd.Flags()

	// Request flags
	f.StringArrayVarP(&headerFlags, "header", "H", nil, "Request header, \"Name: value\" (repeatable)")
	f.StringArrayVar(&paramFlags, "param", nil, "Query parameter, name=value (repeatable)")
	f.StringVarP(&dataFlag, "data", "d", "", "Request body, or @file to read it from a file")
	f.StringArrayVarP(&formFlags, "form", "F", nil, "Multipart field, name=value or name=@file (repeatable)")
	f.StringVar(&configFlag, "config", getEnvString("HITCLIENT_CONFIG", ""), "Path to config file (env: HITCLIENT_CONFIG)")

	// Variable flags
	f.StringArrayVar(&varFlags, "var", nil, "Variable for {{name}} placeholders, name=value (repeatable)")
	f.StringVar(&envFileFlag, "env-file", getEnvString("HITCLIENT_ENV_FILE", ""), "Load {{name}} variables from a .env file (env: HITCLIENT_ENV_FILE)")
	f.StringArrayVar(&captureFlags, "capture", nil, "Keep a response value for later requests, name=path, name=header:Name or name=status (repeatable)")
	f.BoolVar(&strictVarsFlag, "strict-vars", getEnvBool("HITCLIENT_STRICT_VARS", false), "Fail requests that contain unresolved placeholders (env: HITCLIENT_STRICT_VARS)")

	// Auth flags
	f.StringVar(&authFlag, "auth", getEnvString("HITCLIENT_AUTH", ""), "Auth scheme and params, e.g. \"basic user pass\", \"oauth2 client_credentials url id secret\" (env: HITCLIENT_AUTH)")
	f.StringVar(&bearerFlag, "bearer", getEnvString("HITCLIENT_TOKEN", ""), "Bearer token, shorthand for --auth \"bearer TOKEN\" (env: HITCLIENT_TOKEN)")
	f.BoolVar(&requestIDFlag, "request-id", getEnvBool("HITCLIENT_REQUEST_ID", false), "Tag each request with an X-Request-ID header (env: HITCLIENT_REQUEST_ID)")

	// Network flags
	f.StringVar(&timeoutFlag, "timeout", getEnvString("HITCLIENT_TIMEOUT", ""), "Request timeout (e.g., 30s, 500ms) (env: HITCLIENT_TIMEOUT)")
	f.StringVar(&proxyFlag, "proxy", getEnvString("HITCLIENT_PROXY", ""), "Proxy URL for HTTP requests (env: HITCLIENT_PROXY)")
	f.BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("HITCLIENT_INSECURE", false), "Disable SSL certificate validation (env: HITCLIENT_INSECURE)")
	f.BoolVar(&noFollowFlag, "no-follow", false, "Do not follow redirects")

	// Output flags
	f.BoolVarP(&includeFlag, "include", "i", false, "Print the status line and response headers")
	f.StringVarP(&queryFlag, "query", "q", "", "Print only the value at this gjson path")
	f.StringVar(&schemaFlag, "schema", "", "Reject responses that do not match this JSON schema file")
	f.BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("HITCLIENT_VERBOSE", false), "Log each request and response (env: HITCLIENT_VERBOSE)")
	f.BoolVar(&noColorFlag, "no-color", getEnvBool("HITCLIENT_NO_COLOR", false), "Disable colored output (env: HITCLIENT_NO_COLOR)")

	// Load flags
	f.IntVarP(&repeatFlag, "repeat", "n", getEnvInt("HITCLIENT_REPEAT", 1), "Send the request this many times and print a latency summary (env: HITCLIENT_REPEAT)")
	f.IntVarP(&concurrencyFlag, "concurrency", "c", getEnvInt("HITCLIENT_CONCURRENCY", 1), "Requests in flight at once with --repeat (env: HITCLIENT_CONCURRENCY)")
	f.Float64VarP(&rateFlag, "rate", "r", getEnvFloat("HITCLIENT_RATE", 0), "Maximum requests per second, 0 for unlimited (env: HITCLIENT_RATE)")
	f.StringVar(&thresholdFlag, "threshold", "", "Pass/fail thresholds (e.g., \"p95<200ms,errors<0.1%\")")
	f.StringVar(&metricsFileFlag, "metrics-file", getEnvString("HITCLIENT_METRICS_FILE", ""), "Write Prometheus text metrics to this file (env: HITCLIENT_METRICS_FILE)")
}

func requestCommand(cmd *cobra.Command, args []string) error {
	method, target := "get", args[0]
	if len(args) == 2 {
		method, target = strings.ToLower(args[0]), args[1]
	}
	if repeatFlag < 1 {
		return withExitCode(ExitUsageError, fmt.Errorf("--repeat must be at least 1"))
	}

	overrides, err := flagOverrides()
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	settings := fileConfig.Merge(overrides)

	thresholds, err := metrics.ParseThresholds(thresholdFlag)
	if err != nil {
		return withExitCode(ExitUsageError, fmt.Errorf("invalid thresholds: %w", err))
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	body, err := buildBody(dataFlag, formFlags, cwd)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	captures := make([]env.Capture, 0, len(captureFlags))
	for _, raw := range captureFlags {
		capture, err := env.ParseCapture(raw)
		if err != nil {
			return withExitCode(ExitUsageError, err)
		}
		captures = append(captures, capture)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(settings.GetVerbose(), settings.GetNoColor())
	c, resolver, err := buildClient(ctx, settings, logger)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	if len(captures) > 0 {
		c.Interceptors.Response.Use(resolver.Capture(captures...), nil)
	}

	if schemaFlag != "" {
		validate, err := interceptors.SchemaFile(schemaFlag)
		if err != nil {
			return withExitCode(ExitConfigError, fmt.Errorf("invalid schema: %w", err))
		}
		c.Interceptors.Response.Use(validate, nil)
	}

	var registry *prometheus.Registry
	if metricsFileFlag != "" {
		registry = prometheus.NewRegistry()
		metrics.NewPrometheusWithRegistry(registry).Install(c)
	}

	reqConfig := &client.Config{
		Method:      method,
		URL:         target,
		Data:        body,
		CancelToken: cancel.FromContext(ctx),
	}

	out := cmd.OutOrStdout()
	if repeatFlag == 1 && !thresholds.HasThresholds() {
		resp, err := c.Request(ctx, reqConfig)
		if err == nil || errorResponse(err) != nil {
			if perr := printResponse(out, responseOf(resp, err)); perr != nil && err == nil {
				err = withExitCode(ExitRequestFailure, perr)
			}
		}
		if merr := writeMetrics(registry, metricsFileFlag); merr != nil {
			logger.WithError(merr).Warn("failed to write metrics")
		}
		if err != nil {
			return withExitCode(requestExitCode(err), err)
		}
		return nil
	}

	latency := metrics.NewLatency()
	latency.Install(c)
	runRepeated(ctx, c, reqConfig, repeatFlag, concurrencyFlag)
	latency.Stop()

	summary := latency.Snapshot()
	printSummary(out, summary)
	if merr := writeMetrics(registry, metricsFileFlag); merr != nil {
		logger.WithError(merr).Warn("failed to write metrics")
	}

	if ctx.Err() != nil {
		return withExitCode(ExitCanceled, fmt.Errorf("interrupted"))
	}
	if thresholds.HasThresholds() {
		if !printThresholds(out, thresholds.Evaluate(summary)) {
			return withExitCode(ExitThresholdFailure, fmt.Errorf("thresholds not met"))
		}
		return nil
	}
	if summary.ErrorCount > 0 {
		return withExitCode(ExitRequestFailure, fmt.Errorf("%d of %d requests failed", summary.ErrorCount, summary.Count))
	}
	return nil
}

// flagOverrides turns the flags that were set into a config that wins over
// the config file.
func flagOverrides() (*config.Config, error) {
	o := &config.Config{Rate: rateFlag, Proxy: proxyFlag}

	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err)
		}
		o.Timeout = int(d.Milliseconds())
	}
	if insecureFlag {
		o.ValidateSSL = config.BoolPtr(false)
	}
	if noFollowFlag {
		o.FollowRedirects = config.BoolPtr(false)
	}
	if requestIDFlag {
		o.RequestID = config.BoolPtr(true)
	}
	if verboseFlag {
		o.Verbose = config.BoolPtr(true)
	}
	if noColorFlag {
		o.NoColor = config.BoolPtr(true)
	}

	headers, err := parsePairs(headerFlags, ":")
	if err != nil {
		return nil, fmt.Errorf("invalid header: %w", err)
	}
	params, err := parsePairs(paramFlags, "=")
	if err != nil {
		return nil, fmt.Errorf("invalid param: %w", err)
	}
	vars, err := parsePairs(varFlags, "=")
	if err != nil {
		return nil, fmt.Errorf("invalid var: %w", err)
	}
	o.Headers = headers
	o.Params = params
	o.Variables = vars
	o.EnvFile = envFileFlag

	switch {
	case authFlag != "":
		scheme, params := auth.ParseScheme(authFlag)
		o.Auth = &config.AuthConfig{Type: scheme, Params: params}
	case bearerFlag != "":
		o.Auth = &config.AuthConfig{Type: auth.SchemeBearer, Params: []string{bearerFlag}}
	}

	return o, nil
}

// parsePairs splits each "name<sep>value" entry on its first sep.
func parsePairs(entries []string, sep string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		name, value, ok := strings.Cut(entry, sep)
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%q, expected name%svalue", entry, sep)
		}
		out[name] = strings.TrimSpace(value)
	}
	return out, nil
}

// buildBody returns the request data for -d or -F. Multipart files must live
// under baseDir.
func buildBody(data string, form []string, baseDir string) (any, error) {
	if data != "" && len(form) > 0 {
		return nil, fmt.Errorf("--data and --form cannot be used together")
	}

	if len(form) > 0 {
		mp := hithttp.NewMultipart(baseDir)
		for _, entry := range form {
			name, value, ok := strings.Cut(entry, "=")
			if !ok || name == "" {
				return nil, fmt.Errorf("invalid form field %q, expected name=value or name=@file", entry)
			}
			if path, isFile := strings.CutPrefix(value, "@"); isFile {
				mp.File(name, path)
			} else {
				mp.Field(name, value)
			}
		}
		return mp, nil
	}

	if data == "" {
		return nil, nil
	}

	raw := []byte(data)
	if path, isFile := strings.CutPrefix(data, "@"); isFile {
		b, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to read data file: %w", err)
		}
		raw = b
	}
	if json.Valid(raw) {
		return json.RawMessage(raw), nil
	}
	return string(raw), nil
}

// buildClient wires the configured interceptors onto a new client.
// Request interceptors run last-registered first, so placeholders are
// expanded before auth and logging sees the final request.
func buildClient(ctx context.Context, settings *config.Config, logger logrus.FieldLogger) (*client.Client, *env.Resolver, error) {
	resolver, err := newResolver(settings, logger)
	if err != nil {
		return nil, nil, err
	}

	adapter := hithttp.NewAdapter(settings.AdapterOptions()...)
	c := hitclient.Create(settings.ToClientConfig(), client.WithAdapter(adapter), client.WithLogger(logger))

	c.Interceptors.Request.Use(interceptors.LogRequests(logger), nil)
	if settings.GetRequestID() {
		c.Interceptors.Request.Use(interceptors.RequestID(""), nil)
	}
	if settings.Rate > 0 {
		c.Interceptors.Request.Use(interceptors.NewRateLimit(settings.Rate, 1), nil)
	}
	if settings.Auth != nil {
		params := make([]string, len(settings.Auth.Params))
		for i, p := range settings.Auth.Params {
			params[i], _ = resolver.Expand(p)
		}
		if err := auth.Install(ctx, c, adapter, settings.Auth.Type, params); err != nil {
			return nil, nil, err
		}
	}
	c.Interceptors.Request.Use(resolver.Interceptor(), nil)
	c.Interceptors.Response.Use(interceptors.LogResponses(logger))

	return c, resolver, nil
}

// newResolver loads variables from the env file first so explicit
// variables override it.
func newResolver(settings *config.Config, logger logrus.FieldLogger) (*env.Resolver, error) {
	resolver := env.NewResolver(env.WithLogger(logger), env.WithStrict(strictVarsFlag))
	if settings.EnvFile != "" {
		vars, err := env.LoadDotEnv(settings.EnvFile)
		if err != nil {
			return nil, err
		}
		resolver.SetVariables(vars)
	}
	resolver.SetVariables(settings.Variables)
	return resolver, nil
}

func runRepeated(ctx context.Context, c *client.Client, cfg *client.Config, n, concurrency int) {
	if concurrency < 1 {
		concurrency = 1
	}
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// failures are counted by the latency recorder
			_, _ = c.Request(ctx, cfg)
			return nil
		})
	}
	_ = g.Wait()
}

func errorResponse(err error) *client.Response {
	if e, ok := client.AsError(err); ok {
		return e.Response
	}
	return nil
}

func responseOf(resp *client.Response, err error) *client.Response {
	if resp != nil {
		return resp
	}
	return errorResponse(err)
}

func requestExitCode(err error) int {
	if client.IsCancel(err) {
		return ExitCanceled
	}
	if e, ok := client.AsError(err); ok {
		switch e.Code {
		case client.CodeNetwork, client.CodeTimeout:
			return ExitNetworkError
		}
	}
	return ExitRequestFailure
}

func statusColor(status int) *color.Color {
	switch {
	case status >= 200 && status < 300:
		return color.New(color.FgGreen, color.Bold)
	case status >= 300 && status < 400:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

// printResponse writes the status line and headers (with --include) and the
// body, or only the --query value.
func printResponse(w io.Writer, resp *client.Response) error {
	if resp == nil {
		return nil
	}

	if includeFlag {
		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Fprintf(w, "%s %s\n", statusColor(resp.Status).Sprintf("HTTP %d", resp.Status), resp.StatusText)
		names := make([]string, 0, len(resp.Headers))
		for name := range resp.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "%s: %s\n", cyan(name), resp.Headers[name])
		}
		fmt.Fprintln(w)
	}

	if queryFlag != "" {
		result := gjson.GetBytes(resp.Body, queryFlag)
		if !result.Exists() {
			return fmt.Errorf("query %q matched nothing", queryFlag)
		}
		fmt.Fprintln(w, result.String())
		return nil
	}

	if gjson.ValidBytes(resp.Body) && len(resp.Body) > 0 {
		fmt.Fprint(w, gjson.GetBytes(resp.Body, "@pretty").Raw)
		return nil
	}
	if len(resp.Body) > 0 {
		fmt.Fprintln(w, resp.BodyString())
	}
	return nil
}

func printSummary(w io.Writer, s metrics.Summary) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintln(w, bold("Summary"))
	fmt.Fprintf(w, "  Requests:   %d in %s (%.1f/s)\n", s.Count, s.Duration.Round(time.Millisecond), s.RPS)
	fmt.Fprintf(w, "  Succeeded:  %s\n", green(fmt.Sprintf("%d (%.1f%%)", s.SuccessCount, s.SuccessRate*100)))
	if s.ErrorCount > 0 {
		fmt.Fprintf(w, "  Failed:     %s, %d timeouts\n", red(fmt.Sprintf("%d (%.1f%%)", s.ErrorCount, s.ErrorRate*100)), s.TimeoutCount)
	}
	fmt.Fprintln(w, bold("Latency"))
	fmt.Fprintf(w, "  min %s  mean %s  p50 %s  p95 %s  p99 %s  max %s\n",
		s.Min, s.Mean, s.P50, s.P95, s.P99, s.Max)
}

// printThresholds prints each result and reports whether all passed.
func printThresholds(w io.Writer, results []metrics.ThresholdResult) bool {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	passed := true
	fmt.Fprintln(w, color.New(color.Bold).Sprint("Thresholds"))
	for _, r := range results {
		mark := green("✓")
		if !r.Passed {
			mark = red("✗")
			passed = false
		}
		fmt.Fprintf(w, "  %s %s: %s (expected %s)\n", mark, r.Name, r.Actual, r.Expected)
	}
	return passed
}

// writeMetrics dumps registry in the Prometheus text format. A nil registry
// is a no-op.
func writeMetrics(registry *prometheus.Registry, path string) error {
	if registry == nil {
		return nil
	}
	families, err := registry.Gather()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			return err
		}
	}
	return nil
}
