package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/wikiqid/internal/model"
	"github.com/ppiankov/wikiqid/internal/pipeline"
	"github.com/ppiankov/wikiqid/internal/tracing"
)

var (
	direct  bool
	variant string
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <title>",
	Short: "Resolve a Wikipedia title to a Wikidata identifier",
	Long: `Resolve looks up the Wikidata entity bound to an English Wikipedia title:
- Follows Wikipedia redirects first (unless --direct or --variant direct is given)
- Queries Wikidata wbgetentities on enwiki
- Prints the QID, or "none" when no entity matches

Lookup failures are reported through the result status, not the exit code.

Example:
  wikiqid resolve Tina_Turner
  wikiqid resolve William_T._Sherman --direct
  wikiqid resolve Tina_Turner --variant follow
  wikiqid resolve "Anna Mae Bullock" --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	d := model.DefaultConfig()
	flags := resolveCmd.Flags()

	// Variant and output flags
	flags.BoolVar(&direct, "direct", false, "query Wikidata with the title as given, skipping Wikipedia redirect resolution")
	flags.StringVar(&variant, "variant", "", "resolution variant (direct, follow); overrides resolve.follow_redirects")
	flags.String("format", d.Output.Format, "output format (text, json, yaml)")
	resolveCmd.MarkFlagsMutuallyExclusive("direct", "variant")

	// HTTP flags
	flags.Duration("timeout", d.HTTP.Timeout, "per-request timeout (0 disables it)")
	flags.String("ua", d.HTTP.UserAgent, "HTTP User-Agent")
	flags.Int64("max-bytes", d.HTTP.MaxBodyBytes, "max response bytes to read")
	flags.Bool("insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	flags.String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	flags.String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	flags.String("no-proxy", "", "hosts that bypass the proxy (overrides NO_PROXY env var)")

	// Tracing flags
	flags.Bool("trace", false, "export OpenTelemetry spans (stderr unless --otlp-endpoint is set)")
	flags.String("otlp-endpoint", "", "OTLP/HTTP collector host:port")

	bindings := map[string]string{
		"output.format":         "format",
		"http.timeout":          "timeout",
		"http.user_agent":       "ua",
		"http.max_body_bytes":   "max-bytes",
		"http.insecure_tls":     "insecure",
		"http.http_proxy":       "http-proxy",
		"http.https_proxy":      "https-proxy",
		"http.no_proxy":         "no-proxy",
		"tracing.enabled":       "trace",
		"tracing.otlp_endpoint": "otlp-endpoint",
	}
	for key, flag := range bindings {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if err := applyVariant(cfg, variant, direct); err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Output.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	shutdown, err := tracing.Setup(ctx, cfg.Tracing, Version, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	return resolveTitle(ctx, cfg, logger, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// resolveTitle runs one resolution and writes the result to stdout.
// Only invalid input or a failed write returns an error.
func resolveTitle(ctx context.Context, cfg *model.Config, logger *slog.Logger, title string, stdout, stderr io.Writer) error {
	renderer, err := pipeline.NewRenderer(cfg.Output.Format)
	if err != nil {
		return err
	}

	if cfg.HTTP.Timeout < 0 {
		return model.NewValidationError("timeout", cfg.HTTP.Timeout.String(), "must not be negative")
	}
	if cfg.HTTP.Timeout > 0 {
		// At most two requests run in series
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*cfg.HTTP.Timeout+time.Second)
		defer cancel()
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(stderr, "Resolving: %s\n", title)
		fmt.Fprintf(stderr, "Variant: %s\n", cfg.Variant())
		fmt.Fprintf(stderr, "Timeout: %v\n", cfg.HTTP.Timeout)
		fmt.Fprintln(stderr)
	}

	p := pipeline.NewPipeline(cfg, logger)
	res, err := p.Resolve(ctx, title)
	if err != nil {
		return err
	}

	if cfg.Output.Verbose {
		renderer.RenderSummary(stderr, res)
		fmt.Fprintln(stderr)
	}

	if err := renderer.Render(stdout, res); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}

// applyVariant selects the variant from --variant or --direct, leaving the configured one otherwise
func applyVariant(cfg *model.Config, name string, direct bool) error {
	if direct {
		cfg.Resolve.FollowRedirects = false
		return nil
	}
	if name == "" {
		return nil
	}
	v, err := model.ParseVariant(name)
	if err != nil {
		return err
	}
	cfg.Resolve.FollowRedirects = v == model.VariantFollow
	return nil
}
