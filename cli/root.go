package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"yttranscript"
	"yttranscript/format"
	httpclient "yttranscript/http"
	"yttranscript/internal/config"
	"yttranscript/internal/logging"
	"yttranscript/internal/metrics"
	"yttranscript/internal/output"
	"yttranscript/youtube"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Exit statuses.
const (
	exitOK             = 0
	exitUsage          = 1
	exitNoTranscript   = 2
	exitLanguage       = 3
	exitNetwork        = 4
	exitFileOutput     = 5
	exitUnsupported    = 6
	exitNotImplemented = 7
	exitInternal       = 8
	exitUnexpected     = 99
	exitInterrupted    = 130
)

const expectedURLForms = "Expected format: https://youtube.com/watch?v=VIDEO_ID, https://youtu.be/VIDEO_ID, or VIDEO_ID"

// usageError marks bad flags, arguments or configuration.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// sourceFactory builds the transcript source for one invocation.
type sourceFactory func(ctx context.Context, cfg *config.Config, client *httpclient.Client, logger zerolog.Logger) (yttranscript.Source, error)

// app carries the streams and collaborators of one invocation.
type app struct {
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	newSource sourceFactory
}

type options struct {
	format        string
	output        string
	language      string
	timestamps    bool
	listLanguages bool
	force         bool
	copy          bool
	configPath    string
	logLevel      string
	maxAttempts   int
}

// defaultSource uses the Data API when an API key is configured and the
// public watch page otherwise.
func defaultSource(ctx context.Context, cfg *config.Config, client *httpclient.Client, logger zerolog.Logger) (yttranscript.Source, error) {
	if cfg.APIKey != "" {
		return youtube.NewDataAPISource(ctx, cfg.APIKey, client, logging.WithComponent(logger, "dataapi"))
	}
	return youtube.NewWatchSource(client, "", logging.WithComponent(logger, "watch")), nil
}

func (a *app) newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "yttranscript URL",
		Short: "Extract the transcript of a YouTube video",
		Long: `Extract the transcript of a YouTube video.

URL can be a full YouTube URL (youtube.com/watch?v=..., youtu.be/...,
youtube.com/embed/...) or just the 11-character video ID.`,
		Example: `  yttranscript https://youtube.com/watch?v=dQw4w9WgXcQ
  yttranscript dQw4w9WgXcQ --format markdown --timestamps
  yttranscript https://youtu.be/dQw4w9WgXcQ --output transcript.txt
  yttranscript dQw4w9WgXcQ --list-languages`,
		Version: version,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return &usageError{err}
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.format, "format", "f", "", fmt.Sprintf("output format: %s (default from config, else plain)", strings.Join(format.Names(), ", ")))
	flags.StringVarP(&opts.output, "output", "o", "", "output file path (default: stdout)")
	flags.StringVarP(&opts.language, "language", "l", "", "transcript language code, e.g. en, es, fr (default: English, then first available)")
	flags.BoolVarP(&opts.timestamps, "timestamps", "t", false, "include timestamps in output")
	flags.BoolVar(&opts.listLanguages, "list-languages", false, "list available transcript languages for the video")
	flags.BoolVar(&opts.force, "force", false, "overwrite existing output files without confirmation")
	flags.BoolVar(&opts.copy, "copy", false, "copy the transcript to the system clipboard")
	flags.StringVar(&opts.configPath, "config", "", "config file (default: ./yttranscript.yaml, then the user config dir)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.IntVar(&opts.maxAttempts, "max-attempts", 0, "maximum attempts per YouTube request")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})
	return cmd
}

// loadConfig layers command-line flags over the file and environment.
func loadConfig(cmd *cobra.Command, opts options) (*config.Config, error) {
	cfg, _, err := config.Load(opts.configPath)
	if err != nil {
		return nil, &usageError{err}
	}

	flags := cmd.Flags()
	if flags.Changed("language") {
		cfg.DefaultLanguage = opts.language
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("max-attempts") {
		cfg.MaxAttempts = opts.maxAttempts
	}
	if err := cfg.Validate(); err != nil {
		return nil, &usageError{err}
	}
	// default_format is checked by run, after a --format override.
	if flags.Changed("format") {
		cfg.DefaultFormat = opts.format
	}
	return cfg, nil
}

func (a *app) run(cmd *cobra.Command, input string, opts options) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LoggingConfig(), a.stderr)
	m := metrics.New()
	defer func() {
		if cfg.MetricsFile == "" {
			return
		}
		if err := m.WriteFile(cfg.MetricsFile); err != nil {
			logger.Warn().Err(err).Str("path", cfg.MetricsFile).Msg("failed to write metrics")
		}
	}()

	ref, err := yttranscript.ResolveReference(input)
	if err != nil {
		return err
	}
	if _, err := format.Parse(cfg.DefaultFormat); err != nil {
		if !cmd.Flags().Changed("format") {
			return &usageError{fmt.Errorf("default_format: %w", err)}
		}
		return &yttranscript.Error{
			Kind: yttranscript.KindRenderUnsupported,
			Msg:  fmt.Sprintf("Unsupported format: %s", cfg.DefaultFormat),
			Err:  err,
		}
	}

	if opts.listLanguages {
		changedFormat := cmd.Flags().Changed("format") && !strings.EqualFold(opts.format, string(format.FormatPlain))
		if opts.output != "" || opts.timestamps || opts.copy || changedFormat {
			return &usageError{errors.New("--list-languages cannot be used with other output options")}
		}
	}

	httpCfg := cfg.HTTPConfig()
	httpCfg.Logger = logging.WithComponent(logger, "http")
	client, err := httpclient.New(httpCfg)
	if err != nil {
		return &yttranscript.Error{Kind: yttranscript.KindInternal, Msg: err.Error(), Err: err}
	}
	defer client.Close()

	source, err := a.newSource(ctx, cfg, client, logger)
	if err != nil {
		return &yttranscript.Error{Kind: yttranscript.KindInternal, Msg: err.Error(), Err: err}
	}

	extractor := yttranscript.NewExtractor(source,
		yttranscript.WithRetryConfig(cfg.RetryConfig()),
		yttranscript.WithLogger(logging.WithComponent(logger, "extractor")),
		yttranscript.WithMetrics(m),
	)

	if opts.listLanguages {
		return a.listLanguages(ctx, extractor, ref.ID)
	}

	fmt.Fprintln(a.stderr, "Fetching transcript...")
	t, err := extractor.ExtractTranscript(ctx, ref.ID, cfg.DefaultLanguage)
	if err != nil {
		return err
	}

	content, err := yttranscript.Render(t, cfg.DefaultFormat, opts.timestamps)
	if err != nil {
		return err
	}

	sink := output.NewSink(a.stdout, opts.force, output.Prompt(a.stdin, a.stderr))
	if opts.copy {
		if err := sink.Copy(content); err != nil {
			return err
		}
		fmt.Fprintln(a.stderr, "Transcript copied to clipboard")
	}
	if opts.output != "" {
		if err := sink.WriteFile(opts.output, content); err != nil {
			return err
		}
		fmt.Fprintf(a.stderr, "Transcript saved to '%s'\n", opts.output)
		return nil
	}
	if opts.copy {
		return nil
	}
	return sink.WriteStdout(content)
}

func (a *app) listLanguages(ctx context.Context, extractor *yttranscript.Extractor, videoID string) error {
	fmt.Fprintln(a.stderr, "Fetching available languages...")
	languages, err := extractor.ListLanguages(ctx, videoID)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, "Available languages:")
	for _, lang := range languages {
		status := ""
		if lang.IsGenerated {
			status = " (auto-generated)"
		}
		fmt.Fprintf(a.stdout, "- %s (%s)%s\n", lang.LanguageCode, lang.Name, status)
	}
	return nil
}

// exitCode maps an invocation error to the process exit status.
func exitCode(err error) int {
	if err == nil || errors.Is(err, output.ErrDeclined) {
		return exitOK
	}
	if errors.Is(err, context.Canceled) {
		return exitInterrupted
	}

	var ue *usageError
	if errors.As(err, &ue) {
		return exitUsage
	}
	var fe *output.FileError
	if errors.As(err, &fe) || errors.Is(err, output.ErrClipboardUnavailable) {
		return exitFileOutput
	}

	kind, ok := yttranscript.KindOf(err)
	if !ok {
		return exitUnexpected
	}
	switch kind {
	case yttranscript.KindInvalidReference:
		return exitUsage
	case yttranscript.KindNoTranscriptAvailable:
		return exitNoTranscript
	case yttranscript.KindLanguageNotFound:
		return exitLanguage
	case yttranscript.KindNetworkFailure:
		return exitNetwork
	case yttranscript.KindRenderUnsupported:
		return exitUnsupported
	case yttranscript.KindRenderNotImplemented:
		return exitNotImplemented
	case yttranscript.KindInternal:
		return exitInternal
	default:
		return exitUnexpected
	}
}

// report prints err to w the way its exit status calls for.
func report(w io.Writer, cmd *cobra.Command, err error) {
	switch code := exitCode(err); {
	case errors.Is(err, output.ErrDeclined):
		fmt.Fprintln(w, "Operation cancelled.")
	case code == exitInterrupted:
		fmt.Fprintln(w, "\nOperation cancelled by user.")
	case code == exitUnexpected:
		fmt.Fprintf(w, "Unexpected error: %v\n", err)
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
		if errors.Is(err, yttranscript.ErrInvalidReference) {
			fmt.Fprintln(w, expectedURLForms)
		}
		var ue *usageError
		if errors.As(err, &ue) && cmd != nil {
			fmt.Fprintln(w, cmd.UsageString())
		}
	}
}

// execute runs the command line and returns the exit status.
func (a *app) execute(ctx context.Context, args []string) int {
	cmd := a.newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		err = context.Canceled
	}
	report(a.stderr, cmd, err)
	return exitCode(err)
}
