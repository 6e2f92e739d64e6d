// serialcheck reports which exported functions of a shared object have
// signatures that can cross a serialization boundary.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/phobologic/serialcheck/internal/analyze"
	"github.com/phobologic/serialcheck/internal/config"
	"github.com/phobologic/serialcheck/internal/correlate"
	"github.com/phobologic/serialcheck/internal/discover"
	"github.com/phobologic/serialcheck/internal/filter"
	"github.com/phobologic/serialcheck/internal/logging"
	"github.com/phobologic/serialcheck/internal/nm"
	"github.com/phobologic/serialcheck/internal/parse"
	"github.com/phobologic/serialcheck/internal/report"
	"github.com/phobologic/serialcheck/internal/serial"
)

var version = "dev"

var errNoFiles = errors.New("no input files")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// cliFlags holds raw flag values. Only flags the user set are applied over
// the loaded config.
type cliFlags struct {
	configPath   string
	showReserved bool
	summary      bool
	omitHeaders  bool
	allowChar    bool
	allowVoid    bool
	allowBasic   bool
	format       string
	nmPath       string
	dynamic      bool
	demangle     bool
	keepGoing    bool
	match        string
	failing      bool
	logLevel     string
	showVersion  bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f cliFlags

	cmd := &cobra.Command{
		Use:   "serialcheck [flags] FILE|DIR...",
		Short: "Report which exported functions have serializable signatures",
		Long: `serialcheck reads the DWARF debug info and the symbol table of each shared
object and prints, for every exported function, its C signature and whether
all of its argument and return types can be serialized.

Directory arguments are searched for shared objects (*.so, *.so.N).`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.showVersion {
				_, _ = fmt.Fprintf(stdout, "serialcheck %s\n", version)
				return nil
			}
			if len(args) == 0 {
				_, _ = fmt.Fprint(stderr, cmd.UsageString())
				return errNoFiles
			}

			cfg, err := config.Load(f.configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			applyFlags(cmd.Flags(), &f, cfg)

			return check(cmd.Context(), cfg, args, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.CompletionOptions.DisableDefaultCmd = true

	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", config.DefaultPath, "config file")
	fs.BoolVarP(&f.showReserved, "print-reserved", "C", false, "print reserved symbols (_FOO)")
	fs.BoolVarP(&f.summary, "summary", "s", false, "print summary")
	fs.BoolVarP(&f.omitHeaders, "omit-headers", "o", false, "print multiple files' symbols with no separators")
	fs.BoolVarP(&f.allowChar, "allow-char-str", "c", false, "treat char* as serializable")
	fs.BoolVarP(&f.allowVoid, "allow-void-str", "v", false, "treat void* as serializable")
	fs.BoolVarP(&f.allowBasic, "allow-basic-str", "p", false, "treat any single pointer to a base type as serializable")
	fs.StringVarP(&f.format, "format", "f", "text", "output format: text, table or toon")
	fs.StringVar(&f.nmPath, "nm", nm.DefaultPath, "symbol dump utility")
	fs.BoolVarP(&f.dynamic, "dynamic", "D", false, "read the dynamic symbol table")
	fs.BoolVar(&f.demangle, "demangle", false, "demangle C++ symbol names")
	fs.BoolVarP(&f.keepGoing, "keep-going", "k", false, "continue past files that fail and report all errors at the end")
	fs.StringVar(&f.match, "match", "", "only report symbols whose name contains this substring")
	fs.BoolVar(&f.failing, "failing", false, "only report non-serializable symbols")
	fs.StringVar(&f.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	fs.BoolVarP(&f.showVersion, "version", "V", false, "show version and exit")

	cmd.AddCommand(newInitCmd(stdout, stderr))
	return cmd
}

func override[T any](fs *pflag.FlagSet, name string, dst *T, v T) {
	if fs.Changed(name) {
		*dst = v
	}
}

func applyFlags(fs *pflag.FlagSet, f *cliFlags, cfg *config.Config) {
	override(fs, "print-reserved", &cfg.ShowReserved, f.showReserved)
	override(fs, "summary", &cfg.Summary, f.summary)
	override(fs, "omit-headers", &cfg.OmitHeaders, f.omitHeaders)
	override(fs, "allow-char-str", &cfg.Policy.AllowCharPointer, f.allowChar)
	override(fs, "allow-void-str", &cfg.Policy.AllowVoidPointer, f.allowVoid)
	override(fs, "allow-basic-str", &cfg.Policy.AllowBasicPointer, f.allowBasic)
	override(fs, "format", &cfg.Format, f.format)
	override(fs, "nm", &cfg.NM.Path, f.nmPath)
	override(fs, "dynamic", &cfg.NM.Dynamic, f.dynamic)
	override(fs, "demangle", &cfg.Demangle, f.demangle)
	override(fs, "keep-going", &cfg.KeepGoing, f.keepGoing)
	override(fs, "match", &cfg.Match, f.match)
	override(fs, "failing", &cfg.Failing, f.failing)
	override(fs, "log-level", &cfg.Log.Level, f.logLevel)
}

// check analyzes every file named by args and writes the report to stdout.
func check(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	logger, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: stderr,
	})
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	files, err := discover.Expand(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no shared objects found")
	}

	renamer, err := parse.NewRenamer()
	if err != nil {
		return fmt.Errorf("loading C grammar: %w", err)
	}
	defer renamer.Close()

	analyzer := analyze.New(logger,
		analyze.ELFDebugInfo{},
		nm.Runner{Path: cfg.NM.Path, Args: cfg.DumpArgs(), Timeout: cfg.NM.Timeout},
		analyze.Options{
			Policy: serial.Policy{
				AllowCharPointer:  cfg.Policy.AllowCharPointer,
				AllowVoidPointer:  cfg.Policy.AllowVoidPointer,
				AllowBasicPointer: cfg.Policy.AllowBasicPointer,
			},
			Correlate: correlate.Options{
				ShowReserved: cfg.ShowReserved,
				Demangle:     cfg.Demangle,
				Rename:       renamer.Rename,
			},
		},
	)

	reporter := report.New(stdout, report.Options{
		Format:  format,
		Summary: cfg.Summary,
		Headers: len(files) > 1 && !cfg.OmitHeaders && !cfg.Summary,
	})

	var result *multierror.Error
	for _, path := range files {
		fr, err := analyzer.AnalyzeFile(ctx, path)
		if err != nil {
			if !cfg.KeepGoing {
				return err
			}
			logger.Error().Err(err).Str("file", path).Msg("skipping file")
			result = multierror.Append(result, err)
			continue
		}

		fr = filter.Apply(fr, filter.Options{Match: cfg.Match, Failing: cfg.Failing})
		if err := reporter.File(fr); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}

	if err := reporter.Flush(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	logger.Info().Int("files", len(files)).Int("symbols", reporter.Counts().Total()).Msg("done")
	return result.ErrorOrNil()
}
