package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mtbatch/internal/batch"
	"mtbatch/internal/config"
	"mtbatch/internal/logging"
)

type rootFlags struct {
	samples         string
	configFile      string
	threads         int
	outputDir       string
	kmer            string
	rounds          int
	organelleType   string
	continueOnError bool
	assembler       string
	dryRun          bool
	keepLogs        bool
	tableFormat     string
	logLevel        string
	logFormat       string
}

// flagKeys maps CLI flag names onto config keys. Only flags the user set are
// applied, so a config file or MTBATCH_* variable is not masked by a default.
var flagKeys = map[string]string{
	"threads":           config.KeyThreads,
	"output-dir":        config.KeyOutputDir,
	"kmer":              config.KeyKmer,
	"rounds":            config.KeyRounds,
	"organelle-type":    config.KeyOrganelleType,
	"continue-on-error": config.KeyContinueOnError,
	"assembler":         config.KeyAssembler,
	"dry-run":           config.KeyDryRun,
	"keep-logs":         config.KeyKeepLogs,
	"table-format":      config.KeyTableFormat,
	"log-level":         config.KeyLogLevel,
	"log-format":        config.KeyLogFormat,
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	d := config.Defaults()

	cmd := &cobra.Command{
		Use:   "mtbatch",
		Short: "Batch assembly of mitochondrial genomes using GetOrganelle",
		Long: `mtbatch runs get_organelle_from_reads.py once per sample listed in a
manifest, sequentially, and writes batch_assembly_summary.txt to the output
directory. It exits 1 if any attempted sample failed.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, &flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.samples, "samples", "", "CSV file with sample information (name,R1,R2), or a .yaml/.json manifest")
	f.StringVar(&flags.configFile, "config", "", "YAML config file (flags and MTBATCH_* variables take precedence)")
	f.IntVar(&flags.threads, "threads", d[config.KeyThreads].(int), "Number of threads per sample")
	f.StringVar(&flags.outputDir, "output-dir", d[config.KeyOutputDir].(string), "Base output directory")
	f.StringVar(&flags.kmer, "kmer", d[config.KeyKmer].(string), "K-mer values")
	f.IntVar(&flags.rounds, "rounds", d[config.KeyRounds].(int), "Extension rounds")
	f.StringVar(&flags.organelleType, "organelle-type", d[config.KeyOrganelleType].(string), "Organelle type")
	f.BoolVar(&flags.continueOnError, "continue-on-error", false, "Continue processing if a sample fails")
	f.StringVar(&flags.assembler, "assembler", config.DefaultAssembler, "Assembler executable (looked up on PATH)")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Print the assembler commands without running them")
	f.BoolVar(&flags.keepLogs, "keep-logs", false, "Save each sample's assembler stdout/stderr under <output-dir>/logs")
	f.StringVar(&flags.tableFormat, "table-format", d[config.KeyTableFormat].(string), "Console result table format (ascii, markdown)")
	f.StringVar(&flags.logLevel, "log-level", d[config.KeyLogLevel].(string), "Diagnostic log level (debug, info, warn, error)")
	f.StringVar(&flags.logFormat, "log-format", d[config.KeyLogFormat].(string), "Diagnostic log format (text, json)")

	_ = cmd.MarkFlagRequired("samples")
	return cmd
}

func runBatch(cmd *cobra.Command, flags *rootFlags) error {
	cfg, err := config.Load(config.Options{
		File:      flags.configFile,
		Overrides: changedFlags(cmd.Flags()),
	})
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logging.Init(level, cfg.LogFormat, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := batch.NewController(cfg, cmd.OutOrStdout()).Run(ctx, flags.samples)
	if err != nil {
		return err
	}
	if code := b.ExitCode(); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// changedFlags returns config overrides for every flag set on the command line.
// Values stay strings; config.Load converts them to the target field types.
func changedFlags(fs *pflag.FlagSet) map[string]any {
	out := make(map[string]any)
	fs.Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			out[key] = f.Value.String()
		}
	})
	return out
}
