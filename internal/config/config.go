// Package config builds the immutable BatchConfig snapshot from defaults, an
// optional YAML file, MTBATCH_* environment variables and explicit CLI overrides.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix selects the environment variables read by Load (MTBATCH_THREADS -> threads).
const EnvPrefix = "MTBATCH_"

// Keys shared by the config file, the environment and CLI overrides.
const (
	KeyThreads         = "threads"
	KeyKmer            = "kmer"
	KeyRounds          = "rounds"
	KeyOrganelleType   = "organelle_type"
	KeyOutputDir       = "output_dir"
	KeyContinueOnError = "continue_on_error"
	KeyAssembler       = "assembler"
	KeyDryRun          = "dry_run"
	KeyKeepLogs        = "keep_logs"
	KeyTableFormat     = "table_format"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
)

// DefaultAssembler is the GetOrganelle entry point looked up on PATH.
const DefaultAssembler = "get_organelle_from_reads.py"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// BatchConfig is read-only after Load returns it.
type BatchConfig struct {
	Threads         int
	Kmers           []int
	Rounds          int
	OrganelleType   string
	OutputDir       string
	ContinueOnError bool

	Assembler   string
	DryRun      bool
	KeepLogs    bool
	TableFormat string
	LogLevel    string
	LogFormat   string
}

// raw mirrors the koanf key space before k-mer parsing and validation.
type raw struct {
	Threads         int    `koanf:"threads"`
	Kmer            string `koanf:"kmer"`
	Rounds          int    `koanf:"rounds"`
	OrganelleType   string `koanf:"organelle_type"`
	OutputDir       string `koanf:"output_dir"`
	ContinueOnError bool   `koanf:"continue_on_error"`
	Assembler       string `koanf:"assembler"`
	DryRun          bool   `koanf:"dry_run"`
	KeepLogs        bool   `koanf:"keep_logs"`
	TableFormat     string `koanf:"table_format"`
	LogLevel        string `koanf:"log_level"`
	LogFormat       string `koanf:"log_format"`
}

// Defaults returns the key/value defaults applied before any other source.
func Defaults() map[string]any {
	return map[string]any{
		KeyThreads:         4,
		KeyKmer:            "21,45,65,85,105",
		KeyRounds:          15,
		KeyOrganelleType:   "animal_mt",
		KeyOutputDir:       "output",
		KeyContinueOnError: false,
		KeyAssembler:       DefaultAssembler,
		KeyDryRun:          false,
		KeyKeepLogs:        false,
		KeyTableFormat:     "ascii",
		KeyLogLevel:        "warn",
		KeyLogFormat:       "text",
	}
}

// Options selects the sources merged by Load.
type Options struct {
	// File is an optional YAML config file; empty skips it.
	File string
	// Overrides are applied last, typically the CLI flags the user set explicitly.
	Overrides map[string]any
}

// Load merges defaults < file < environment < overrides and validates the result.
func Load(opts Options) (BatchConfig, error) {
	k := koanf.New(".")

	for key, v := range Defaults() {
		_ = k.Set(key, v)
	}

	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return BatchConfig{}, fmt.Errorf("load config file %s: %w", opts.File, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return BatchConfig{}, fmt.Errorf("load environment: %w", err)
	}

	for key, v := range opts.Overrides {
		_ = k.Set(key, v)
	}

	var r raw
	if err := k.Unmarshal("", &r); err != nil {
		return BatchConfig{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return r.build()
}

func (r raw) build() (BatchConfig, error) {
	kmers, err := ParseKmers(r.Kmer)
	if err != nil {
		return BatchConfig{}, err
	}
	cfg := BatchConfig{
		Threads:         r.Threads,
		Kmers:           kmers,
		Rounds:          r.Rounds,
		OrganelleType:   strings.TrimSpace(r.OrganelleType),
		OutputDir:       strings.TrimSpace(r.OutputDir),
		ContinueOnError: r.ContinueOnError,
		Assembler:       strings.TrimSpace(r.Assembler),
		DryRun:          r.DryRun,
		KeepLogs:        r.KeepLogs,
		TableFormat:     strings.ToLower(strings.TrimSpace(r.TableFormat)),
		LogLevel:        r.LogLevel,
		LogFormat:       strings.ToLower(strings.TrimSpace(r.LogFormat)),
	}
	if err := cfg.Validate(); err != nil {
		return BatchConfig{}, err
	}
	return cfg, nil
}

// Validate reports the first field that cannot be passed to the assembler.
func (c BatchConfig) Validate() error {
	switch {
	case c.Threads < 1:
		return fmt.Errorf("%w: threads must be at least 1, got %d", ErrInvalid, c.Threads)
	case c.Rounds < 1:
		return fmt.Errorf("%w: rounds must be at least 1, got %d", ErrInvalid, c.Rounds)
	case len(c.Kmers) == 0:
		return fmt.Errorf("%w: at least one k-mer value is required", ErrInvalid)
	case c.OrganelleType == "":
		return fmt.Errorf("%w: organelle type is empty", ErrInvalid)
	case c.OutputDir == "":
		return fmt.Errorf("%w: output directory is empty", ErrInvalid)
	case c.Assembler == "":
		return fmt.Errorf("%w: assembler executable is empty", ErrInvalid)
	}
	switch c.TableFormat {
	case "ascii", "markdown":
	default:
		return fmt.Errorf("%w: table format must be ascii or markdown, got %q", ErrInvalid, c.TableFormat)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format must be text or json, got %q", ErrInvalid, c.LogFormat)
	}
	return nil
}

// KmerArg joins the k-mer list into the single argument the assembler expects.
func (c BatchConfig) KmerArg() string {
	parts := make([]string, len(c.Kmers))
	for i, k := range c.Kmers {
		parts[i] = strconv.Itoa(k)
	}
	return strings.Join(parts, ",")
}

// ParseKmers parses a comma-separated list of positive k-mer sizes.
// "21, 45,65" -> [21 45 65].
func ParseKmers(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: k-mer value %q is not a positive integer", ErrInvalid, f)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: k-mer list %q is empty", ErrInvalid, s)
	}
	return out, nil
}
