package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := BatchConfig{
		Threads:       4,
		Kmers:         []int{21, 45, 65, 85, 105},
		Rounds:        15,
		OrganelleType: "animal_mt",
		OutputDir:     "output",
		Assembler:     DefaultAssembler,
		TableFormat:   "ascii",
		LogLevel:      "warn",
		LogFormat:     "text",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.KmerArg(); got != "21,45,65,85,105" {
		t.Errorf("KmerArg = %q", got)
	}
}

func TestLoad_Precedence(t *testing.T) {
	t.Setenv("MTBATCH_THREADS", "32")
	t.Setenv("MTBATCH_ROUNDS", "20")

	cfg, err := Load(Options{
		File:      filepath.Join("testdata", "batch.yaml"),
		Overrides: map[string]any{KeyRounds: 7},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Threads != 32 {
		t.Errorf("Threads = %d, want env value 32", cfg.Threads)
	}
	if cfg.Rounds != 7 {
		t.Errorf("Rounds = %d, want override 7", cfg.Rounds)
	}
	if cfg.OrganelleType != "embplant_pt" || cfg.OutputDir != "assemblies" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if !cfg.ContinueOnError {
		t.Error("ContinueOnError from file not applied")
	}
	if diff := cmp.Diff([]int{21, 55, 85}, cfg.Kmers); diff != "" {
		t.Errorf("Kmers (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(Options{File: filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]any{
		"zero threads":    {KeyThreads: 0},
		"zero rounds":     {KeyRounds: 0},
		"bad kmer":        {KeyKmer: "21,abc"},
		"empty kmer":      {KeyKmer: " , "},
		"negative kmer":   {KeyKmer: "-21"},
		"empty type":      {KeyOrganelleType: " "},
		"empty out":       {KeyOutputDir: ""},
		"table format":    {KeyTableFormat: "html"},
		"log format":      {KeyLogFormat: "xml"},
		"empty assembler": {KeyAssembler: ""},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(Options{Overrides: overrides})
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("want ErrInvalid, got %v", err)
			}
		})
	}
}

func TestParseKmers_TrimsSpaces(t *testing.T) {
	got, err := ParseKmers(" 21, 45 ,65,")
	if err != nil {
		t.Fatalf("ParseKmers: %v", err)
	}
	if diff := cmp.Diff([]int{21, 45, 65}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
