package assembler

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"mtbatch/internal/assembler/assemblertest"
	"mtbatch/internal/config"
	"mtbatch/internal/manifest"
)

func testConfig(t *testing.T, assembler string) config.BatchConfig {
	t.Helper()
	return config.BatchConfig{
		Threads:       8,
		Kmers:         []int{21, 45, 65},
		Rounds:        10,
		OrganelleType: "animal_mt",
		OutputDir:     t.TempDir(),
		Assembler:     assembler,
		TableFormat:   "ascii",
		LogFormat:     "text",
	}
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
}

func TestArgs_PositionalMapping(t *testing.T) {
	cfg := testConfig(t, "asm")
	r := NewRunner(cfg, &bytes.Buffer{})
	got := r.Args(manifest.Sample{Name: "s1", Read1: "a.fq", Read2: "b.fq"})
	want := []string{
		"-1", "a.fq",
		"-2", "b.fq",
		"-o", filepath.Join(cfg.OutputDir, "s1_mt"),
		"-R", "10",
		"-k", "21,45,65",
		"-F", "animal_mt",
		"-t", "8",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("args (-want +got):\n%s", diff)
	}
}

func TestRun_Success(t *testing.T) {
	stub := assemblertest.Write(t, assemblertest.Script)
	argsFile := filepath.Join(t.TempDir(), "args.txt")
	t.Setenv("STUB_ARGS", argsFile)

	var out bytes.Buffer
	r := NewRunner(testConfig(t, stub), &out, WithClock(fixedClock))
	o := r.Run(context.Background(), manifest.Sample{Name: "s1", Read1: "ok_R1.fq", Read2: "ok_R2.fq"})

	if !o.Succeeded() || o.Reason != ReasonNone || o.ExitCode != 0 {
		t.Fatalf("want success, got %+v", o)
	}
	if !strings.Contains(o.Stdout, "assembling ok_R1.fq") {
		t.Errorf("stdout not captured: %q", o.Stdout)
	}
	console := out.String()
	for _, want := range []string{
		"Processing: s1",
		"Started: 2026-03-04 05:06:07",
		"Command: " + stub + " -1 ok_R1.fq",
		"[SUCCESS] s1 completed successfully",
	} {
		if !strings.Contains(console, want) {
			t.Errorf("console missing %q:\n%s", want, console)
		}
	}
	if strings.Contains(console, "assembling") {
		t.Errorf("assembler stdout must not be streamed to the console:\n%s", console)
	}

	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	recorded := strings.Split(strings.TrimSpace(string(data)), "\n")
	if diff := cmp.Diff(r.Args(o.Sample), recorded); diff != "" {
		t.Errorf("argv seen by assembler (-want +got):\n%s", diff)
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	stub := assemblertest.Write(t, assemblertest.Script)

	var out bytes.Buffer
	r := NewRunner(testConfig(t, stub), &out)
	o := r.Run(context.Background(), manifest.Sample{Name: "s2", Read1: "fail_R1.fq", Read2: "R2.fq"})

	if o.Succeeded() || o.Reason != ReasonExitStatus {
		t.Fatalf("want exit-status failure, got %+v", o)
	}
	if o.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", o.ExitCode)
	}
	if !strings.Contains(o.Stderr, "no seed reads found") {
		t.Errorf("stderr not captured: %q", o.Stderr)
	}
	if strings.Contains(o.Stderr, "assembling") {
		t.Errorf("stdout leaked into stderr buffer: %q", o.Stderr)
	}
	console := out.String()
	if !strings.Contains(console, "[FAILED] s2 failed with error:") {
		t.Errorf("missing failure notice:\n%s", console)
	}
	if !strings.Contains(console, "Error: no seed reads found in fail_R1.fq") {
		t.Errorf("stderr not echoed verbatim:\n%s", console)
	}
}

func TestRun_LaunchFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-assembler")

	var out bytes.Buffer
	o := NewRunner(testConfig(t, missing), &out).Run(context.Background(), manifest.Sample{Name: "s3"})

	if o.Succeeded() || o.Reason != ReasonLaunch {
		t.Fatalf("want launch failure, got %+v", o)
	}
	if o.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", o.ExitCode)
	}
	if o.Err == nil {
		t.Fatal("launch failure should carry the fault")
	}
	if !strings.Contains(out.String(), "[ERROR] Unexpected error for s3:") {
		t.Errorf("missing error notice:\n%s", out.String())
	}
}

func TestRun_NotOnPath(t *testing.T) {
	o := NewRunner(testConfig(t, "definitely-not-an-assembler-xyz"), &bytes.Buffer{}).
		Run(context.Background(), manifest.Sample{Name: "s4"})
	if o.Reason != ReasonLaunch {
		t.Fatalf("want launch failure, got %+v", o)
	}
	if !errors.Is(o.Err, exec.ErrNotFound) {
		t.Errorf("want exec.ErrNotFound, got %v", o.Err)
	}
}

func TestRun_DryRun(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "never-run"))
	cfg.DryRun = true

	var out bytes.Buffer
	o := NewRunner(cfg, &out).Run(context.Background(), manifest.Sample{Name: "s5", Read1: "a", Read2: "b"})
	if !o.Succeeded() {
		t.Fatalf("dry run should succeed, got %+v", o)
	}
	if !strings.Contains(out.String(), "[DRY RUN] s5 not executed") {
		t.Errorf("missing dry-run notice:\n%s", out.String())
	}
}

func TestRun_KeepLogs(t *testing.T) {
	stub := assemblertest.Write(t, assemblertest.Script)
	cfg := testConfig(t, stub)
	cfg.KeepLogs = true

	o := NewRunner(cfg, &bytes.Buffer{}).Run(context.Background(), manifest.Sample{Name: "s6", Read1: "fail.fq", Read2: "b.fq"})
	if o.Succeeded() {
		t.Fatal("expected failure")
	}
	stderr, err := os.ReadFile(filepath.Join(LogDir(cfg.OutputDir), "s6.stderr.log"))
	if err != nil {
		t.Fatalf("stderr log: %v", err)
	}
	if !strings.Contains(string(stderr), "no seed reads found") {
		t.Errorf("stderr log = %q", stderr)
	}
	stdout, err := os.ReadFile(filepath.Join(LogDir(cfg.OutputDir), "s6.stdout.log"))
	if err != nil {
		t.Fatalf("stdout log: %v", err)
	}
	if !strings.Contains(string(stdout), "assembling fail.fq") {
		t.Errorf("stdout log = %q", stdout)
	}
}

// A background child that outlives the assembler keeps the output pipes open.
const lingeringChild = `#!/bin/sh
echo started
echo working >&2
sleep 10 &
if [ "$1" = "-1" ] && [ "$(basename "$2")" = "hang.fq" ]; then
	wait
fi
exit 0
`

func TestRun_DescendantHoldingPipesDoesNotBlock(t *testing.T) {
	stub := assemblertest.Write(t, lingeringChild)
	r := NewRunner(testConfig(t, stub), &bytes.Buffer{}, WithWaitDelay(200*time.Millisecond))

	start := time.Now()
	o := r.Run(context.Background(), manifest.Sample{Name: "s7", Read1: "a.fq", Read2: "b.fq"})
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("Run blocked on inherited pipes for %v", elapsed)
	}
	if !o.Succeeded() {
		t.Fatalf("assembler exited 0, got %+v", o)
	}
	if !strings.Contains(o.Stdout, "started") || !strings.Contains(o.Stderr, "working") {
		t.Errorf("output lost: stdout=%q stderr=%q", o.Stdout, o.Stderr)
	}
}

func TestRun_CanceledAssemblerReturns(t *testing.T) {
	stub := assemblertest.Write(t, lingeringChild)
	r := NewRunner(testConfig(t, stub), &bytes.Buffer{}, WithWaitDelay(200*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	start := time.Now()
	o := r.Run(ctx, manifest.Sample{Name: "s8", Read1: "hang.fq", Read2: "b.fq"})
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("interrupted run took %v", elapsed)
	}
	if o.Succeeded() {
		t.Fatalf("killed assembler must not succeed: %+v", o)
	}
}
