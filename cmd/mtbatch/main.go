// mtbatch runs GetOrganelle mitochondrial assemblies for every sample in a
// manifest and writes a batch summary.
//
// Usage:
//
//	mtbatch --samples samples.txt [--threads 8] [--output-dir output] [--continue-on-error]
//
// Manifest format (one sample per line, no header):
//
//	sample_name1,path/to/R1.fq.gz,path/to/R2.fq.gz
//	sample_name2,path/to/R1.fq.gz,path/to/R2.fq.gz
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// exitError ends the process with code without printing anything further;
// the batch has already reported why.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}
