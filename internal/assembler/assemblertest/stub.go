// Package assemblertest writes stand-in assembler executables for tests.
package assemblertest

import (
	"os"
	"path/filepath"
	"testing"
)

// Script is a POSIX shell stub that records its arguments to $STUB_ARGS (when
// set) and fails with exit status 3 for any sample whose read1 file name
// contains "fail", printing a diagnostic to stderr.
const Script = `#!/bin/sh
if [ -n "$STUB_ARGS" ]; then
	printf '%s\n' "$@" >> "$STUB_ARGS"
fi
echo "assembling $2"
case "$(basename "$2")" in
*fail*)
	echo "Error: no seed reads found in $2" >&2
	exit 3
	;;
esac
exit 0
`

// Write installs body as an executable named get_organelle_from_reads.py
// under a fresh temp dir and returns its absolute path.
func Write(t testing.TB, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "get_organelle_from_reads.py")
	if err := os.WriteFile(path, []byte(body), 0755); err != nil {
		t.Fatalf("write stub assembler: %v", err)
	}
	return path
}
