// Package testlib builds a small C shared object with debug info for tests.
package testlib

import (
	_ "embed"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

//go:embed testdata/lib.c
var source []byte

// Name is the file name of the built library.
const Name = "libsample.so"

// Build compiles the sample library into dir (a fresh temp dir when empty)
// and returns its path. The test is skipped when no C compiler or nm is on
// PATH, or when the compiler cannot build shared objects.
func Build(t testing.TB, dir string) string {
	t.Helper()

	cc := os.Getenv("CC")
	if cc == "" {
		cc = "cc"
	}
	if _, err := exec.LookPath(cc); err != nil {
		t.Skipf("%s not available", cc)
	}
	if _, err := exec.LookPath("nm"); err != nil {
		t.Skip("nm not available")
	}

	if dir == "" {
		dir = t.TempDir()
	}
	src := filepath.Join(t.TempDir(), "lib.c")
	if err := os.WriteFile(src, source, 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, Name)
	cmd := exec.Command(cc, "-g", "-O0", "-shared", "-fPIC", "-o", out, src)
	if b, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("compiling sample library: %v\n%s", err, b)
	}
	return out
}
