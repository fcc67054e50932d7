package test

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteTempLog writes the fixture content to a temp file and returns its
// path. The file is removed with the test's temp dir.
func WriteTempLog(t *testing.T, fixture *LogFixture) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "klippy.log")
	if err := os.WriteFile(path, []byte(fixture.String()), 0644); err != nil {
		t.Fatalf("writing log fixture: %v", err)
	}
	return path
}

// AssertNoError fails the test immediately if err is non-nil.
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}
