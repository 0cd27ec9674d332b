// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Ptr returns a pointer to v, for the optional fields of update structs.
func Ptr[T any](v T) *T { return &v }

// FixedTime is the clock reading of tests that embed timestamps in file names.
var FixedTime = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

// Clock always reports FixedTime.
func Clock() time.Time { return FixedTime }

// WriteFile writes data to path, creating its directory, and returns path.
func WriteFile(t testing.TB, path string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
