package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestDump writes a root port style configuration space dump and
// returns its path.
func writeTestDump(t *testing.T, size int) string {
	t.Helper()
	data := make([]byte, size)
	binary.LittleEndian.PutUint16(data[0x00:], 0x8086)
	binary.LittleEndian.PutUint16(data[0x02:], 0x2030)
	data[0x0b] = 0x06 // bridge class
	data[0x0e] = 0x01 // bridge header
	if size > 0x48 {
		binary.LittleEndian.PutUint16(data[0x06:], 0x0010) // capabilities list
		data[0x34] = 0x40
		data[0x40], data[0x41] = 0x01, 0x00 // power management, end of chain
	}
	if size > 0x10c {
		// VSEC, total length 0x0c.
		binary.LittleEndian.PutUint32(data[0x100:], 0x000b|1<<16)
		binary.LittleEndian.PutUint32(data[0x104:], 0x0003|1<<16|0x0c<<20)
	}
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return buf.String(), fnErr
}

// mustContain fails the test unless every want string appears in got
func mustContain(t *testing.T, got string, want []string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %q:\n%s", w, got)
		}
	}
}
