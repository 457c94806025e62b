package unit

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/tetratelabs/wazero"
)

// runModule is a minimal wasm module exporting a no-op function "run".
var runModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00, // type: () -> ()
	0x03, 0x02, 0x01, 0x00, // func 0 has type 0
	0x07, 0x07, 0x01, 0x03, 'r', 'u', 'n', 0x00, 0x00, // export "run"
	0x0a, 0x04, 0x01, 0x02, 0x00, 0x0b, // empty body
}

func writeFile(t *testing.T, fs afero.Fs, name string, data []byte) {
	t.Helper()
	if err := afero.WriteFile(fs, name, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func writeZip(t *testing.T, fs afero.Fs, name string, files map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for fname, content := range files {
		w, err := zw.Create(fname)
		if err != nil {
			t.Fatalf("zip create %s: %v", fname, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", fname, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	writeFile(t, fs, name, buf.Bytes())
}

func testUnit(fs afero.Fs, id string, searchPath ...string) *Unit {
	return New(Config{
		Fs:            fs,
		RuntimeConfig: wazero.NewRuntimeConfigInterpreter(),
		ID:            id,
		Owner:         id + "-owner",
		SearchPath:    searchPath,
	})
}
