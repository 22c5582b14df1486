// Package testutil holds helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joshuapare/hivebatch/internal/testutil/hivegen"
	"github.com/joshuapare/hivebatch/pkg/types"
)

// WriteHive serialises b into dir/name and returns the path.
func WriteHive(t *testing.T, dir, name string, b *hivegen.Builder) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatalf("write hive %s: %v", path, err)
	}
	return path
}

// SampleSoftware returns a SOFTWARE-like hive used across package tests:
//
//	Microsoft\Windows\CurrentVersion\Run   three values
//	Microsoft\Windows\CurrentVersion\Run\Nested   one value
//	Classes\.txt                            default value + binary blob
//	Deleted: Microsoft\Windows\CurrentVersion\Run\Gone  one value
func SampleSoftware() *hivegen.Builder {
	b := hivegen.New("CsiTool-CreateHive-{00000000-0000-0000-0000-000000000000}")
	b.FileName = `emRoot\System32\Config\SOFTWARE`
	run := b.Key(`Microsoft\Windows\CurrentVersion\Run`)
	run.Set("OneDrive", types.REG_SZ, hivegen.SZ(`"C:\Program Files\OneDrive.exe" /background`))
	run.Set("Updater", types.REG_EXPAND_SZ, hivegen.SZ(`%ProgramFiles%\updater.exe http://example.com/check`))
	run.Set("Flags", types.REG_DWORD, hivegen.DWORD(42))
	run.Child("Nested").Set("Inner", types.REG_SZ, hivegen.SZ("inner value"))
	b.Key(`Classes\.txt`).
		Set("", types.REG_SZ, hivegen.SZ("txtfile")).
		Set("Blob", types.REG_BINARY, []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02})
	gone := &hivegen.Key{Name: "Gone"}
	gone.Set("Ghost", types.REG_SZ, hivegen.SZ("boo"))
	b.Deleted(`Microsoft\Windows\CurrentVersion\Run`, gone)
	return b
}
