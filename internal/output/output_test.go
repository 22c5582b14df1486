package output_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hivebatch/internal/logger"
	"github.com/joshuapare/hivebatch/internal/output"
	"github.com/joshuapare/hivebatch/internal/plugin"
	"github.com/joshuapare/hivebatch/internal/testutil"
	"github.com/joshuapare/hivebatch/pkg/hive"
)

var runTime = time.Date(2024, 1, 2, 3, 4, 5, 678901200, time.UTC)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		layout string
		want   string
	}{
		{output.DefaultDateFormat, "2024-01-02 03:04:05.6789012"},
		{output.RunTimestampFormat, "20240102030405"},
		{"yy/M/d h:mm tt", "24/1/2 3:04 AM"},
		{"ss.FFF", "05.678"},
		{"HH:mm 'at' K", "03:04 at Z"},
		{`dd\M`, "02M"},
		{"MMM dddd", "Jan Tuesday"},
	}
	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			assert.Equal(t, tt.want, output.FormatTime(runTime, tt.layout))
		})
	}
}

func TestWithValueMasksBinary(t *testing.T) {
	dir := t.TempDir()
	h, err := hive.Open(testutil.WriteHive(t, dir, "SOFTWARE", testutil.SampleSoftware()), hive.Options{})
	require.NoError(t, err)
	defer h.Close()

	k, err := h.GetKey(`Classes\.txt`)
	require.NoError(t, err)

	blob, ok := k.Value("Blob")
	require.True(t, ok)
	r := output.WithValue(output.Row{Description: "d"}, blob)
	assert.Equal(t, output.BinaryPlaceholder, r.ValueData)
	assert.Equal(t, "REG_BINARY", r.ValueType)
	assert.Equal(t, "d", r.Description)

	def, ok := k.Value("")
	require.True(t, ok)
	r = output.WithValue(output.Row{}, def)
	assert.Equal(t, hive.DefaultValueName, r.ValueName)
	assert.Equal(t, "txtfile", r.ValueData)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return recs
}

func TestFlush(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")
	a := output.New(output.Options{Dir: dir, RunTime: runTime}, logger.Discard())
	a.Append(output.Row{ValueName: "One", KeyPath: `A\B`, LastWriteTimestamp: runTime, ValueType: "REG_SZ", ValueData: "x,y"})
	a.Append(output.Row{ValueName: "Two", Deleted: true, Recursive: true})
	require.Equal(t, 2, a.Len())

	name := a.MainFileName(`/batches/Kroll_Batch.reb`)
	assert.Equal(t, "20240102030405_RECmd_Batch_Kroll_Batch_Output.csv", name)

	path, err := a.Flush(dir, name)
	require.NoError(t, err)

	recs := readCSV(t, path)
	require.Len(t, recs, 3)
	assert.Equal(t, output.Header, recs[0])
	assert.Equal(t, "One", recs[1][0])
	assert.Equal(t, "False", recs[1][1])
	assert.Equal(t, "2024-01-02 03:04:05.6789012", recs[1][8])
	assert.Equal(t, "x,y", recs[1][11])
	assert.Equal(t, "True", recs[2][1])
	assert.Equal(t, "True", recs[2][9])
}

func TestMainFileNameExplicit(t *testing.T) {
	a := output.New(output.Options{CSVName: "sub/out.csv"}, logger.Discard())
	assert.Equal(t, "out.csv", a.MainFileName("x.reb"))
	assert.Equal(t, "out_UserAssist.csv", a.PluginFileName("UserAssist", `C:\hives\NTUSER.DAT`))
}

type detailEntry struct {
	plugin.SimpleEntry
	extra string
}

func (e detailEntry) Columns() []string { return []string{"Program", "RunCount"} }
func (e detailEntry) Record() []string  { return []string{e.Data1, e.extra} }

func TestPluginFileCreateThenAppend(t *testing.T) {
	dir := t.TempDir()
	a := output.New(output.Options{Dir: dir, RunTime: runTime}, logger.Discard())

	first := []plugin.Entry{detailEntry{plugin.SimpleEntry{Path: `Software\UA`, Value: "v1", Data1: "calc.exe"}, "3"}}
	path, err := a.PluginFile("UserAssist", `C:\hives\NTUSER.DAT`, first)
	require.NoError(t, err)
	assert.Equal(t, "20240102030405_UserAssist_C_hives_NTUSER.DAT.csv", filepath.Base(path))

	second := []plugin.Entry{detailEntry{plugin.SimpleEntry{Path: `Software\UA`, Value: "v2", Data1: "cmd.exe"}, "1"}}
	path2, err := a.PluginFile("UserAssist", `C:\hives\NTUSER.DAT`, second)
	require.NoError(t, err)
	assert.Equal(t, path, path2)

	recs := readCSV(t, path)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"KeyPath", "ValueName", "Program", "RunCount"}, recs[0])
	assert.Equal(t, []string{`Software\UA`, "v1", "calc.exe", "3"}, recs[1])
	assert.Equal(t, []string{`Software\UA`, "v2", "cmd.exe", "1"}, recs[2])
	assert.Equal(t, path, a.PluginFiles()["UserAssist"])
}

func TestPluginFileDetailFieldsOnly(t *testing.T) {
	dir := t.TempDir()
	a := output.New(output.Options{Dir: dir, CSVName: "run.csv"}, logger.Discard())

	entries := []plugin.Entry{plugin.SimpleEntry{
		Path: `Software\UA`, Value: "v1", Data1: "summary", Data2: "more",
		Detail: []plugin.Field{{Name: "Program", Value: "calc.exe"}, {Name: "Focus", Value: "7"}},
	}}
	path, err := a.PluginFile("UserAssist", `C:\hives\NTUSER.DAT`, entries)
	require.NoError(t, err)
	assert.Equal(t, "run_UserAssist.csv", filepath.Base(path))

	recs := readCSV(t, path)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"KeyPath", "ValueName", "Program", "Focus"}, recs[0])
	assert.Equal(t, []string{`Software\UA`, "v1", "calc.exe", "7"}, recs[1])
}

func TestPluginFileEmpty(t *testing.T) {
	a := output.New(output.Options{Dir: t.TempDir()}, logger.Discard())
	path, err := a.PluginFile("X", "h", nil)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestRunStampDefaultsToNow(t *testing.T) {
	a := output.New(output.Options{}, logger.Discard())
	assert.Len(t, a.RunStamp(), 14)
	assert.False(t, strings.ContainsAny(a.RunStamp(), "-: "))
}
