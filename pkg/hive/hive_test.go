package hive_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hivebatch/internal/format"
	"github.com/joshuapare/hivebatch/internal/testutil"
	"github.com/joshuapare/hivebatch/internal/testutil/hivegen"
	"github.com/joshuapare/hivebatch/pkg/hive"
	"github.com/joshuapare/hivebatch/pkg/types"
)

const runPath = `Microsoft\Windows\CurrentVersion\Run`

func openSample(t *testing.T, recover bool) *hive.Hive {
	t.Helper()
	path := testutil.WriteHive(t, t.TempDir(), "SOFTWARE", testutil.SampleSoftware())
	h, err := hive.Open(path, hive.Options{RecoverDeleted: recover})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestOpenDetectsType(t *testing.T) {
	h := openSample(t, false)
	assert.Equal(t, types.HiveSoftware, h.Type())
	assert.False(t, h.Dirty())
	assert.Equal(t, "SOFTWARE", h.Name())
	assert.Equal(t, "1.5", h.Version())
	assert.Equal(t, `emRoot\System32\Config\SOFTWARE`, h.EmbeddedName())
}

func TestGetKey(t *testing.T) {
	h := openSample(t, false)

	k, err := h.GetKey(runPath)
	require.NoError(t, err)
	assert.Equal(t, "Run", k.Name())
	assert.Equal(t, runPath, k.Path())
	assert.Equal(t, hivegen.DefaultTime, k.LastWrite())
	assert.False(t, k.Deleted())

	root, err := h.Root()
	require.NoError(t, err)
	assert.Equal(t, root.Name()+`\`+runPath, k.FullPath())

	t.Run("root name prefix", func(t *testing.T) {
		k2, err := h.GetKey(root.Name() + `\` + runPath)
		require.NoError(t, err)
		assert.Same(t, k, k2)
	})
	t.Run("case insensitive", func(t *testing.T) {
		k2, err := h.GetKey(`MICROSOFT\windows\CurrentVersion\run\`)
		require.NoError(t, err)
		assert.Same(t, k, k2)
	})
	t.Run("root", func(t *testing.T) {
		r, err := h.GetKey("")
		require.NoError(t, err)
		assert.Same(t, root, r)
		assert.Equal(t, "", r.Path())
	})
	t.Run("missing", func(t *testing.T) {
		_, err := h.GetKey(`Microsoft\Nope`)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrNotFound))
	})
}

func TestValues(t *testing.T) {
	h := openSample(t, false)
	k, err := h.GetKey(runPath)
	require.NoError(t, err)

	vals := k.Values()
	require.Len(t, vals, 3)
	assert.Equal(t, "OneDrive", vals[0].Name())
	assert.Equal(t, types.REG_SZ, vals[0].Type())
	assert.Equal(t, `"C:\Program Files\OneDrive.exe" /background`, vals[0].Data())
	assert.Equal(t, types.REG_EXPAND_SZ, vals[1].Type())
	assert.Equal(t, "42", vals[2].Data())
	assert.Same(t, k, vals[2].Key())

	v, ok := k.Value("flags")
	require.True(t, ok)
	assert.Equal(t, types.REG_DWORD, v.Type())
	_, ok = k.Value("missing")
	assert.False(t, ok)

	txt, err := h.GetKey(`Classes\.txt`)
	require.NoError(t, err)
	def, ok := txt.Value(hive.DefaultValueName)
	require.True(t, ok)
	assert.Equal(t, "txtfile", def.Data())
	assert.Equal(t, hive.DefaultValueName, def.DisplayName())

	blob, ok := txt.Value("Blob")
	require.True(t, ok)
	assert.Equal(t, "DE-AD-BE-EF-01-02", blob.Data())
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02}, blob.Raw())
}

func TestValueInterpretation(t *testing.T) {
	b := hivegen.New("ROOT")
	b.FileName = "NTUSER.DAT"
	b.Key("Types").
		Set("multi", types.REG_MULTI_SZ, hivegen.MultiSZ("alpha", "beta")).
		Set("qword", types.REG_QWORD, hivegen.QWORD(1<<40)).
		Set("be", types.REG_DWORD_BE, []byte{0, 0, 1, 0}).
		Set("short", types.REG_DWORD, []byte{7, 0}).
		Set("none", types.REG_NONE, nil)
	h, err := hive.OpenBytes("NTUSER.DAT", b.Bytes(), hive.Options{})
	require.NoError(t, err)
	assert.Equal(t, types.HiveNtUser, h.Type())

	k, err := h.GetKey("Types")
	require.NoError(t, err)
	want := map[string]string{
		"multi": "alpha beta",
		"qword": "1099511627776",
		"be":    "256",
		"short": "07-00",
		"none":  "",
	}
	for name, data := range want {
		v, ok := k.Value(name)
		require.True(t, ok, name)
		assert.Equal(t, data, v.Data(), name)
	}
}

func TestSlackAndBigData(t *testing.T) {
	big := bytes.Repeat([]byte("0123456789abcdef"), 2500) // 40000 bytes
	slack := []byte("SLACKSLACK!!")
	b := hivegen.New("ROOT")
	b.Key("Data").
		SetWithSlack("withSlack", types.REG_BINARY, []byte("12345678"), slack).
		Set("big", types.REG_BINARY, big)
	h, err := hive.OpenBytes("x", b.Bytes(), hive.Options{})
	require.NoError(t, err)

	k, err := h.GetKey("Data")
	require.NoError(t, err)
	v, ok := k.Value("withSlack")
	require.True(t, ok)
	assert.Equal(t, "12345678", string(v.Raw()))
	assert.Equal(t, slack, v.Slack())

	v, ok = k.Value("big")
	require.True(t, ok)
	assert.Equal(t, big, v.Raw())
	assert.Empty(t, v.Slack())
}

func TestIndexRootLists(t *testing.T) {
	b := hivegen.New("ROOT")
	b.IndexRoot = true
	names := []string{"a", "b", "c", "d", "e"}
	for _, n := range names {
		b.Key(`Parent\` + n)
	}
	h, err := hive.OpenBytes("x", b.Bytes(), hive.Options{})
	require.NoError(t, err)
	k, err := h.GetKey("Parent")
	require.NoError(t, err)
	var got []string
	for _, c := range k.SubKeys() {
		got = append(got, c.Name())
	}
	assert.Equal(t, names, got)
	assert.Empty(t, h.Problems())
}

func TestUnicodeNames(t *testing.T) {
	b := hivegen.New("ROOT")
	b.Key(`Ünïcode\子キー`).Set("名前", types.REG_SZ, hivegen.SZ("値"))
	h, err := hive.OpenBytes("x", b.Bytes(), hive.Options{})
	require.NoError(t, err)
	k, err := h.GetKey(`ünïcode\子キー`)
	require.NoError(t, err)
	v, ok := k.Value("名前")
	require.True(t, ok)
	assert.Equal(t, "値", v.Data())
}

func TestWalkPreOrder(t *testing.T) {
	h := openSample(t, true)
	var paths []string
	require.NoError(t, h.Walk(func(k *hive.Key) error {
		paths = append(paths, k.Path())
		return nil
	}))
	assert.Equal(t, []string{
		"",
		`Microsoft`,
		`Microsoft\Windows`,
		`Microsoft\Windows\CurrentVersion`,
		runPath,
		runPath + `\Nested`,
		runPath + `\Gone`,
		`Classes`,
		`Classes\.txt`,
	}, paths)

	stop := errors.New("stop")
	count := 0
	err := h.Walk(func(*hive.Key) error {
		count++
		if count == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, count)
}

func TestRecoverDeleted(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		h := openSample(t, true)
		n, err := h.DeletedKeys()
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		gone, err := h.GetKey(runPath + `\Gone`)
		require.NoError(t, err)
		assert.True(t, gone.Deleted())
		require.Len(t, gone.Values(), 1)
		v := gone.Values()[0]
		assert.True(t, v.Deleted())
		assert.Equal(t, "boo", v.Data())
	})
	t.Run("disabled", func(t *testing.T) {
		h := openSample(t, false)
		n, err := h.DeletedKeys()
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		_, err = h.GetKey(runPath + `\Gone`)
		assert.ErrorIs(t, err, types.ErrNotFound)
		run, err := h.GetKey(runPath)
		require.NoError(t, err)
		assert.Len(t, run.SubKeys(), 1)
	})
}

func TestNotAHive(t *testing.T) {
	_, err := hive.OpenBytes("x", make([]byte, format.HeaderSize), hive.Options{})
	assert.ErrorIs(t, err, types.ErrNotHive)

	_, err = hive.OpenBytes("x", []byte("regf"), hive.Options{})
	var te *types.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, types.ErrKindFormat, te.Kind)

	_, err = hive.Open(filepath.Join(t.TempDir(), "missing"), hive.Options{})
	assert.Error(t, err)
}

func TestIsHiveFile(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteHive(t, dir, "SYSTEM", hivegen.New("ROOT"))
	bad := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(bad, []byte("hello"), 0o644))
	assert.True(t, hive.IsHiveFile(good))
	assert.False(t, hive.IsHiveFile(bad))
	assert.False(t, hive.IsHiveFile(filepath.Join(dir, "missing")))
}

func TestDirtyReplay(t *testing.T) {
	b := testutil.SampleSoftware()
	b.Sequence(3, 2)
	dir := t.TempDir()
	path := testutil.WriteHive(t, dir, "SOFTWARE", b)

	h, err := hive.Open(path, hive.Options{})
	require.NoError(t, err)
	defer h.Close()
	require.True(t, h.Dirty())

	_, err = h.ReplayLogs(nil)
	require.ErrorIs(t, err, types.ErrDirty)

	img, err := os.ReadFile(path)
	require.NoError(t, err)
	binsSize := binary.LittleEndian.Uint32(img[format.REGFDataSizeOffset:])

	// one empty HvLE entry continuing sequence 2
	logImg := make([]byte, 1024)
	copy(logImg, format.REGFSignature)
	entry := logImg[512:]
	copy(entry, "HvLE")
	binary.LittleEndian.PutUint32(entry[0x04:], 512)
	binary.LittleEndian.PutUint32(entry[0x0C:], 2)
	binary.LittleEndian.PutUint32(entry[0x10:], binsSize)
	logPath := filepath.Join(dir, "SOFTWARE.LOG1")
	require.NoError(t, os.WriteFile(logPath, logImg, 0o644))

	res, err := h.ReplayLogs([]string{logPath})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.False(t, h.Dirty())

	k, err := h.GetKey(runPath)
	require.NoError(t, err)
	assert.Len(t, k.Values(), 3)

	_, err = h.ReplayLogs([]string{logPath})
	assert.Error(t, err, "replay after parse must fail")

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(onDisk[format.REGFPrimarySeqOffset:]),
		"replay must not write through to the file")
}

func TestClose(t *testing.T) {
	h := openSample(t, false)
	k, err := h.GetKey(runPath)
	require.NoError(t, err)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	_, err = h.Root()
	assert.Error(t, err)
	// parsed views survive the mapping
	assert.Equal(t, "42", k.Values()[2].Data())
}

func TestHexAndMultiString(t *testing.T) {
	assert.Equal(t, "", hive.HexString(nil))
	assert.Equal(t, "00-FF-10", hive.HexString([]byte{0, 0xff, 0x10}))
	assert.Equal(t, []string{"a", "b"}, hive.MultiString(hivegen.MultiSZ("a", "", "b")))
	assert.Equal(t, []string{"x", "y"}, hive.SplitPath(`\x\\y\`))
}
