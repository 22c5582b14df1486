package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hivebatch/pkg/types"
)

const validDoc = `Description: Run keys and file associations
Author: Examiner
Version: 2
Id: 6a3f1b2c-4d5e-4f60-8a7b-9c0d1e2f3a4b
Keys:
  - Description: Run key
    HiveType: SOFTWARE
    Category: Autoruns
    KeyPath: Microsoft\Windows\CurrentVersion\Run
    Recursive: false
    Comment: Programs started at logon
  - Description: Default handler
    HiveType: software
    Category: File associations
    KeyPath: \Classes\.txt\
    ValueName: Blob
  - Description: Services
    HiveType: SYSTEM
    Category: Persistence
    KeyPath: ControlSet*\Services
    Recursive: true
`

func TestLoadValid(t *testing.T) {
	rs, rep := Load([]byte(validDoc))
	require.True(t, rep.OK(), rep.Lines())
	require.NoError(t, rep.Err())
	require.NotNil(t, rs)

	assert.Equal(t, "Examiner", rs.Author)
	assert.Equal(t, 2, rs.Version)
	require.Len(t, rs.Keys, 3)

	run := rs.Keys[0]
	assert.Equal(t, `Microsoft\Windows\CurrentVersion\Run`, run.KeyPath)
	assert.Equal(t, types.HiveSoftware, run.HiveType)
	assert.Equal(t, "Programs started at logon", run.Comment)
	assert.Equal(t, 6, run.Line)

	txt := rs.Keys[1]
	assert.Equal(t, `Classes\.txt`, txt.KeyPath, "surrounding backslashes are trimmed")
	assert.Equal(t, types.HiveSoftware, txt.HiveType)
	assert.Equal(t, "Blob", txt.ValueName)
	assert.Equal(t, 12, txt.Line)

	assert.Equal(t, types.HiveSystem, rs.Keys[2].HiveType)
	assert.True(t, rs.Keys[2].Recursive)
	assert.Contains(t, rs.Keys[2].Summary(), "recursive=true")
	assert.Contains(t, txt.Summary(), `Classes\.txt\Blob`)
}

func TestTabOnLineFive(t *testing.T) {
	doc := "Description: Tabbed\n" +
		"Author: Examiner\n" +
		"Version: 1\n" +
		"Keys:\n" +
		"\t- Description: Run key\n" +
		"    HiveType: SOFTWARE\n" +
		"    Category: Autoruns\n" +
		"    KeyPath: Microsoft\\Windows\\CurrentVersion\\Run\n"

	rs, rep := Load([]byte(doc))
	assert.Nil(t, rs)
	require.False(t, rep.OK())
	require.NotNil(t, rep.Syntax)
	assert.Equal(t, 5, rep.Syntax.Line)
	assert.Equal(t, 1, rep.Syntax.Column)
	assert.True(t, rep.Syntax.HasTabs)
	assert.Equal(t, "\t- Description: Run key", rep.Syntax.BadLine)
	assert.Contains(t, rep.Syntax.Annotated, "<TAB>- Description: Run key")
	assert.NotContains(t, rep.Syntax.Annotated, "\t")

	lines := rep.Lines()
	assert.Contains(t, lines[0], "line 5")
	assert.Contains(t, strings.Join(lines, "\n"), "tab characters")
	assert.ErrorContains(t, rep.Err(), "line 5")
}

func TestSyntaxErrorWithoutTabs(t *testing.T) {
	rs, rep := Load([]byte("Description: [unclosed\nKeys: []\n"))
	assert.Nil(t, rs)
	require.NotNil(t, rep.Syntax)
	assert.False(t, rep.Syntax.HasTabs)
	assert.Empty(t, rep.Syntax.Annotated)
}

func TestValidationCollectsAllErrors(t *testing.T) {
	doc := `Author: Nobody
Id: not-a-guid
Keys:
  - HiveType: MARS
    KeyPath: a\*\b\*
  - Description: Value and recursion
    Category: Misc
    HiveType: NTUSER
    KeyPath: Software
    ValueName: Foo
    Recursive: true
  - Description: No hive type
    Category: Misc
    KeyPath: Software
`
	rs, rep := Load([]byte(doc))
	require.NotNil(t, rs)
	require.Nil(t, rep.Syntax)
	require.False(t, rep.OK())

	type key struct {
		rule  int
		field string
	}
	got := map[key]Issue{}
	for _, i := range rep.Issues {
		got[key{i.Rule, i.Field}] = i
	}
	for _, want := range []key{
		{-1, "Description"},
		{-1, "Id"},
		{0, "HiveType"},
		{0, "KeyPath"},
		{0, "Description"},
		{0, "Category"},
		{1, "Recursive"},
		{2, "HiveType"},
	} {
		assert.Contains(t, got, want)
	}
	assert.Len(t, rep.Issues, 8)
	assert.Equal(t, 4, got[key{0, "HiveType"}].Line)
	assert.Equal(t, 6, got[key{1, "Recursive"}].Line)
	assert.Equal(t, "HiveType is required", got[key{2, "HiveType"}].Message)
	assert.Contains(t, got[key{0, "KeyPath"}].String(), "Keys[0].KeyPath (line 4)")
	assert.ErrorContains(t, rep.Err(), "8 validation error(s)")
}

func TestNoKeys(t *testing.T) {
	_, rep := Load([]byte("Description: Empty\nKeys: []\n"))
	require.Len(t, rep.Issues, 1)
	assert.Equal(t, "Keys", rep.Issues[0].Field)
	assert.Equal(t, 2, rep.Issues[0].Line)

	_, rep = Load([]byte(""))
	require.Len(t, rep.Issues, 1)
	assert.Contains(t, rep.Issues[0].Message, "empty")
}

func TestUnknownField(t *testing.T) {
	doc := validDoc + "    Bogus: 1\n"
	rs, rep := Load([]byte(doc))
	assert.Nil(t, rs)
	require.Len(t, rep.Issues, 1)
	assert.Contains(t, rep.Issues[0].Message, "Bogus")
	assert.Equal(t, 22, rep.Issues[0].Line)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.reb")
	require.NoError(t, os.WriteFile(path, []byte(validDoc), 0o644))
	rs, rep := LoadFile(path)
	require.True(t, rep.OK())
	assert.Len(t, rs.Keys, 3)

	_, rep = LoadFile(filepath.Join(t.TempDir(), "missing.reb"))
	require.False(t, rep.OK())
	assert.ErrorContains(t, rep.Err(), "missing.reb")
}

func TestIDMustBeGUID(t *testing.T) {
	doc := strings.Replace(validDoc, "6a3f1b2c-4d5e-4f60-8a7b-9c0d1e2f3a4b", "batch-42", 1)
	rs, rep := Load([]byte(doc))
	require.NotNil(t, rs)
	require.Len(t, rep.Issues, 1)
	assert.Equal(t, "Id", rep.Issues[0].Field)
	assert.Equal(t, -1, rep.Issues[0].Rule)
	assert.Equal(t, `Id must be a GUID, got "batch-42"`, rep.Issues[0].Message)
	assert.Equal(t, `Id: Id must be a GUID, got "batch-42"`, rep.Issues[0].String())
}
