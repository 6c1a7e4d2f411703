package patchfile

import (
	"strings"
	"testing"

	"github.com/lyzr/dbpatcher/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObjectLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected models.Element
	}{
		{"table", "myschema mytable table", models.NewElement(models.TypeTable, "myschema", "mytable", nil)},
		{"sequence", "public id_seq sequence", models.NewElement(models.TypeSequence, "public", "id_seq", nil)},
		{"view", "public v_users view", models.NewElement(models.TypeView, "public", "v_users", nil)},
		{"trigger", "public trg_audit trigger", models.NewElement(models.TypeTrigger, "public", "trg_audit", nil)},
		{"index", "public idx_users_email index", models.NewElement(models.TypeIndex, "public", "idx_users_email", nil)},
		{"script", "script /tmp/foo.sql", models.NewElement(models.TypeScript, "", "/tmp/foo.sql", nil)},
		{"function", "s f function ( a b )", models.NewElement(models.TypeFunction, "s", "f", []string{"a", "b"})},
		{"function without parameters", "s f function ( )", models.NewElement(models.TypeFunction, "s", "f", nil)},
		{"trailing spaces", "s t table   ", models.NewElement(models.TypeTable, "s", "t", nil)},
		{"windows line ending", "s t table\r", models.NewElement(models.TypeTable, "s", "t", nil)},
		{"schema named script", "script t table", models.NewElement(models.TypeTable, "script", "t", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseObjectLine(tt.line)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "got %s, want %s", got, tt.expected)
		})
	}
}

func TestParseObjectLine_Rejects(t *testing.T) {
	lines := []string{
		"s f bogus",
		"s t",
		"s t table extra",
		"script",
		"script a b",
		"s f function",
		"s f function ()",
		"s f function ( a b",
		"s f function a b )",
		"s f function ( a,b )",
		"s f function ( a ( b )",
		"s f function extra ( a )",
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			_, err := ParseObjectLine(line)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestParseDependencyLine(t *testing.T) {
	got, err := ParseDependencyLine("s f function")
	require.NoError(t, err)
	assert.Equal(t, models.TypeFunction, got.Type())
	assert.Equal(t, "s", got.Schema())
	assert.Equal(t, "f", got.Name())
	assert.Empty(t, got.Parameters())

	got, err = ParseDependencyLine("s t table")
	require.NoError(t, err)
	assert.Equal(t, models.TypeTable, got.Type())

	for _, line := range []string{"script /tmp/a.sql", "s f function ( a )", "s t bogus", "s t"} {
		_, err := ParseDependencyLine(line)
		assert.ErrorIs(t, err, ErrParse, line)
	}
}

func TestEncodeObjectLine(t *testing.T) {
	tests := []struct {
		element  models.Element
		expected string
	}{
		{models.NewElement(models.TypeTable, "myschema", "mytable", nil), "myschema mytable table"},
		{models.NewElement(models.TypeScript, "ignored", "/tmp/foo.sql", nil), "script /tmp/foo.sql"},
		{models.NewElement(models.TypeFunction, "s", "f", []string{"a", "b"}), "s f function ( a b )"},
		{models.NewElement(models.TypeFunction, "s", "f", nil), "s f function ( )"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			got, err := EncodeObjectLine(tt.element)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEncodeObjectLine_Rejects(t *testing.T) {
	bad := []models.Element{
		models.NewElement(models.TypeTable, "", "t", nil),
		models.NewElement(models.TypeTable, "s", "", nil),
		models.NewElement(models.TypeTable, "my schema", "t", nil),
		models.NewElement(models.TypeTable, "s", "t\n", nil),
		models.NewElement(models.TypeFunction, "s", "f", []string{"a,b"}),
		models.NewElement(models.TypeFunction, "s", "f", []string{""}),
		models.NewElement(models.ObjectType("bogus"), "s", "f", nil),
	}

	for _, e := range bad {
		_, err := EncodeObjectLine(e)
		assert.ErrorIs(t, err, ErrEncode, e.String())
	}
}

func TestEncodeDependencyLine(t *testing.T) {
	got, err := EncodeDependencyLine(models.NewElement(models.TypeFunction, "s", "f", []string{"a"}))
	require.NoError(t, err)
	assert.Equal(t, "s f function", got)

	_, err = EncodeDependencyLine(models.NewElement(models.TypeScript, "", "/tmp/a.sql", nil))
	assert.ErrorIs(t, err, ErrEncode)
}

func TestObjectList_RoundTrip(t *testing.T) {
	list := models.NewPatchList(
		models.NewElement(models.TypeSequence, "public", "users_id_seq", nil),
		models.NewElement(models.TypeTable, "public", "users", nil),
		models.NewElement(models.TypeView, "reporting", "v_users", nil),
		models.NewElement(models.TypeIndex, "public", "idx_users_email", nil),
		models.NewElement(models.TypeFunction, "public", "calc", []string{"x", "y", "z"}),
		models.NewElement(models.TypeFunction, "public", "now_utc", nil),
		models.NewElement(models.TypeTrigger, "public", "trg_users", nil),
		models.NewElement(models.TypeScript, "", "/opt/scripts/seed.sql", nil),
	)

	data, err := EncodeObjectList(list)
	require.NoError(t, err)

	parsed, err := ParseObjectList(strings.NewReader(string(data)))
	require.NoError(t, err)
	require.Equal(t, list.Count(), parsed.Count())
	for i := range list.Elements() {
		assert.True(t, list.At(i).Equal(parsed.At(i)), "element %d: got %s, want %s", i, parsed.At(i), list.At(i))
	}

	again, err := EncodeObjectList(parsed)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestDependencyList_RoundTrip(t *testing.T) {
	list := models.NewPatchList(
		models.NewElement(models.TypeTable, "public", "users", nil),
		models.NewElement(models.TypeFunction, "public", "calc", nil),
		models.NewElement(models.TypeSequence, "public", "users_id_seq", nil),
	)

	data, err := EncodeDependencyList(list)
	require.NoError(t, err)
	assert.Equal(t, "public users table\npublic calc function\npublic users_id_seq sequence\n", string(data))

	parsed, err := ParseDependencyList(strings.NewReader(string(data)))
	require.NoError(t, err)
	require.Equal(t, list.Count(), parsed.Count())
	for i := range list.Elements() {
		assert.True(t, list.At(i).SameObject(parsed.At(i)))
	}
}

func TestParseObjectList_SkipsBlankLines(t *testing.T) {
	input := "\npublic users table\n\n\r\nscript /tmp/a.sql\n"

	list, err := ParseObjectList(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count())
}

func TestParseObjectList_FailsWholeFile(t *testing.T) {
	input := "public users table\ns f bogus\npublic v view\n"

	list, err := ParseObjectList(strings.NewReader(input))
	assert.ErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), "line 2")
	assert.Nil(t, list)
}

func TestParametersString(t *testing.T) {
	assert.Equal(t, "( )", ParametersString(nil))
	assert.Equal(t, "( a )", ParametersString([]string{"a"}))
	assert.Equal(t, "( a b c )", ParametersString([]string{"a", "b", "c"}))
}
