package diffview_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpumuk/thrift-rewrite/internal/diffview"
)

func TestUnified(t *testing.T) {
	t.Parallel()

	before := []byte("struct User {\n  1: i64 id;\n}\n")
	after := []byte("struct Account {\n  1: i64 id;\n}\n")

	diff := diffview.Unified("user.thrift", before, after)
	assert.Contains(t, diff, "--- a/user.thrift\n")
	assert.Contains(t, diff, "+++ b/user.thrift\n")
	assert.Contains(t, diff, "-struct User {\n")
	assert.Contains(t, diff, "+struct Account {\n")

	assert.Empty(t, diffview.Unified("user.thrift", before, before))
}

func TestWritePlain(t *testing.T) {
	t.Parallel()

	before := []byte("a\nb\n")
	after := []byte("a\nc\n")

	var buf bytes.Buffer
	require.NoError(t, diffview.Write(&buf, diffview.NewStyles(false), "x.thrift", before, after))
	assert.Equal(t, diffview.Unified("x.thrift", before, after), buf.String())

	buf.Reset()
	require.NoError(t, diffview.Write(&buf, diffview.NewStyles(false), "x.thrift", before, before))
	assert.Empty(t, buf.String())
}

func TestColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, diffview.ColorEnabled("always", &buf))
	assert.False(t, diffview.ColorEnabled("never", &buf))
	assert.False(t, diffview.ColorEnabled("auto", &buf))

	t.Setenv("NO_COLOR", "1")
	assert.False(t, diffview.ColorEnabled("auto", &buf))
}

func TestWriteColoredKeepsContent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, diffview.Write(&buf, diffview.NewStyles(true), "x.thrift", []byte("a\n\tb\n"), []byte("a\n\tc\n")))
	assert.Contains(t, buf.String(), "+\tc")
	assert.Contains(t, buf.String(), "-\tb")
}
