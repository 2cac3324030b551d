package rewrite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpumuk/thrift-rewrite/internal/rewrite"
)

func TestOptionsFromMapDefaults(t *testing.T) {
	t.Parallel()

	opts, err := rewrite.OptionsFromMap(nil)
	require.NoError(t, err)
	assert.Equal(t, rewrite.DefaultOptions(), opts)
}

func TestOptionsFromMapConvertsValues(t *testing.T) {
	t.Parallel()

	opts, err := rewrite.OptionsFromMap(map[string]any{
		rewrite.KeyTabWidth:                              "8",
		rewrite.KeyIndentWidth:                           4.0,
		rewrite.KeyLineWidth:                             int64(100),
		rewrite.KeyUseTabs:                               "insert",
		rewrite.KeyLineDelimiter:                         "\r\n",
		rewrite.KeyInsertSpaceAfterArrowInSwitch:         "do not insert",
		rewrite.KeyIndentSwitchStatementsCompareToCases:  false,
		rewrite.KeyIndentSwitchStatementsCompareToSwitch: " TRUE ",
		"continuationIndentation":                        2,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, opts.TabWidth)
	assert.Equal(t, 4, opts.IndentWidth)
	assert.Equal(t, 100, opts.LineWidth)
	assert.True(t, opts.UseTabs)
	assert.Equal(t, "\r\n", opts.LineDelimiter)
	assert.False(t, opts.InsertSpaceAfterArrowInSwitch)
	assert.False(t, opts.IndentSwitchStatementsCompareToCases)
	assert.True(t, opts.IndentSwitchStatementsCompareToSwitch)
}

func TestOptionsFromMapRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		raw  any
		want string
	}{
		{name: "fractional width", key: rewrite.KeyTabWidth, raw: 4.5, want: "option tabWidth: not an integer: 4.5"},
		{name: "word width", key: rewrite.KeyLineWidth, raw: "wide", want: "option lineWidth"},
		{name: "slice width", key: rewrite.KeyIndentWidth, raw: []int{2}, want: "option indentWidth: unsupported value []int"},
		{name: "unknown word", key: rewrite.KeyUseTabs, raw: "maybe", want: `option useTabs: unsupported value "maybe"`},
		{name: "number as bool", key: rewrite.KeyUseTabs, raw: 1, want: "option useTabs: unsupported value int"},
		{name: "bare carriage return", key: rewrite.KeyLineDelimiter, raw: "\r", want: "option lineDelimiter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts, err := rewrite.OptionsFromMap(map[string]any{tt.key: tt.raw})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Zero(t, opts)
		})
	}
}
