package csvutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	in := "\ufeffFull Name, Phone ,Tags\n" +
		"Jane Doe,9876543210,\"hot, nri\"\n" +
		"\n" +
		"  John  ,9999999999\n"

	rows, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Jane Doe", rows[0]["Full Name"])
	assert.Equal(t, "9876543210", rows[0]["Phone"])
	assert.Equal(t, "hot, nri", rows[0]["Tags"])

	assert.Equal(t, "John", rows[1]["Full Name"])
	assert.Equal(t, "", rows[1]["Tags"])
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestWrite_QuotesSpecialCells(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []string{"Name", "Notes"}, [][]string{
		{"Jane", "likes, commas"},
		{"John", `said "hi"`},
	})
	require.NoError(t, err)

	assert.Equal(t, "Name,Notes\nJane,\"likes, commas\"\nJohn,\"said \"\"hi\"\"\"\n", buf.String())
}

func TestWriter_RejectsRaggedRow(t *testing.T) {
	w := NewWriter(&bytes.Buffer{}, []string{"a", "b"})
	assert.Error(t, w.WriteRow([]string{"only-one"}))
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []string{"A", "B"}, [][]string{{"1", "x, y"}}))

	rows, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]string{"A": "1", "B": "x, y"}, rows[0])
}
