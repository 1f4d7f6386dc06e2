package xlsx

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/evalify/internal/formats"
)

func buildWorkbook(t *testing.T) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	// the default "Sheet1" stays empty and comes first
	_, err := f.NewSheet("Capitals")
	require.NoError(t, err)
	rows := [][]interface{}{
		{"id", "question", "A", "B", "C", "D", "answer", "duration"},
		{"cap-fr", "Capital of France?", "Rome", "Paris", "Madrid", "", "B", "20m"},
		{"", "Capital of Italy?", "Rome", "Paris", "", "", "opt0"},
		{},
		{"cap-es", "", "Lisbon", "", "Madrid"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Capitals", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestDecode_Workbook(t *testing.T) {
	raw, err := New(DefaultConfig()).Decode(context.Background(), buildWorkbook(t))
	require.NoError(t, err)
	require.Len(t, raw, 2)

	tests := formats.Normalize(raw)
	empty := tests[0]
	assert.Equal(t, "Sheet1", empty.Name)
	assert.Equal(t, formats.DefaultDuration, empty.Duration)
	assert.Empty(t, empty.Questions)

	capitals := tests[1]
	assert.Equal(t, "test-1", capitals.ID)
	assert.Equal(t, "Capitals", capitals.Name)
	assert.Equal(t, "20m", capitals.Duration)
	require.Len(t, capitals.Questions, 3)

	fr := capitals.Questions[0]
	assert.Equal(t, "cap-fr", fr.ID)
	require.Len(t, fr.Options, 3, "trailing empty option cells are dropped")
	assert.Equal(t, "opt1", fr.CorrectKey)
	assert.Equal(t, "Paris", fr.Options[1].Label)

	it := capitals.Questions[1]
	assert.Equal(t, "q1", it.ID)
	assert.Equal(t, "opt0", it.CorrectKey)

	es := capitals.Questions[2]
	assert.Equal(t, formats.DefaultPrompt, es.Prompt)
	require.Len(t, es.Options, 3, "inner empty option cells keep their position")
	assert.Equal(t, "", es.Options[1].Label)
	assert.Equal(t, "opt0", es.CorrectKey)
}

func TestDecode_SelectedSheets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sheets = []string{"Capitals"}
	raw, err := New(cfg).Decode(context.Background(), buildWorkbook(t))
	require.NoError(t, err)
	assert.Len(t, raw, 1)

	cfg.Sheets = []string{"Missing"}
	_, err = New(cfg).Decode(context.Background(), buildWorkbook(t))
	assert.Error(t, err)
}

func TestDecode_NotAWorkbook(t *testing.T) {
	_, err := New(DefaultConfig()).Decode(context.Background(), strings.NewReader("id,question\n"))
	assert.Error(t, err)
}

func TestDecode_RegisteredProfile(t *testing.T) {
	raw, err := formats.Decode(context.Background(), Profile, buildWorkbook(t))
	require.NoError(t, err)
	assert.Len(t, raw, 2)
}

func TestLetterIndex(t *testing.T) {
	cases := map[string]struct {
		n  int
		ok bool
	}{
		"A": {0, true}, "b": {1, true}, " D ": {3, true},
		"AB": {0, false}, "1": {0, false}, "opt1": {0, false},
	}
	for in, want := range cases {
		n, ok := letterIndex(in)
		assert.Equal(t, want.ok, ok, in)
		if ok {
			assert.Equal(t, want.n, n, in)
		}
	}
}
