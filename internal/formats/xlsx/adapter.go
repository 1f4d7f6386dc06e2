// Package xlsx reads tests authored in a spreadsheet: one sheet per test,
// one row per question.
package xlsx

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/evalify/internal/formats"
)

const Profile = "xlsx.v1"

func init() {
	formats.Register(Profile, New(DefaultConfig()))
}

// Config names the columns of a question row.
type Config struct {
	IDColumn       string   // question id, optional
	PromptColumn   string   // question text
	OptionColumns  []string // options in key order
	AnswerColumn   string   // letter (A, B, ...) or an option key
	DurationColumn string   // read from the first data row only
	StartRow       int      // first data row (1-based)
	Sheets         []string // empty means every sheet
}

func DefaultConfig() Config {
	return Config{
		IDColumn:       "A",
		PromptColumn:   "B",
		OptionColumns:  []string{"C", "D", "E", "F"},
		AnswerColumn:   "G",
		DurationColumn: "H",
		StartRow:       2,
	}
}

type Decoder struct {
	cfg Config
}

func New(cfg Config) *Decoder {
	if cfg.StartRow < 1 {
		cfg.StartRow = 1
	}
	return &Decoder{cfg: cfg}
}

func (d *Decoder) Decode(ctx context.Context, r io.Reader) ([]formats.RawTest, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %v", err)
	}
	defer f.Close()

	cols, err := d.columns()
	if err != nil {
		return nil, err
	}

	sheets := d.cfg.Sheets
	if len(sheets) == 0 {
		sheets = f.GetSheetList()
	}
	out := make([]formats.RawTest, 0, len(sheets))
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to get rows of %s: %v", sheet, err)
		}
		out = append(out, d.sheetToTest(sheet, rows, cols))
	}
	return out, nil
}

type columnIndex struct {
	id, prompt, answer, duration int
	options                      []int
}

func (d *Decoder) columns() (columnIndex, error) {
	var ci columnIndex
	var err error
	if ci.id, err = colIndex(d.cfg.IDColumn); err != nil {
		return ci, err
	}
	if ci.prompt, err = colIndex(d.cfg.PromptColumn); err != nil {
		return ci, err
	}
	if ci.answer, err = colIndex(d.cfg.AnswerColumn); err != nil {
		return ci, err
	}
	if ci.duration, err = colIndex(d.cfg.DurationColumn); err != nil {
		return ci, err
	}
	for _, c := range d.cfg.OptionColumns {
		n, err := colIndex(c)
		if err != nil {
			return ci, err
		}
		ci.options = append(ci.options, n)
	}
	return ci, nil
}

// colIndex converts a column letter to a 0-based index; "" maps to -1.
func colIndex(name string) (int, error) {
	if name == "" {
		return -1, nil
	}
	n, err := excelize.ColumnNameToNumber(name)
	if err != nil {
		return -1, err
	}
	return n - 1, nil
}

func (d *Decoder) sheetToTest(sheet string, rows [][]string, ci columnIndex) formats.RawTest {
	name := sheet
	t := formats.RawTest{Name: &name}
	for i, row := range rows {
		if i < d.cfg.StartRow-1 {
			continue
		}
		if isBlank(row) {
			continue
		}
		if t.Duration == nil {
			if v := cell(row, ci.duration); v != "" {
				t.Duration = &v
			}
		}
		t.Questions = append(t.Questions, rowToQuestion(row, ci))
	}
	return t
}

func rowToQuestion(row []string, ci columnIndex) formats.RawQuestion {
	var q formats.RawQuestion
	if v := cell(row, ci.id); v != "" {
		q.ID = &v
	}
	if v := cell(row, ci.prompt); v != "" {
		q.Question = &v
	}

	last := -1
	for k, c := range ci.options {
		if cell(row, c) != "" {
			last = k
		}
	}
	for k := 0; k <= last; k++ {
		q.Options = append(q.Options, formats.TextOption(cell(row, ci.options[k])))
	}

	if v := cell(row, ci.answer); v != "" {
		if n, ok := letterIndex(v); ok {
			q.CorrectIndex = &n
		} else {
			q.Answer = &v
		}
	}
	return q
}

// letterIndex maps a single option letter (A, b, ...) to its position.
func letterIndex(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 1 || s[0] < 'A' || s[0] > 'Z' {
		return 0, false
	}
	return int(s[0] - 'A'), true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
