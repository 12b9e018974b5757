package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

// Field names after header normalization.
const (
	FieldSource     = "source"
	FieldNumber     = "article_number"
	FieldTheme      = "theme"
	FieldSubtheme   = "subtheme"
	FieldText       = "article_text"
	FieldCategories = "categories"
	FieldSummary    = "explanatory_summary"
)

// RequiredFields lists the columns every corpus must provide.
var RequiredFields = []string{
	FieldSource, FieldNumber, FieldTheme, FieldSubtheme, FieldText, FieldCategories, FieldSummary,
}

// columnAliases maps the Spanish production headers onto field names.
var columnAliases = map[string]string{
	"fuente":              FieldSource,
	"articulo":            FieldNumber,
	"artículo":            FieldNumber,
	"tema":                FieldTheme,
	"subtema":             FieldSubtheme,
	"texto_del_articulo":  FieldText,
	"texto_del_artículo":  FieldText,
	"categorias":          FieldCategories,
	"categorías":          FieldCategories,
	"resumen_explicativo": FieldSummary,
}

// missingMarkers are cell values spreadsheets and dataframe exports use for "no value".
var missingMarkers = map[string]struct{}{
	"nan":  {},
	"none": {},
	"null": {},
}

var floatNumberPattern = regexp.MustCompile(`^(\d+)\.0+$`)

// SchemaError reports required columns absent from the corpus header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("corpus is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Load reads a .csv or .xlsx corpus file. Rows with empty article text are
// returned in Corpus.Incomplete; fully blank rows are skipped.
func Load(path string) (*Corpus, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx":
		rows, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported corpus format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return FromRows(rows)
}

// FromRows builds a corpus from a header row followed by data rows.
func FromRows(rows [][]string) (*Corpus, error) {
	if len(rows) == 0 {
		return nil, &SchemaError{Missing: RequiredFields}
	}

	columns := make(map[string]int)
	for i, name := range rows[0] {
		field := NormalizeColumn(name)
		if alias, ok := columnAliases[field]; ok {
			field = alias
		}
		if _, seen := columns[field]; !seen {
			columns[field] = i
		}
	}

	var missing []string
	for _, field := range RequiredFields {
		if _, ok := columns[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	cell := func(row []string, field string) string {
		i := columns[field]
		if i >= len(row) {
			return ""
		}
		return clean(row[i])
	}

	c := &Corpus{}
	var id int64
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		id++
		a := Article{
			ID:         id,
			Source:     cell(row, FieldSource),
			Number:     normalizeNumber(cell(row, FieldNumber)),
			Theme:      cell(row, FieldTheme),
			Subtheme:   Optional(cell(row, FieldSubtheme)),
			Text:       cell(row, FieldText),
			Categories: Optional(cell(row, FieldCategories)),
			Summary:    Optional(cell(row, FieldSummary)),
		}
		if a.HasText() {
			c.Articles = append(c.Articles, a)
		} else {
			c.Incomplete = append(c.Incomplete, a)
		}
	}
	return c, nil
}

// NormalizeColumn lower-cases and trims a header and replaces spaces with underscores.
func NormalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ToLower(strings.TrimSpace(norm.NFC.String(name)))
	return strings.ReplaceAll(name, " ", "_")
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus csv: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("corpus workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// clean trims a cell, normalizes it to NFC and maps missing markers to "".
func clean(s string) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	if _, ok := missingMarkers[strings.ToLower(s)]; ok {
		return ""
	}
	return s
}

// normalizeNumber undoes spreadsheet float formatting ("106.0" -> "106").
func normalizeNumber(s string) string {
	if m := floatNumberPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
