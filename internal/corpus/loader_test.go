package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const spanishCSV = `Fuente,Artículo,Tema,Subtema,Texto del articulo,Categorias,Resumen Explicativo
Ley 100 de 1993,1,Sistema de Seguridad Social,Objeto,"El sistema de seguridad social integral tiene por objeto garantizar los derechos irrenunciables.","objeto, derechos",Define el objeto del sistema.
Ley 100 de 1993,2.0,Principios,,"El servicio público esencial de seguridad social se prestará con sujeción a los principios.",principios,nan
Ley 100 de 1993,3,Derechos,General,,derechos,Sin texto
,,,,,,
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_CSV(t *testing.T) {
	c, err := Load(writeFile(t, "corpus.csv", spanishCSV))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(c.Articles) != 2 {
		t.Fatalf("len(Articles) = %d, want 2", len(c.Articles))
	}
	if len(c.Incomplete) != 1 {
		t.Fatalf("len(Incomplete) = %d, want 1", len(c.Incomplete))
	}

	first := c.Articles[0]
	if first.ID != 1 || first.Number != "1" || first.Source != "Ley 100 de 1993" {
		t.Errorf("first article = %+v", first)
	}
	if Value(first.Subtheme) != "Objeto" {
		t.Errorf("Subtheme = %q, want Objeto", Value(first.Subtheme))
	}

	second := c.Articles[1]
	if second.Number != "2" {
		t.Errorf("float article number not normalized: %q", second.Number)
	}
	if second.Subtheme != nil {
		t.Errorf("blank subtheme should be nil, got %q", *second.Subtheme)
	}
	if second.Summary != nil {
		t.Errorf("nan summary should be nil, got %q", *second.Summary)
	}

	incomplete := c.Incomplete[0]
	if incomplete.ID != 3 || incomplete.Number != "3" || incomplete.HasText() {
		t.Errorf("incomplete article = %+v", incomplete)
	}

	all := c.All()
	if len(all) != 3 || all[0].ID != 1 || all[1].ID != 2 || all[2].ID != 3 {
		t.Errorf("All() order wrong: %+v", all)
	}
}

func TestLoad_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"source", "article_number", "theme", "subtheme", "article_text", "categories", "explanatory_summary"},
		{"Ley 100 de 1993", 106, "Publicidad", "", "Las entidades deberán sujetarse a las normas de publicidad.", "publicidad", "Regula la publicidad."},
	}
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "corpus.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	_ = f.Close()

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(c.Articles) != 1 {
		t.Fatalf("len(Articles) = %d, want 1", len(c.Articles))
	}
	if got := c.Articles[0]; got.Number != "106" || got.Theme != "Publicidad" {
		t.Errorf("article = %+v", got)
	}
}

func TestLoad_SchemaError(t *testing.T) {
	path := writeFile(t, "corpus.csv", "fuente,articulo,tema\nLey,1,Tema\n")

	_, err := Load(path)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Load() error = %v, want *SchemaError", err)
	}
	want := []string{FieldSubtheme, FieldText, FieldCategories, FieldSummary}
	if !reflect.DeepEqual(schemaErr.Missing, want) {
		t.Errorf("Missing = %v, want %v", schemaErr.Missing, want)
	}
	if !strings.Contains(err.Error(), "explanatory_summary") {
		t.Errorf("error text %q should name the missing column", err.Error())
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	if _, err := Load(writeFile(t, "corpus.json", "[]")); err == nil {
		t.Fatal("expected error for .json corpus")
	}
}

func TestFromRows_Empty(t *testing.T) {
	var schemaErr *SchemaError
	if _, err := FromRows(nil); !errors.As(err, &schemaErr) {
		t.Fatalf("FromRows(nil) error = %v, want *SchemaError", err)
	}
}

func TestNormalizeColumn(t *testing.T) {
	tests := map[string]string{
		"  Texto del Articulo ": "texto_del_articulo",
		"\ufeffFuente":          "fuente",
		"ARTICLE_NUMBER":        "article_number",
	}
	for in, want := range tests {
		if got := NormalizeColumn(in); got != want {
			t.Errorf("NormalizeColumn(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCompositeText(t *testing.T) {
	a := Article{
		Text:       "Texto",
		Summary:    Optional("Resumen"),
		Categories: Optional("cat1, cat2"),
		Theme:      "Tema A",
		Subtheme:   Optional("Sub B"),
	}
	want := "Texto Resumen Palabras clave: cat1, cat2 Tema: Tema A Subtema: Sub B"
	if got := a.CompositeText(); got != want {
		t.Errorf("CompositeText() = %q, want %q", got, want)
	}
}

func TestOptional(t *testing.T) {
	for _, in := range []string{"", "  ", "nan", "None", "NULL"} {
		if got := Optional(in); got != nil {
			t.Errorf("Optional(%q) = %q, want nil", in, *got)
		}
	}
	if got := Optional(" valor "); got == nil || *got != "valor" {
		t.Errorf("Optional(\" valor \") = %v, want \"valor\"", got)
	}
}

func TestCorpusHash(t *testing.T) {
	a := &Corpus{Articles: []Article{{ID: 1, Number: "1", Text: "uno"}}}
	b := &Corpus{Articles: []Article{{ID: 1, Number: "1", Text: "uno"}}}
	c := &Corpus{Articles: []Article{{ID: 1, Number: "1", Text: "dos"}}}

	if a.Hash() != b.Hash() {
		t.Error("identical corpora should hash equally")
	}
	if a.Hash() == c.Hash() {
		t.Error("different text should change the hash")
	}
}
