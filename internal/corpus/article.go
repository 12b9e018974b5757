// Package corpus loads the article spreadsheet into typed records.
package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Article is one row of the corpus. Optional columns are nil when the cell
// was blank or held a missing-value marker.
type Article struct {
	// ID is the 1-based position of the row in the corpus file.
	ID         int64
	Source     string
	Number     string
	Theme      string
	Subtheme   *string
	Text       string
	Categories *string
	Summary    *string
}

// HasText reports whether the article body is present.
func (a Article) HasText() bool {
	return strings.TrimSpace(a.Text) != ""
}

// CompositeText is the embedding input: body, summary, keywords, theme and subtheme.
func (a Article) CompositeText() string {
	var b strings.Builder
	b.WriteString(a.Text)
	b.WriteString(" ")
	b.WriteString(Value(a.Summary))
	b.WriteString(" Palabras clave: ")
	b.WriteString(Value(a.Categories))
	b.WriteString(" Tema: ")
	b.WriteString(a.Theme)
	b.WriteString(" Subtema: ")
	b.WriteString(Value(a.Subtheme))
	return b.String()
}

// Value dereferences an optional field, returning "" for nil.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Optional wraps s, returning nil when it is blank or a missing-value marker.
func Optional(s string) *string {
	s = clean(s)
	if s == "" {
		return nil
	}
	return &s
}

// Corpus is the result of loading a corpus file.
type Corpus struct {
	// Articles have non-empty text and are indexed for retrieval.
	Articles []Article
	// Incomplete rows have no text. They are only reachable through exact
	// article lookup.
	Incomplete []Article
}

// All returns indexed and incomplete articles ordered by ID.
func (c *Corpus) All() []Article {
	all := make([]Article, 0, len(c.Articles)+len(c.Incomplete))
	i, j := 0, 0
	for i < len(c.Articles) || j < len(c.Incomplete) {
		if j >= len(c.Incomplete) || (i < len(c.Articles) && c.Articles[i].ID < c.Incomplete[j].ID) {
			all = append(all, c.Articles[i])
			i++
		} else {
			all = append(all, c.Incomplete[j])
			j++
		}
	}
	return all
}

// Hash identifies the indexed content. Two corpora with the same hash produce
// the same vectors under the same embedding model.
func (c *Corpus) Hash() string {
	h := sha256.New()
	for _, a := range c.Articles {
		h.Write([]byte(strconv.FormatInt(a.ID, 10)))
		h.Write([]byte{0})
		h.Write([]byte(a.CompositeText()))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
