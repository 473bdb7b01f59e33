// Package search implements the offline full-corpus term search: every
// document in a collection is rendered to a canonical text form and reported
// when all search terms occur in it.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dalemusser/stratalog/internal/app/system/cursor"
	"go.mongodb.org/mongo-driver/bson"
)

// ErrNoTerms is returned when a search is started without any terms.
var ErrNoTerms = errors.New("missing search term")

// Text renders doc as compact JSON in stored field order, the form the logs
// were submitted in. Numbers print in plain decimal (1700000000, not
// 1.7E+09) so whole-second timestamps can be searched for. Values with no
// JSON counterpart fall back to their extended JSON form.
func Text(doc bson.Raw) (string, error) {
	var b bytes.Buffer
	if err := writeDoc(&b, doc, false); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return b.String(), nil
}

func writeDoc(b *bytes.Buffer, doc bson.Raw, array bool) error {
	elems, err := doc.Elements()
	if err != nil {
		return err
	}
	start, end := byte('{'), byte('}')
	if array {
		start, end = '[', ']'
	}
	b.WriteByte(start)
	for i, e := range elems {
		if i > 0 {
			b.WriteByte(',')
		}
		if !array {
			if err := writeString(b, e.Key()); err != nil {
				return err
			}
			b.WriteByte(':')
		}
		if err := writeValue(b, e.Value()); err != nil {
			return err
		}
	}
	b.WriteByte(end)
	return nil
}

func writeValue(b *bytes.Buffer, v bson.RawValue) error {
	switch v.Type {
	case bson.TypeString:
		return writeString(b, v.StringValue())
	case bson.TypeDouble:
		b.WriteString(formatNumber(v.Double()))
	case bson.TypeInt32:
		b.WriteString(strconv.FormatInt(int64(v.Int32()), 10))
	case bson.TypeInt64:
		b.WriteString(strconv.FormatInt(v.Int64(), 10))
	case bson.TypeBoolean:
		b.WriteString(strconv.FormatBool(v.Boolean()))
	case bson.TypeNull, bson.TypeUndefined:
		b.WriteString("null")
	case bson.TypeEmbeddedDocument:
		return writeDoc(b, v.Document(), false)
	case bson.TypeArray:
		return writeDoc(b, v.Array(), true)
	case bson.TypeDateTime:
		return writeString(b, v.Time().UTC().Format("2006-01-02T15:04:05.000Z"))
	default:
		b.WriteString(v.String())
	}
	return nil
}

// writeString writes s as a JSON string without HTML escaping.
func writeString(b *bytes.Buffer, s string) error {
	enc := json.NewEncoder(b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	b.Truncate(b.Len() - 1) // Encode appends a newline
	return nil
}

// formatNumber prints f in the shortest plain decimal form, switching to an
// exponent only at 1e21 and above. NaN and infinities have no JSON form and
// print as null.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return "null"
	case f == 0:
		return "0"
	case math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// MatchesAll reports whether every term occurs in text as a literal,
// case-sensitive substring.
func MatchesAll(text string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(text, term) {
			return false
		}
	}
	return true
}

// ID returns the string identity of doc, or its extended JSON form for
// non-string identities.
func ID(doc bson.Raw) string {
	v, err := doc.LookupErr("_id")
	if err != nil {
		return ""
	}
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	return v.String()
}

// Reporter receives scan progress.
type Reporter interface {
	// Found is called once per matching document.
	Found(id string)
	// Searched is called after each page with its first and last identity.
	Searched(first, last string)
}

// Stats summarizes a completed scan.
type Stats struct {
	Scanned int
	Matched int
	Pages   int
}

// Run walks every page fetch returns and reports documents whose text
// contains all terms.
func Run(ctx context.Context, fetch cursor.PageFunc[bson.Raw], terms []string, rep Reporter) (Stats, error) {
	var st Stats
	if len(terms) == 0 {
		return st, ErrNoTerms
	}

	for page, err := range cursor.Pages(ctx, fetch) {
		if err != nil {
			return st, err
		}
		st.Pages++
		for _, doc := range page.Docs {
			st.Scanned++
			text, err := Text(doc)
			if err != nil {
				return st, err
			}
			if MatchesAll(text, terms) {
				st.Matched++
				rep.Found(ID(doc))
			}
		}
		rep.Searched(ID(page.Docs[0]), ID(page.Docs[len(page.Docs)-1]))
	}
	return st, nil
}
