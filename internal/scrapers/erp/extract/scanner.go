// Package extract holds every rule that reads data out of ERP markup. ERP responses are mostly
// bare <tr> fragments rather than documents, so scanning is done on the token stream instead of
// a parsed DOM (an HTML5 parser would drop rows outside a <table>).
package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is a start tag seen inside a row. Text is the text that directly follows the tag, up to
// the next tag.
type Element struct {
	Tag   string
	Attrs map[string]string
	Text  string
}

// Cell is a <td> or <th>, Text is its text content with inner tags stripped.
type Cell struct {
	Attrs map[string]string
	Text  string
}

// Row is a <tr> with its cells and every element nested in it.
type Row struct {
	ID       string
	Attrs    map[string]string
	Cells    []Cell
	Elements []Element
	// Raw is the unmodified markup of the row.
	Raw string
}

// Cell returns the text of the i-th cell, "" when the row is shorter.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i].Text
}

// Input returns the value attribute of the first element named name (case-insensitive).
func (r Row) Input(name string) (string, bool) {
	for _, e := range r.Elements {
		if strings.EqualFold(e.Attrs["name"], name) {
			value, ok := e.Attrs["value"]
			return value, ok
		}
	}
	return "", false
}

// TextByID returns the text following the first element whose id starts with prefix.
func (r Row) TextByID(prefix string) (string, bool) {
	for _, e := range r.Elements {
		if strings.HasPrefix(e.Attrs["id"], prefix) {
			text := strings.TrimSpace(e.Text)
			return text, text != ""
		}
	}
	return "", false
}

// Attr returns the first value of attr (on the row or any nested element) accepted by match.
func (r Row) Attr(attr string, match func(string) bool) (string, bool) {
	if value, ok := r.Attrs[attr]; ok && match(value) {
		return value, true
	}
	for _, e := range r.Elements {
		if value, ok := e.Attrs[attr]; ok && match(value) {
			return value, true
		}
	}
	return "", false
}

func attrMap(tok html.Token) map[string]string {
	out := make(map[string]string, len(tok.Attr))
	for _, a := range tok.Attr {
		if _, exists := out[a.Key]; !exists {
			out[a.Key] = a.Val
		}
	}
	return out
}

func isCell(a atom.Atom) bool {
	return a == atom.Td || a == atom.Th
}

func isVoid(a atom.Atom) bool {
	switch a {
	case atom.Input, atom.Br, atom.Img, atom.Hr, atom.Meta, atom.Link:
		return true
	}
	return false
}

type rowScanner struct {
	accept func(attrs map[string]string) bool
	limit  int

	rows []Row

	row      *Row
	raw      strings.Builder
	cell     *strings.Builder
	cellIdx  int
	depth    int
	textSink int
}

func (s *rowScanner) closeCell() {
	if s.cell == nil {
		return
	}
	s.row.Cells[s.cellIdx].Text = strings.TrimSpace(s.cell.String())
	s.cell = nil
}

func (s *rowScanner) closeRow() {
	if s.row == nil {
		return
	}
	s.closeCell()
	s.row.Raw = s.raw.String()
	s.rows = append(s.rows, *s.row)
	s.row = nil
	s.raw.Reset()
	s.depth = 0
}

func (s *rowScanner) done() bool {
	return s.limit > 0 && len(s.rows) >= s.limit
}

func (s *rowScanner) startTag(tok html.Token, raw string, selfClosing bool) {
	if tok.DataAtom == atom.Tr && s.depth == 0 {
		s.closeRow()
		attrs := attrMap(tok)
		if s.accept(attrs) {
			s.row = &Row{ID: attrs["id"], Attrs: attrs}
			s.raw.WriteString(raw)
		}
		s.textSink = -1
		return
	}
	if s.row == nil {
		return
	}

	s.raw.WriteString(raw)
	switch {
	case tok.DataAtom == atom.Table:
		s.depth++
	case isCell(tok.DataAtom) && s.depth == 0:
		s.closeCell()
		s.row.Cells = append(s.row.Cells, Cell{Attrs: attrMap(tok)})
		s.cellIdx = len(s.row.Cells) - 1
		s.cell = &strings.Builder{}
	}

	s.row.Elements = append(s.row.Elements, Element{Tag: tok.Data, Attrs: attrMap(tok)})
	s.textSink = len(s.row.Elements) - 1
	if selfClosing || isVoid(tok.DataAtom) {
		s.textSink = -1
	}
}

func (s *rowScanner) endTag(tok html.Token, raw string) {
	if s.row == nil {
		return
	}
	s.raw.WriteString(raw)
	s.textSink = -1

	switch {
	case tok.DataAtom == atom.Table:
		if s.depth == 0 {
			s.closeRow()
			return
		}
		s.depth--
	case isCell(tok.DataAtom) && s.depth == 0:
		s.closeCell()
	case tok.DataAtom == atom.Tr && s.depth == 0:
		s.closeRow()
	}
}

func (s *rowScanner) text(data, raw string) {
	if s.row == nil {
		return
	}
	s.raw.WriteString(raw)
	if s.cell != nil {
		s.cell.WriteString(data)
	}
	if s.textSink >= 0 {
		s.row.Elements[s.textSink].Text += data
	}
}

func (s *rowScanner) scan(src string, gate atom.Atom) []Row {
	z := html.NewTokenizer(strings.NewReader(src))
	open := gate == 0
	s.textSink = -1

	for !s.done() {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := string(z.Raw())
		tok := z.Token()

		if !open {
			if tt == html.StartTagToken && tok.DataAtom == gate {
				open = true
			}
			continue
		}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			s.startTag(tok, raw, tt == html.SelfClosingTagToken)
		case html.EndTagToken:
			s.endTag(tok, raw)
		case html.TextToken:
			s.text(tok.Data, raw)
		default:
			if s.row != nil {
				s.raw.WriteString(raw)
			}
		}
	}
	if !s.done() {
		s.closeRow()
	}
	return s.rows
}

// Rows returns every <tr> whose id starts with idPrefix, in document order.
func Rows(src, idPrefix string) []Row {
	s := &rowScanner{
		accept: func(attrs map[string]string) bool {
			id, ok := attrs["id"]
			return ok && strings.HasPrefix(id, idPrefix)
		},
	}
	return s.scan(src, 0)
}

// FirstBodyRow returns the first <tr> following the first <tbody> start tag.
func FirstBodyRow(src string) (Row, bool) {
	s := &rowScanner{
		accept: func(map[string]string) bool { return true },
		limit:  1,
	}
	rows := s.scan(src, atom.Tbody)
	if len(rows) == 0 {
		return Row{}, false
	}
	return rows[0], true
}

// Cells returns every <td>/<th> of the document in order of their start tags. The text of a
// cell includes the text of cells nested inside it.
func Cells(src string) []Cell {
	z := html.NewTokenizer(strings.NewReader(src))
	var cells []Cell
	var texts []*strings.Builder
	var open []int

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		tok := z.Token()
		switch tt {
		case html.StartTagToken:
			if tok.DataAtom == atom.Tr {
				open = open[:0]
			}
			if !isCell(tok.DataAtom) {
				continue
			}
			cells = append(cells, Cell{Attrs: attrMap(tok)})
			texts = append(texts, &strings.Builder{})
			open = append(open, len(cells)-1)
		case html.EndTagToken:
			if isCell(tok.DataAtom) && len(open) > 0 {
				open = open[:len(open)-1]
			}
			if tok.DataAtom == atom.Tr || tok.DataAtom == atom.Table {
				open = open[:0]
			}
		case html.TextToken:
			for _, idx := range open {
				texts[idx].WriteString(tok.Data)
			}
		}
	}

	for i := range cells {
		cells[i].Text = strings.TrimSpace(texts[i].String())
	}
	return cells
}
