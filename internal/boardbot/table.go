package boardbot

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Field is a product attribute read from a results row.
type Field int

const (
	FieldName Field = iota
	FieldManufacturer
	FieldCategory
	FieldSubcategory
)

func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldManufacturer:
		return "manufacturer"
	case FieldCategory:
		return "category"
	case FieldSubcategory:
		return "subcategory"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// positional layout of the BoardBot table when no header matches:
// [#, image, product, manufacturer, category, subcategory, more info]
var defaultColumns = map[Field]int{
	FieldName:         2,
	FieldManufacturer: 3,
	FieldCategory:     4,
	FieldSubcategory:  5,
}

// ColumnMap maps each field to a cell index. Resolved records which fields
// came from a header label rather than the positional fallback.
type ColumnMap struct {
	Index    map[Field]int
	Resolved map[Field]bool
}

// ResolveColumns matches header labels to fields. Subcategory is tested
// before category since its label contains the other.
func ResolveColumns(headers []string) ColumnMap {
	cm := ColumnMap{
		Index:    make(map[Field]int, len(defaultColumns)),
		Resolved: make(map[Field]bool, len(defaultColumns)),
	}

	for i, raw := range headers {
		h := strings.ToLower(strings.TrimSpace(raw))
		if h == "" {
			continue
		}

		var f Field
		switch {
		case strings.Contains(h, "subcategory") || strings.Contains(h, "sub-category") || strings.Contains(h, "sub category"):
			f = FieldSubcategory
		case strings.Contains(h, "category"):
			f = FieldCategory
		case strings.Contains(h, "manufacturer") || strings.Contains(h, "vendor") || strings.Contains(h, "company"):
			f = FieldManufacturer
		case strings.Contains(h, "product") || h == "name":
			f = FieldName
		default:
			continue
		}

		if !cm.Resolved[f] {
			cm.Index[f] = i
			cm.Resolved[f] = true
		}
	}

	for f, idx := range defaultColumns {
		if !cm.Resolved[f] {
			cm.Index[f] = idx
		}
	}

	return cm
}

// Row is one parsed results row.
type Row struct {
	Cells []string
	// DOMIndex is the row's position among all tbody rows, header rows
	// included, for locating it in the live page.
	DOMIndex int
	// MoreInfoCell is the index of the first cell holding a button whose text
	// mentions "more" or "info", or -1.
	MoreInfoCell int
}

// Cell returns the text of the mapped column, or "N/A" when the row is short.
func (r Row) Cell(cm ColumnMap, f Field) string {
	idx, ok := cm.Index[f]
	if !ok || idx < 0 || idx >= len(r.Cells) {
		return PlaceholderURL
	}
	v := strings.TrimSpace(r.Cells[idx])
	if v == "" {
		return PlaceholderURL
	}
	return v
}

// ResultsTable is a parsed snapshot of the BoardBot results table.
type ResultsTable struct {
	Headers []string
	Columns ColumnMap
	Rows    []Row
}

// ParseResultsTable parses the outer HTML of the results table. Header
// cells come from thead (or the first row made of th cells); body rows
// are the tbody rows with td cells.
func ParseResultsTable(tableHTML string) (*ResultsTable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tableHTML))
	if err != nil {
		return nil, fmt.Errorf("parse results table: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no table element in results html")
	}

	var headers []string
	headerCells := table.Find("thead tr").First().Find("th, td")
	if headerCells.Length() == 0 {
		headerCells = table.Find("tr").First().Find("th")
	}
	headerCells.Each(func(_ int, s *goquery.Selection) {
		headers = append(headers, collapseSpace(s.Text()))
	})

	rt := &ResultsTable{
		Headers: headers,
		Columns: ResolveColumns(headers),
	}

	table.Find("tbody tr").Each(func(domIndex int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() == 0 {
			return
		}
		row := Row{DOMIndex: domIndex, MoreInfoCell: -1}
		tds.Each(func(i int, td *goquery.Selection) {
			row.Cells = append(row.Cells, td.Text())
			if row.MoreInfoCell >= 0 {
				return
			}
			btn := td.Find("button").First()
			if btn.Length() > 0 && IsMoreInfoLabel(btn.Text()) {
				row.MoreInfoCell = i
			}
		})
		rt.Rows = append(rt.Rows, row)
	})

	return rt, nil
}

// IsMoreInfoLabel reports whether a button label looks like the More Info control.
func IsMoreInfoLabel(label string) bool {
	l := strings.ToLower(label)
	return strings.Contains(l, "more") || strings.Contains(l, "info")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
