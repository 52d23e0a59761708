package boardbot

import "fmt"

// PlaceholderURL marks a value that could not be read.
const PlaceholderURL = "N/A"

// ProductInfo is one scraped BoardBot result row.
type ProductInfo struct {
	ProductName  string `json:"productName"`
	Manufacturer string `json:"manufacturer"`
	Category     string `json:"category"`
	Subcategory  string `json:"subcategory"`
	MoreInfoURL  string `json:"moreInfoUrl"`
}

func (p ProductInfo) String() string {
	return fmt.Sprintf("%s (%s)", p.ProductName, p.Category)
}

// HasURL reports whether MoreInfoURL is a real link rather than a placeholder.
func (p ProductInfo) HasURL() bool {
	return len(p.MoreInfoURL) >= 4 && p.MoreInfoURL[:4] == "http"
}

// productFromRow builds a ProductInfo from a parsed row; the URL is filled
// in separately since it needs a click.
func productFromRow(r Row, cm ColumnMap) ProductInfo {
	return ProductInfo{
		ProductName:  collapseSpace(r.Cell(cm, FieldName)),
		Manufacturer: r.Cell(cm, FieldManufacturer),
		Category:     r.Cell(cm, FieldCategory),
		Subcategory:  r.Cell(cm, FieldSubcategory),
		MoreInfoURL:  PlaceholderURL,
	}
}
