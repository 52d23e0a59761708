package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nbenliogludev/boardbot-e2e/internal/boardbot"
)

const tableWidth = 100

// per-column rune caps for the console product grid
var productColumns = []struct {
	header string
	width  int
}{
	{"#", 3},
	{"Product Name", 17},
	{"Manufacturer", 15},
	{"Category", 13},
	{"Subcategory", 13},
	{"More Info URL", 40},
}

// FormatTable renders the console report. The product grid carries no
// colors so the same text can be attached as text/plain.
func FormatTable(r TestReport) string {
	var b strings.Builder
	heavy := strings.Repeat("═", tableWidth)

	b.WriteString("\n" + heavy + "\n")
	b.WriteString("                              TEST REPORT\n")
	b.WriteString(heavy + "\n\n")

	fmt.Fprintf(&b, "📝 Prompt: %s\n\n", r.Prompt)
	b.WriteString("📊 Summary:\n")
	fmt.Fprintf(&b, "   • Total Results: %d\n", r.TotalResults)
	fmt.Fprintf(&b, "   • ✅ Suitable Products (%s): %d\n", r.ExpectedCategory, r.SuitableProducts)
	fmt.Fprintf(&b, "   • ⚠️  Unsuitable Products: %d\n\n", r.UnsuitableProducts)

	if len(r.Warnings) > 0 {
		b.WriteString("⚠️  WARNINGS:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "   %s\n", w)
		}
		b.WriteString("\n")
	}

	b.WriteString("📦 Product Details:\n")
	b.WriteString(productGrid(r.Products) + "\n")
	b.WriteString(heavy + "\n")
	return b.String()
}

func productGrid(products []boardbot.ProductInfo) string {
	headers := make([]string, len(productColumns))
	for i, c := range productColumns {
		headers[i] = c.header
	}

	rows := make([][]string, 0, len(products))
	for i, p := range products {
		cells := []string{fmt.Sprint(i + 1), p.ProductName, p.Manufacturer, p.Category, p.Subcategory, p.MoreInfoURL}
		for c := range cells {
			cells[c] = cut(cells[c], productColumns[c].width)
		}
		rows = append(rows, cells)
	}

	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(_, _ int) lipgloss.Style { return cell }).
		Headers(headers...).
		Rows(rows...).
		Render()
}

// cut truncates s to n runes.
func cut(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

func productLink(p boardbot.ProductInfo, label string) string {
	if p.HasURL() {
		return fmt.Sprintf("[🔗 %s](%s)", label, p.MoreInfoURL)
	}
	return p.MoreInfoURL
}

// FormatMarkdown renders the persisted Markdown report.
func FormatMarkdown(r TestReport) string {
	var b strings.Builder

	b.WriteString("# Test Report\n\n")
	fmt.Fprintf(&b, "## Prompt\n%s\n\n", r.Prompt)

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- **Total Results**: %d\n", r.TotalResults)
	fmt.Fprintf(&b, "- **✅ Suitable Products (%s)**: %d\n", r.ExpectedCategory, r.SuitableProducts)
	fmt.Fprintf(&b, "- **⚠️ Unsuitable Products**: %d\n", r.UnsuitableProducts)
	fmt.Fprintf(&b, "- **⭐ Original Product Found**: %s\n\n", r.OriginalFound())

	if len(r.Warnings) > 0 {
		b.WriteString("## ⚠️ Warnings\n\n")
		for _, w := range r.Warnings {
			b.WriteString(w + "\n\n")
		}
	}

	b.WriteString("## Product Details\n\n")
	b.WriteString("| # | Product Name | Manufacturer | Category | Subcategory | More Info |\n")
	b.WriteString("|---|--------------|--------------|----------|-------------|-----------|\n")

	for i, p := range r.Products {
		name := p.ProductName
		if i == r.OriginalProduct {
			name = "⭐ " + name
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
			i+1, name, p.Manufacturer, p.Category, p.Subcategory, productLink(p, "View Product"))
	}

	if r.OriginalProduct >= 0 {
		b.WriteString("\n⭐ = Original product that inspired this search\n")
	}

	return b.String()
}

// FormatJSON renders the report as indented JSON.
func FormatJSON(r TestReport) (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	return string(b), nil
}

// FormatSummary renders the highlighted run summary with latency and per-product details.
func FormatSummary(r TestReport, testID string, latency time.Duration) string {
	var b strings.Builder

	title := "# 📈 TEST RESULTS SUMMARY"
	if testID != "" {
		title += " - " + testID
	}
	b.WriteString(title + "\n\n")

	b.WriteString("## ⏱️ Performance Metrics\n")
	fmt.Fprintf(&b, "- **Response Latency:** %.2f seconds %s\n\n", latency.Seconds(), latencyBadge(latency))

	b.WriteString("## 📝 Search Query\n```\n" + r.Prompt + "\n```\n\n")

	b.WriteString("## 📊 Results Breakdown\n")
	fmt.Fprintf(&b, "- **Total Products Found:** %d\n", r.TotalResults)
	fmt.Fprintf(&b, "- **✅ Suitable Products (%s):** %d\n", r.ExpectedCategory, r.SuitableProducts)
	fmt.Fprintf(&b, "- **⚠️ Unsuitable Products:** %d\n", r.UnsuitableProducts)
	fmt.Fprintf(&b, "- **⭐ Original Product Found:** %s\n\n", r.OriginalFound())

	if r.UnsuitableProducts > 0 {
		b.WriteString("## ⚠️ Warnings\n")
		for _, w := range r.Warnings {
			b.WriteString("- " + w + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## 📦 Product Details\n")
	for i, p := range r.Products {
		star, suffix := "", ""
		if i == r.OriginalProduct {
			star, suffix = "⭐ ", " (Original Product)"
		}
		mark := "⚠️"
		if r.IsSuitable(i) {
			mark = "✅"
		}
		fmt.Fprintf(&b, "\n### %d. %s%s%s\n", i+1, star, p.ProductName, suffix)
		fmt.Fprintf(&b, "- **Manufacturer:** %s\n", p.Manufacturer)
		fmt.Fprintf(&b, "- **Category:** %s %s\n", p.Category, mark)
		fmt.Fprintf(&b, "- **Subcategory:** %s\n", p.Subcategory)
		fmt.Fprintf(&b, "- **Product Link:** %s\n", productLink(p, "View Product Page"))
	}

	if r.OriginalProduct >= 0 {
		b.WriteString("\n⭐ = Original product that inspired this search\n")
	}

	return strings.TrimSpace(b.String())
}

// ProductLine is the one-line status of product i used for report parameters.
func ProductLine(r TestReport, i int) string {
	p := r.Products[i]
	if r.IsSuitable(i) {
		return fmt.Sprintf("%s | ✅ SUITABLE | Category matches (%s)", p.ProductName, r.ExpectedCategory)
	}
	return fmt.Sprintf("%s | ❌ UNSUITABLE | Wrong category: %s (Expected: %s)", p.ProductName, p.Category, r.ExpectedCategory)
}
