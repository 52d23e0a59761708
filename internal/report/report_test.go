package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbenliogludev/boardbot-e2e/internal/boardbot"
)

func product(name, category, url string) boardbot.ProductInfo {
	return boardbot.ProductInfo{
		ProductName:  name,
		Manufacturer: "Vadatech",
		Category:     category,
		Subcategory:  "Processor",
		MoreInfoURL:  url,
	}
}

func TestGenerate_MixedCategories(t *testing.T) {
	r := Generate("find amc", []boardbot.ProductInfo{
		product("AMC523", "AdvancedMC", "N/A"),
		product("UTC004", "MicroTCA", "N/A"),
	}, "AdvancedMC", "")

	assert.Equal(t, 2, r.TotalResults)
	assert.Equal(t, 1, r.SuitableProducts)
	assert.Equal(t, 1, r.UnsuitableProducts)
	assert.Equal(t, -1, r.OriginalProduct)
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, `⚠️ WARNING: Product #2 "UTC004" has category "MicroTCA" (Expected: AdvancedMC)`, r.Warnings[0])
}

func TestGenerate_CaseInsensitive(t *testing.T) {
	r := Generate("q", []boardbot.ProductInfo{product("x", "advancedmc", "N/A")}, "AdvancedMC", "")
	assert.Equal(t, 1, r.SuitableProducts)
	assert.Empty(t, r.Warnings)
}

func TestGenerate_SubstringContainment(t *testing.T) {
	r := Generate("q", []boardbot.ProductInfo{product("x", "AdvancedMC Carrier", "N/A")}, "advancedmc", "")
	assert.Equal(t, 1, r.SuitableProducts)
}

func TestGenerate_OriginalProduct(t *testing.T) {
	products := []boardbot.ProductInfo{
		product("A", "AdvancedMC", "https://site/other"),
		product("B", "AdvancedMC", "https://site/amc523"),
		product("C", "AdvancedMC", "https://site/amc523-rev2"),
	}

	r := Generate("q", products, "AdvancedMC", "amc523")
	assert.Equal(t, 1, r.OriginalProduct, "first qualifying product wins")

	r = Generate("q", products, "AdvancedMC", "amc999")
	assert.Equal(t, -1, r.OriginalProduct)

	r = Generate("q", products, "AdvancedMC", "")
	assert.Equal(t, -1, r.OriginalProduct)
}

func TestGenerate_Empty(t *testing.T) {
	r := Generate("q", nil, "AdvancedMC", "amc523")
	assert.Zero(t, r.TotalResults)
	assert.Zero(t, r.SuitableProducts)
	assert.Zero(t, r.UnsuitableProducts)
	assert.Equal(t, -1, r.OriginalProduct)
	assert.NotNil(t, r.Products)
}

func TestGenerate_CountsAlwaysAddUp(t *testing.T) {
	categories := []string{"AdvancedMC", "advancedmc", "MicroTCA", "", "N/A", "ADVANCEDMC module", "COM-HPC"}
	for n := 0; n < 40; n++ {
		var products []boardbot.ProductInfo
		for i := 0; i < n; i++ {
			products = append(products, product(fmt.Sprint(i), categories[(i*7+n)%len(categories)], "N/A"))
		}
		r := Generate("q", products, "AdvancedMC", "")
		assert.Equal(t, r.TotalResults, r.SuitableProducts+r.UnsuitableProducts)
		assert.Len(t, r.Warnings, r.UnsuitableProducts)
	}
}

func TestFormatTable(t *testing.T) {
	r := Generate("find amc", []boardbot.ProductInfo{
		product("A very long product name that overflows", "AdvancedMC", "https://www.picmg.org/product/some-really-long-slug-here/"),
		product("UTC004", "MicroTCA", "N/A"),
	}, "AdvancedMC", "")

	out := FormatTable(r)
	assert.Contains(t, out, "TEST REPORT")
	assert.Contains(t, out, "✅ Suitable Products (AdvancedMC): 1")
	assert.Contains(t, out, "│ A very long produ │")
	assert.NotContains(t, out, "A very long product")
	assert.Contains(t, out, "│ https://www.picmg.org/product/some-reall │")
	assert.Contains(t, out, "│ UTC004 ")
	assert.Contains(t, out, "Product Name")
	assert.NotContains(t, out, "\x1b[", "grid must stay plain text")
	assert.Contains(t, out, "⚠️  WARNINGS:")
	assert.Equal(t, out, FormatTable(r))
}

func TestFormatMarkdown(t *testing.T) {
	r := Generate("find amc", []boardbot.ProductInfo{
		product("AMC523", "AdvancedMC", "https://site/amc523"),
		product("UTC004", "MicroTCA", "N/A"),
	}, "AdvancedMC", "amc523")

	md := FormatMarkdown(r)
	assert.True(t, strings.HasPrefix(md, "# Test Report\n\n## Prompt\nfind amc\n"))
	assert.Contains(t, md, "- **⭐ Original Product Found**: Yes (Product #1)")
	assert.Contains(t, md, "| 1 | ⭐ AMC523 | Vadatech | AdvancedMC | Processor | [🔗 View Product](https://site/amc523) |")
	assert.Contains(t, md, "| 2 | UTC004 | Vadatech | MicroTCA | Processor | N/A |")
	assert.Contains(t, md, "## ⚠️ Warnings")
	assert.Contains(t, md, "⭐ = Original product that inspired this search")
}

func TestFormatJSON(t *testing.T) {
	r := Generate("q", []boardbot.ProductInfo{product("A", "AdvancedMC", "N/A")}, "AdvancedMC", "")
	out, err := FormatJSON(r)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.EqualValues(t, 1, decoded["totalResults"])
	assert.EqualValues(t, -1, decoded["originalProduct"])
}

func TestFormatSummary(t *testing.T) {
	r := Generate("q", []boardbot.ProductInfo{
		product("A", "AdvancedMC", "https://site/a"),
		product("B", "MicroTCA", "N/A"),
	}, "AdvancedMC", "")

	s := FormatSummary(r, "AdvancedMC_TC1.1", 9500*time.Millisecond)
	assert.Contains(t, s, "# 📈 TEST RESULTS SUMMARY - AdvancedMC_TC1.1")
	assert.Contains(t, s, "9.50 seconds ✅ (Normal)")
	assert.Contains(t, s, "- **Category:** MicroTCA ⚠️")
	assert.Contains(t, s, "[🔗 View Product Page](https://site/a)")
}

func TestProductLine(t *testing.T) {
	r := Generate("q", []boardbot.ProductInfo{
		product("A", "AdvancedMC", "N/A"),
		product("B", "MicroTCA", "N/A"),
	}, "AdvancedMC", "")

	assert.Equal(t, "A | ✅ SUITABLE | Category matches (AdvancedMC)", ProductLine(r, 0))
	assert.Equal(t, "B | ❌ UNSUITABLE | Wrong category: MicroTCA (Expected: AdvancedMC)", ProductLine(r, 1))
}

func TestFormatHTML(t *testing.T) {
	r := Generate("q", []boardbot.ProductInfo{product("A", "AdvancedMC", "https://site/a")}, "AdvancedMC", "")
	out, err := FormatHTML(r, "AdvancedMC <TC1.1>")
	require.NoError(t, err)

	assert.Contains(t, out, "<title>AdvancedMC &lt;TC1.1&gt;</title>")
	assert.Contains(t, out, "<h1>Test Report</h1>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, `<a href="https://site/a">`)
}

func TestLatencyClass(t *testing.T) {
	assert.Equal(t, LatencyFast, LatencyClass(7999*time.Millisecond))
	assert.Equal(t, LatencyNormal, LatencyClass(8*time.Second))
	assert.Equal(t, LatencyNormal, LatencyClass(14999*time.Millisecond))
	assert.Equal(t, LatencySlow, LatencyClass(15*time.Second))
}
