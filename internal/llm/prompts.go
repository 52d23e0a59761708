package llm

import (
	"fmt"
	"strings"
)

// MaxDescriptionRunes bounds how much of a scraped description goes into a prompt.
const MaxDescriptionRunes = 1000

// RelevanceInput is what the relevance prompt compares.
type RelevanceInput struct {
	ReferenceName        string
	ReferenceCategory    string
	ReferenceDescription string
	Query                string
	ProductName          string
	ProductCategory      string
	ProductDescription   string
}

const relevancePrompt = `You are a PICMG product expert. Analyze if this search result matches what the user wants.

=== REFERENCE PRODUCT (Ground Truth) ===
Name: %s
Category: %s
Full Specification:
%s

=== USER SEARCH QUERY ===
"%s"

=== SEARCH RESULT TO EVALUATE ===
Product: %s
Category: %s
Description:
%s

=== EVALUATION CRITERIA ===
Compare the SEARCH RESULT against the REFERENCE PRODUCT:
1. Category match (exact or compatible subcategory)
2. Key specifications alignment (processor, memory, connectivity, form factor)
3. Feature compatibility (hot-swap, redundancy, cooling)
4. Use case alignment (telecom/industrial/embedded)
5. Query intent satisfaction

=== RESPONSE FORMAT ===
JSON only (no markdown):
{
  "isRelevant": true/false,
  "confidence": 0-100,
  "reasoning": "1-2 sentence technical explanation"
}`

// RelevancePrompt renders the reference-vs-candidate comparison prompt.
func RelevancePrompt(in RelevanceInput) string {
	return fmt.Sprintf(relevancePrompt,
		in.ReferenceName,
		in.ReferenceCategory,
		in.ReferenceDescription,
		in.Query,
		in.ProductName,
		in.ProductCategory,
		Truncate(in.ProductDescription, MaxDescriptionRunes),
	)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ExtractJSONObject returns the first balanced {...} in s, skipping markdown
// fences or prose some models wrap around their answer.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
