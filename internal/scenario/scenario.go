package scenario

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/samber/lo"
)

// DefaultMaxProducts is how many result rows a scenario reads when it does
// not say otherwise.
const DefaultMaxProducts = 5

// Scenario is one search prompt run against BoardBot.
type Scenario struct {
	ID               string   `toml:"id" validate:"required"`
	Group            string   `toml:"group,omitempty"`
	Title            string   `toml:"title"`
	Prompt           string   `toml:"prompt" validate:"required"`
	ExpectedCategory string   `toml:"expected_category,omitempty" validate:"required_unless=Exploratory true"`
	ReferenceSlug    string   `toml:"reference_slug,omitempty"`
	MaxProducts      int      `toml:"max_products,omitempty" validate:"gte=0,lte=50"`
	AIValidation     bool     `toml:"ai_validation,omitempty"`
	Keywords         []string `toml:"keywords,omitempty"`
	Tags             []string `toml:"tags,omitempty"`
	Owner            string   `toml:"owner,omitempty"`
	Story            string   `toml:"story,omitempty"`
	Severity         string   `toml:"severity,omitempty" validate:"omitempty,oneof=blocker critical normal minor trivial"`

	// Exploratory scenarios only require a non-empty result; category
	// mismatches are reported but never fail the run.
	Exploratory bool `toml:"exploratory,omitempty"`
}

// FullName is stable across runs and identifies the scenario in result history.
func (s Scenario) FullName() string {
	return "boardbot/" + s.Group + "/" + s.ID
}

// Description renders the test objective shown in reports.
func (s Scenario) Description() string {
	var b strings.Builder
	b.WriteString("**Test Objective:** " + s.Title + "\n\n")
	b.WriteString("**Search Query:**\n" + s.Prompt + "\n\n")
	b.WriteString("**Validation:**\n")
	fmt.Fprintf(&b, "- Extract up to %d products\n", s.MaxProducts)
	if s.Exploratory {
		b.WriteString("- At least one product returned\n")
	} else {
		fmt.Fprintf(&b, "- Verify category matches: %s\n", s.ExpectedCategory)
	}
	if s.ReferenceSlug != "" {
		fmt.Fprintf(&b, "- Look for the original product `%s`\n", s.ReferenceSlug)
	}
	return b.String()
}

var validate = validator.New()

type file struct {
	Scenarios []Scenario `toml:"scenario"`
}

// Load reads a scenario catalog from disk.
func Load(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}
	list, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

// Parse decodes and validates a catalog, filling defaults.
func Parse(data []byte) ([]Scenario, error) {
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	seen := make(map[string]bool, len(f.Scenarios))
	for i := range f.Scenarios {
		s := &f.Scenarios[i]
		s.Prompt = strings.TrimSpace(s.Prompt)
		if err := validate.Struct(s); err != nil {
			name := s.ID
			if name == "" {
				name = fmt.Sprintf("#%d", i+1)
			}
			return nil, fmt.Errorf("scenario %s: %w", name, err)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("scenario %s: duplicate id", s.ID)
		}
		seen[s.ID] = true

		if s.MaxProducts == 0 {
			s.MaxProducts = DefaultMaxProducts
		}
		if s.Group == "" {
			s.Group, _, _ = strings.Cut(s.ID, "_")
		}
		if s.Title == "" {
			s.Title = s.ID
		}
	}
	return f.Scenarios, nil
}

// Filter keeps scenarios whose id or group matches pattern. An empty
// pattern keeps everything; matching is case-insensitive and accepts a
// group name, an exact id or an id prefix.
func Filter(list []Scenario, pattern string) []Scenario {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return list
	}
	return lo.Filter(list, func(s Scenario, _ int) bool {
		id := strings.ToLower(s.ID)
		return strings.ToLower(s.Group) == pattern || strings.HasPrefix(id, pattern)
	})
}

// Find returns the scenario with the given id.
func Find(list []Scenario, id string) (Scenario, bool) {
	return lo.Find(list, func(s Scenario) bool { return s.ID == id })
}

// Groups lists scenario groups in catalog order.
func Groups(list []Scenario) []string {
	return lo.Uniq(lo.Map(list, func(s Scenario, _ int) string { return s.Group }))
}

// SetOwner rewrites the owner of the listed scenarios (all of them when ids
// is empty) and saves the catalog. The file is edited line by line so
// comments and formatting survive. It returns the ids that changed.
func SetOwner(path, owner string, ids ...string) ([]string, error) {
	if strings.IndexFunc(owner, unicode.IsControl) >= 0 {
		return nil, fmt.Errorf("owner %q contains control characters", owner)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	for _, id := range ids {
		if !lo.ContainsBy(f.Scenarios, func(s Scenario) bool { return s.ID == id }) {
			return nil, fmt.Errorf("unknown scenario %q", id)
		}
	}

	var changed []string
	for _, s := range f.Scenarios {
		if len(ids) > 0 && !lo.Contains(ids, s.ID) {
			continue
		}
		if s.Owner != owner {
			changed = append(changed, s.ID)
		}
	}
	if len(changed) == 0 {
		return nil, nil
	}

	out, err := rewriteOwners(string(data), owner, changed)
	if err != nil {
		return nil, err
	}
	var check file
	if err := toml.Unmarshal([]byte(out), &check); err != nil {
		return nil, fmt.Errorf("rewritten catalog is not valid TOML: %w", err)
	}

	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write scenarios: %w", err)
	}
	return changed, nil
}

// block locates the id and owner lines of one [[scenario]] table.
type block struct {
	id        string
	idLine    int
	ownerLine int
}

func rewriteOwners(src, owner string, ids []string) (string, error) {
	lines := strings.Split(src, "\n")
	ownerKV := fmt.Sprintf("owner = %q", owner)

	var blocks []*block
	var cur *block
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "[[scenario]]":
			cur = &block{idLine: -1, ownerLine: -1}
			blocks = append(blocks, cur)
			continue
		case strings.HasPrefix(trimmed, "["):
			cur = nil
			continue
		case cur == nil:
			continue
		}

		switch key, value, ok := keyValue(line); {
		case !ok:
		case key == "id":
			cur.id, cur.idLine = value, i
		case key == "owner":
			cur.ownerLine = i
		}
	}

	var inserts []int
	for _, id := range ids {
		b, ok := lo.Find(blocks, func(b *block) bool { return b.id == id })
		if !ok {
			return "", fmt.Errorf("scenario %q has no id line in the catalog", id)
		}
		if b.ownerLine >= 0 {
			line := lines[b.ownerLine]
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			lines[b.ownerLine] = indent + ownerKV
			continue
		}
		inserts = append(inserts, b.idLine)
	}

	// insert bottom-up so earlier line numbers stay valid
	slices.SortFunc(inserts, func(a, b int) int { return b - a })
	for _, at := range inserts {
		lines = slices.Insert(lines, at+1, ownerKV)
	}
	return strings.Join(lines, "\n"), nil
}

// keyValue decodes a single `key = value` line with a string value.
func keyValue(line string) (string, string, bool) {
	k, _, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key := strings.TrimSpace(k)
	if key != "id" && key != "owner" {
		return "", "", false
	}
	var kv map[string]string
	if err := toml.Unmarshal([]byte(line), &kv); err != nil {
		return "", "", false
	}
	return key, kv[key], true
}
