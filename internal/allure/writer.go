package allure

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Writer emits Allure 2 results into one directory.
type Writer struct {
	Dir string
}

func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create allure results dir: %w", err)
	}
	return &Writer{Dir: dir}, nil
}

func millis(t time.Time) int64 { return t.UnixMilli() }

func (w *Writer) writeJSON(name string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(w.Dir, name), b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// WriteEnvironment writes environment.properties, keys sorted.
func (w *Writer) WriteEnvironment(env map[string]string) error {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		// properties format: spaces in keys must be escaped
		fmt.Fprintf(&b, "%s=%s\n", strings.ReplaceAll(k, " ", `\ `), env[k])
	}
	if err := os.WriteFile(filepath.Join(w.Dir, "environment.properties"), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write environment.properties: %w", err)
	}
	return nil
}

func (w *Writer) WriteCategories(categories []Category) error {
	return w.writeJSON("categories.json", categories)
}

// Test records one test case. Steps nest: attachments and parameters added
// while a step is running belong to that step.
type Test struct {
	w      *Writer
	mu     sync.Mutex
	result *Result
	stack  []*Step
	now    func() time.Time
}

// Start begins a test result. fullName should be stable across runs since
// the history id is derived from it.
func (w *Writer) Start(name, fullName string) *Test {
	now := time.Now
	sum := md5.Sum([]byte(fullName))
	return &Test{
		w:   w,
		now: now,
		result: &Result{
			UUID:        uuid.NewString(),
			HistoryID:   hex.EncodeToString(sum[:]),
			TestCaseID:  hex.EncodeToString(sum[:]),
			Name:        name,
			FullName:    fullName,
			Stage:       "running",
			Start:       millis(now()),
			Labels:      []Label{{Name: "framework", Value: "go"}, {Name: "language", Value: "go"}},
			Parameters:  []Parameter{},
			Links:       []Link{},
			Attachments: []Attachment{},
			Steps:       []*Step{},
		},
	}
}

// UUID is the result id, also the prefix of the result file.
func (t *Test) UUID() string { return t.result.UUID }

func (t *Test) Label(name, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.result.Labels = append(t.result.Labels, Label{Name: name, Value: value})
}

func (t *Test) Epic(v string)       { t.Label("epic", v) }
func (t *Test) Feature(v string)    { t.Label("feature", v) }
func (t *Test) Story(v string)      { t.Label("story", v) }
func (t *Test) Tag(v string)        { t.Label("tag", v) }
func (t *Test) Owner(v string)      { t.Label("owner", v) }
func (t *Test) Suite(v string)      { t.Label("suite", v) }
func (t *Test) Severity(v Severity) { t.Label("severity", string(v)) }

func (t *Test) Description(markdown string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.result.Description = markdown
}

// Issue links a problem found during the run.
func (t *Test) Issue(name, url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.result.Links = append(t.result.Links, Link{Name: name, URL: url, Type: "issue"})
}

// Parameter adds a name/value pair to the current step, or the test itself.
func (t *Test) Parameter(name, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := Parameter{Name: name, Value: value}
	if s := t.current(); s != nil {
		s.Parameters = append(s.Parameters, p)
		return
	}
	t.result.Parameters = append(t.result.Parameters, p)
}

func (t *Test) current() *Step {
	if len(t.stack) == 0 {
		return nil
	}
	return t.stack[len(t.stack)-1]
}

var extensions = map[string]string{
	TypeText:     "txt",
	TypeMarkdown: "md",
	TypeHTML:     "html",
	TypeJSON:     "json",
	TypePNG:      "png",
	TypeWebM:     "webm",
}

// Attach writes data as an attachment file and links it to the current step.
func (t *Test) Attach(name, contentType string, data []byte) error {
	ext, ok := extensions[contentType]
	if !ok {
		ext = "bin"
	}
	source := fmt.Sprintf("%s-attachment.%s", uuid.NewString(), ext)
	if err := os.WriteFile(filepath.Join(t.w.Dir, source), data, 0o644); err != nil {
		return fmt.Errorf("write attachment %q: %w", name, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	a := Attachment{Name: name, Source: source, Type: contentType}
	if s := t.current(); s != nil {
		s.Attachments = append(s.Attachments, a)
		return nil
	}
	t.result.Attachments = append(t.result.Attachments, a)
	return nil
}

func (t *Test) AttachText(name, contentType, text string) error {
	return t.Attach(name, contentType, []byte(text))
}

// AttachFile copies a file on disk (a recorded video, say) into the results.
func (t *Test) AttachFile(name, contentType, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read attachment %s: %w", path, err)
	}
	return t.Attach(name, contentType, data)
}

// Step runs fn as a named step. A returned error fails the step and is
// passed through.
func (t *Test) Step(name string, fn func() error) error {
	t.mu.Lock()
	step := &Step{
		Name:        name,
		Stage:       "running",
		Start:       millis(t.now()),
		Steps:       []*Step{},
		Attachments: []Attachment{},
		Parameters:  []Parameter{},
	}
	if parent := t.current(); parent != nil {
		parent.Steps = append(parent.Steps, step)
	} else {
		t.result.Steps = append(t.result.Steps, step)
	}
	t.stack = append(t.stack, step)
	t.mu.Unlock()

	err := fn()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.stack = t.stack[:len(t.stack)-1]
	step.Stop = millis(t.now())
	step.Stage = "finished"
	step.Status = StatusPassed
	if err != nil {
		step.Status = StatusFailed
		step.StatusDetails = &StatusDetails{Message: err.Error()}
	}
	return err
}

// Finish closes the test with the given outcome and writes the result file.
func (t *Test) Finish(err error) (string, error) {
	return t.finish(err, "")
}

// FinishSkipped records a skipped test.
func (t *Test) FinishSkipped(reason string) (string, error) {
	return t.finish(nil, reason)
}

func (t *Test) finish(err error, skipReason string) (string, error) {
	t.mu.Lock()
	r := t.result
	r.Stop = millis(t.now())
	r.Stage = "finished"
	switch {
	case skipReason != "":
		r.Status = StatusSkipped
		r.StatusDetails = &StatusDetails{Message: skipReason}
	case err != nil:
		r.Status = StatusFailed
		r.StatusDetails = &StatusDetails{Message: err.Error(), Trace: fmt.Sprintf("%+v", err)}
	default:
		r.Status = StatusPassed
	}
	t.mu.Unlock()

	name := r.UUID + "-result.json"
	if err := t.w.writeJSON(name, r); err != nil {
		return "", err
	}
	return filepath.Join(t.w.Dir, name), nil
}
