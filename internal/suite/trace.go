package suite

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Trace records the steps of one run and prints them as an execution report.
type Trace struct {
	out   io.Writer
	id    string
	lines []string
}

func newTrace(out io.Writer, id string) *Trace {
	return &Trace{out: out, id: id}
}

func (t *Trace) step(n int, name string, elapsed time.Duration, err error) {
	status := "OK"
	if err != nil {
		status = "FAILED: " + firstLine(err.Error())
	}
	t.lines = append(t.lines, fmt.Sprintf("STEP %d | %s | %s | %s", n, name, elapsed.Truncate(time.Millisecond), status))
}

func (t *Trace) print(start time.Time, err error) {
	fmt.Fprintln(t.out, "\n===== EXECUTION REPORT =====")
	fmt.Fprintf(t.out, "Scenario: %s\n", t.id)
	fmt.Fprintf(t.out, "Duration: %s\n\n", time.Since(start).Truncate(time.Millisecond))

	if len(t.lines) == 0 {
		fmt.Fprintln(t.out, "(no steps recorded)")
	}
	for _, l := range t.lines {
		fmt.Fprintln(t.out, l)
	}

	if err != nil {
		fmt.Fprintf(t.out, "\nFINAL STATUS: ERROR: %v\n", err)
	} else {
		fmt.Fprintln(t.out, "\nFINAL STATUS: SUCCESS")
	}
	fmt.Fprintln(t.out, "===== END OF REPORT =====")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
