package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/offload/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Buffer   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nBuffer:\n")
	for _, line := range strings.Split(strings.TrimRight(e.Buffer, "\n"), "\n") {
		fmt.Fprintf(&buf, "  | %s\n", line)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against the final state and
// returns one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Buffer: result.Buffer}
	}

	switch a.Type {
	case AssertEntryCount:
		if n := len(result.Entries); n != a.Count {
			return fail(fmt.Sprintf("%d entries", a.Count), fmt.Sprintf("%d entries", n))
		}
	case AssertBufferContains:
		if !strings.Contains(result.Buffer, a.Text) {
			return fail(fmt.Sprintf("buffer containing %q", a.Text), "not found")
		}
	case AssertBufferNotContains:
		if strings.Contains(result.Buffer, a.Text) {
			return fail(fmt.Sprintf("buffer without %q", a.Text), "found")
		}
	case AssertOwnerCount:
		n := 0
		for _, e := range result.Entries {
			if e.Owner == ir.TxID(a.Tx) {
				n++
			}
		}
		if n != a.Count {
			return fail(fmt.Sprintf("%d entries owned by %q", a.Count, a.Tx), fmt.Sprintf("%d", n))
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
