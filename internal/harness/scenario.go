package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/offload/internal/ir"
)

// Scenario is one scripted session.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Profile overrides the default toolchain profile.
	Profile *ProfileOverrides `yaml:"profile,omitempty"`

	// Steps run in order against one engine.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final engine state.
	Assertions []Assertion `yaml:"assertions"`
}

// ProfileOverrides replaces selected profile fields. Empty fields keep the
// default.
type ProfileOverrides struct {
	FrontEnd    string   `yaml:"frontend,omitempty"`
	Layout      string   `yaml:"layout,omitempty"`
	DeviceFlags []string `yaml:"device_flags,omitempty"`
	HostArgs    []string `yaml:"host_args,omitempty"`
}

// Step is one host action. Exactly one field is set.
type Step struct {
	Submit          *SubmitStep `yaml:"submit,omitempty"`
	Bind            *TxStep     `yaml:"bind,omitempty"`
	Commit          *TxStep     `yaml:"commit,omitempty"`
	Remove          *TxStep     `yaml:"remove,omitempty"`
	Arg             *ArgStep    `yaml:"arg,omitempty"`
	FailNextCompile bool        `yaml:"fail_next_compile,omitempty"`
	FailNextDeclare bool        `yaml:"fail_next_declare,omitempty"`
}

// SubmitStep compiles text.
type SubmitStep struct {
	Text        string `yaml:"text"`
	Kind        string `yaml:"kind,omitempty"`
	Tx          string `yaml:"tx,omitempty"`
	DeclSuccess bool   `yaml:"decl_success,omitempty"`

	// Expect is the outcome: ok (default), compile_failed, declare_failed,
	// reparse_failed, incomplete or busy.
	Expect string `yaml:"expect,omitempty"`
}

// TxStep names a transaction; empty means none.
type TxStep struct {
	Tx string `yaml:"tx,omitempty"`
}

// ArgStep registers a compile argument.
type ArgStep struct {
	Flag  string `yaml:"flag"`
	Value string `yaml:"value,omitempty"`
}

// Assertion validates the final engine state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is used by entry_count and owner_count.
	Count int `yaml:"count,omitempty"`

	// Text is used by buffer_contains and buffer_not_contains.
	Text string `yaml:"text,omitempty"`

	// Tx is used by owner_count.
	Tx string `yaml:"tx,omitempty"`
}

// Assertion type constants.
const (
	AssertEntryCount        = "entry_count"
	AssertBufferContains    = "buffer_contains"
	AssertBufferNotContains = "buffer_not_contains"
	AssertOwnerCount        = "owner_count"
)

// Submission outcomes.
const (
	OutcomeOK            = "ok"
	OutcomeCompileFailed = "compile_failed"
	OutcomeDeclareFailed = "declare_failed"
	OutcomeReparseFailed = "reparse_failed"
	OutcomeIncomplete    = "incomplete"
	OutcomeBusy          = "busy"
)

var validOutcomes = map[string]bool{
	OutcomeOK:            true,
	OutcomeCompileFailed: true,
	OutcomeDeclareFailed: true,
	OutcomeReparseFailed: true,
	OutcomeIncomplete:    true,
	OutcomeBusy:          true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches typos like "assertion:" vs "assertions:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if p := s.Profile; p != nil {
		if p.FrontEnd != "" && !ir.ValidFrontEnds[p.FrontEnd] {
			return fmt.Errorf("profile: unknown frontend %q", p.FrontEnd)
		}
		if p.Layout != "" && !ir.ValidLayouts[p.Layout] {
			return fmt.Errorf("profile: unknown layout %q", p.Layout)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	set := 0
	for _, ok := range []bool{
		s.Submit != nil, s.Bind != nil, s.Commit != nil, s.Remove != nil,
		s.Arg != nil, s.FailNextCompile, s.FailNextDeclare,
	} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one action is required, found %d", index, set)
	}

	switch {
	case s.Submit != nil:
		if _, err := ir.ParseKind(s.Submit.Kind); err != nil {
			return fmt.Errorf("steps[%d].submit: %w", index, err)
		}
		if s.Submit.Expect != "" && !validOutcomes[s.Submit.Expect] {
			return fmt.Errorf("steps[%d].submit: unknown expect %q", index, s.Submit.Expect)
		}
	case s.Arg != nil:
		if s.Arg.Flag == "" {
			return fmt.Errorf("steps[%d].arg: flag is required", index)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertEntryCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for entry_count", index)
		}
	case AssertBufferContains, AssertBufferNotContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertOwnerCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for owner_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
