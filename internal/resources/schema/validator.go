package schema

import (
	"fmt"
	"regexp"
)

// Result is the outcome of validating one parsed resource value.
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// FirstError returns the first error line, or "" if valid. The loaders
// do not call it; they log every error line joined with "; ".
func (r Result) FirstError() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0]
}

var tokenSafe = regexp.MustCompile(`^[a-z0-9]([a-z0-9_-]*[a-z0-9])?$`)

// ValidID reports whether id is lowercase and token-safe.
func ValidID(id string) bool {
	return tokenSafe.MatchString(id)
}

func newResult() *Result {
	return &Result{Valid: true}
}

func (r *Result) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func checkID(r *Result, id, expectedID string) {
	if id == "" {
		r.fail("id is required")
		return
	}
	if !ValidID(id) {
		r.fail("id %q is not lowercase token-safe", id)
	}
	if expectedID != "" && id != expectedID {
		r.fail("id %q does not match enclosing directory name %q", id, expectedID)
	}
}

// ValidatePrompt validates a parsed prompt.yaml / {id}.yaml value.
// knownPromptIDs, when non-nil, enables the soft cross-reference check
// on chain steps (warnings only, never a hard failure per spec.md §4.2).
func ValidatePrompt(raw *RawPrompt, expectedID string, knownPromptIDs map[string]bool) Result {
	r := newResult()
	checkID(r, raw.ID, expectedID)

	hasIntent := raw.SystemMessage != "" || raw.UserMessage != "" || len(raw.Chain) > 0
	if !hasIntent {
		r.fail("prompt %q needs a userMessage, systemMessage, or chain to supply intent", raw.ID)
	}

	seenArgs := map[string]bool{}
	for i, a := range raw.Arguments {
		if a.Name == "" {
			r.fail("argument[%d]: name is required", i)
		} else if seenArgs[a.Name] {
			r.fail("argument[%d]: duplicate argument name %q", i, a.Name)
		}
		seenArgs[a.Name] = true

		switch a.Type {
		case "string", "number", "boolean", "object", "array":
		default:
			r.fail("argument %q: invalid type %q", a.Name, a.Type)
		}
	}

	for i, step := range raw.Chain {
		if step.PromptID == "" {
			r.fail("chain[%d]: promptId is required", i)
		}
		if step.StepName == "" {
			r.fail("chain[%d]: stepName is required", i)
		}
		if knownPromptIDs != nil && step.PromptID != "" && !knownPromptIDs[step.PromptID] {
			r.warn("chain[%d]: step %q references unknown prompt id %q", i, step.StepName, step.PromptID)
		}
	}

	return *r
}

// ValidateGate validates a parsed gate.yaml value.
func ValidateGate(raw *RawGate, expectedID string) Result {
	r := newResult()
	checkID(r, raw.ID, expectedID)

	if raw.Name == "" {
		r.fail("name is required")
	}
	switch raw.Type {
	case "validation", "guidance":
	default:
		r.fail("type must be 'validation' or 'guidance', got %q", raw.Type)
	}

	switch raw.Scope {
	case "", "execution", "session", "chain", "step":
	default:
		r.fail("scope must be one of execution/session/chain/step, got %q", raw.Scope)
	}

	for i, c := range raw.PassCriteria {
		if c.Type == "" {
			r.fail("passCriteria[%d]: type is required", i)
		}
	}

	if raw.RetryPolicy != nil && raw.RetryPolicy.MaxRetries < 0 {
		r.fail("retryPolicy.maxRetries cannot be negative")
	}

	return *r
}

// ValidateMethodology validates a parsed methodology.yaml value. phases
// is the separately-loaded phases.yaml content (nil if absent).
func ValidateMethodology(raw *RawMethodology, phases *RawPhasesFile, expectedID string) Result {
	r := newResult()
	checkID(r, raw.ID, expectedID)

	if raw.Type == "" {
		r.fail("type is required")
	}
	if raw.Version == "" {
		r.fail("version is required")
	}

	if phases != nil {
		for i, p := range phases.Phases {
			if p.Name == "" {
				r.fail("phases[%d]: name is required", i)
			}
		}
	}

	return *r
}

// ValidateStyle validates a parsed style.yaml value.
func ValidateStyle(raw *RawStyle, expectedID string) Result {
	r := newResult()
	checkID(r, raw.ID, expectedID)

	switch raw.Mode {
	case "prepend", "append", "replace":
	default:
		r.fail("mode must be one of prepend/append/replace, got %q", raw.Mode)
	}

	return *r
}

// ValidateScriptTool validates a parsed tool.yaml value.
func ValidateScriptTool(raw *RawScriptTool, expectedID string) Result {
	r := newResult()
	checkID(r, raw.ID, expectedID)

	if raw.Runtime == "" {
		r.fail("runtime is required")
	}

	return *r
}
