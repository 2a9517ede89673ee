// Package model defines the resource types shared across the loader,
// registry, hot-reload, and sync-compiler packages. Every resource type
// (prompt, gate, methodology, style, script-tool) is modeled as a tagged
// variant behind the small common Resource struct so that downstream
// packages never need a type switch on raw maps.
package model

import "time"

// Type identifies which of the five resource kinds a Resource is.
type Type string

const (
	TypePrompt      Type = "prompt"
	TypeGate        Type = "gate"
	TypeMethodology Type = "methodology"
	TypeStyle       Type = "style"
	TypeScriptTool  Type = "script-tool"
)

// Plural returns the directory-name plural used under a resources root,
// e.g. TypeGate -> "gates".
func (t Type) Plural() string {
	switch t {
	case TypePrompt:
		return "prompts"
	case TypeGate:
		return "gates"
	case TypeMethodology:
		return "methodologies"
	case TypeStyle:
		return "styles"
	case TypeScriptTool:
		return "script-tools"
	default:
		return string(t) + "s"
	}
}

// RegisterPolicy is the tri-state register_with_protocol field.
type RegisterPolicy int

const (
	RegisterInherit RegisterPolicy = iota
	RegisterTrue
	RegisterFalse
)

// Payload is implemented by each resource type's body. It carries no
// behavior beyond marking the concrete type as a legal Resource payload,
// so Resource.Payload stays a closed variant instead of an `any` escape
// hatch.
type Payload interface {
	isPayload()
}

// Resource is the canonical, fully-loaded, validated unit the rest of
// the subsystem operates on. A Resource value is immutable once
// constructed; replacing it means building a new value and swapping it
// into a registry, never mutating fields in place.
type Resource struct {
	ID       string
	Type     Type
	Category string // only meaningful for TypePrompt

	SourcePaths []string // absolute paths read to build this resource, sorted
	SourceHash  string   // stable digest over sorted source contents

	Enabled        bool
	RegisterPolicy RegisterPolicy

	// SourceRoot records which root (primary or a specific overlay path)
	// this resource was loaded from, for provenance display.
	SourceRoot string

	Payload Payload
}

// QualifiedKey returns the deterministic identifier used by registries:
// "prompt:{category}/{id}" for prompts, "{type}:{id}" for everything
// else.
func (r *Resource) QualifiedKey() string {
	return QualifiedKey(r.Type, r.Category, r.ID)
}

// QualifiedKey builds a qualified key without requiring a Resource value,
// used by callers resolving a key before a load completes.
func QualifiedKey(t Type, category, id string) string {
	if t == TypePrompt {
		if category != "" {
			return "prompt:" + category + "/" + id
		}
		return "prompt:" + id
	}
	return string(t) + ":" + id
}

// RegisteredWithProtocol resolves the tri-state RegisterPolicy against a
// category default, per spec: for prompts, register_with_protocol
// inherits from the category's default unless explicitly set.
func (r *Resource) RegisteredWithProtocol(categoryDefault bool) bool {
	switch r.RegisterPolicy {
	case RegisterTrue:
		return true
	case RegisterFalse:
		return false
	default:
		return categoryDefault
	}
}

// Argument describes one prompt argument.
type Argument struct {
	Name       string
	Type       ArgType
	Required   bool
	Validation string
}

// ArgType is the declared type of a prompt argument.
type ArgType string

const (
	ArgString  ArgType = "string"
	ArgNumber  ArgType = "number"
	ArgBoolean ArgType = "boolean"
	ArgObject  ArgType = "object"
	ArgArray   ArgType = "array"
)

// ChainStep is one step of a prompt's chain.
type ChainStep struct {
	PromptID      string
	StepName      string
	InputMapping  map[string]string // external name -> step-output name
	OutputMapping map[string]string // step-output name -> exported name
	Retries       int
}

// PromptPayload is the body of a prompt resource.
type PromptPayload struct {
	SystemMessage       string
	UserMessageTemplate string
	Arguments           []Argument
	Chain               []ChainStep
	Gate                *PromptGateConfig
	ScriptTools         []string
}

func (PromptPayload) isPayload() {}

// PromptGateConfig is the gate-configuration block embedded in a prompt.
type PromptGateConfig struct {
	GateIDs      []string
	RequireAll   bool
	RetryOnFail  bool
	MaxRetries   int
}

// GateKind distinguishes validation gates (hard pass/fail) from
// guidance gates (advisory).
type GateKind string

const (
	GateValidation GateKind = "validation"
	GateGuidance   GateKind = "guidance"
)

// GateScope is where a gate applies.
type GateScope string

const (
	ScopeExecution GateScope = "execution"
	ScopeSession   GateScope = "session"
	ScopeChain     GateScope = "chain"
	ScopeStep      GateScope = "step"
)

// Criterion is one typed pass-criterion record.
type Criterion struct {
	Type        string
	Description string
	Params      map[string]string
}

// RetryPolicy controls gate retry behavior.
type RetryPolicy struct {
	MaxRetries int
	BackoffMs  int
}

// GatePayload is the body of a gate resource.
type GatePayload struct {
	Name         string
	GateType     GateKind
	Severity     string
	Description  string
	Guidance     string // inlined from guidance.md, guidanceFile stripped
	PassCriteria []Criterion
	RetryPolicy  *RetryPolicy
	Scope        GateScope
	ExpiresAt    *time.Time
}

func (GatePayload) isPayload() {}

// Phase is one phase of a methodology.
type Phase struct {
	Name        string
	Description string
	Steps       []string
}

// MethodologyPayload is the body of a methodology resource.
type MethodologyPayload struct {
	MethodType           string
	Version              string
	Phases               []Phase
	SystemPromptGuidance string // inline or inlined from referenced file
	Gates                []string
}

func (MethodologyPayload) isPayload() {}

// EnhancementMode controls how a style's guidance combines with a
// prompt's own content.
type EnhancementMode string

const (
	EnhancePrepend EnhancementMode = "prepend"
	EnhanceAppend  EnhancementMode = "append"
	EnhanceReplace EnhancementMode = "replace"
)

// StylePayload is the body of a style resource.
type StylePayload struct {
	Priority      int
	Mode          EnhancementMode
	Compatibility []string
	Guidance      string
}

func (StylePayload) isPayload() {}

// ScriptToolPayload is the body of a script-tool resource.
type ScriptToolPayload struct {
	Runtime     string
	Script      string
	InputSchema map[string]any
}

func (ScriptToolPayload) isPayload() {}
