// Package schema defines the on-disk YAML shapes for each resource type
// and the pure, filesystem-free validators that check them (spec.md C2).
// Validators take an already-parsed value and the expected id; they
// never touch disk.
package schema

// RawArgument mirrors one entry of a prompt's argument list.
type RawArgument struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Required   bool   `yaml:"required"`
	Validation string `yaml:"validation,omitempty"`
}

// RawChainStep mirrors one chain-step entry.
type RawChainStep struct {
	PromptID string            `yaml:"promptId"`
	StepName string            `yaml:"stepName"`
	Input    map[string]string `yaml:"input,omitempty"`
	Output   map[string]string `yaml:"output,omitempty"`
	Retries  int               `yaml:"retries,omitempty"`
}

// RawPromptGate mirrors a prompt's embedded gate-configuration block.
type RawPromptGate struct {
	GateIDs     []string `yaml:"gateIds,omitempty"`
	RequireAll  bool     `yaml:"requireAll,omitempty"`
	RetryOnFail bool     `yaml:"retryOnFail,omitempty"`
	MaxRetries  int      `yaml:"maxRetries,omitempty"`
}

// RawPrompt mirrors prompt.yaml / {id}.yaml.
type RawPrompt struct {
	ID                   string          `yaml:"id"`
	Name                 string          `yaml:"name,omitempty"`
	SystemMessage        string          `yaml:"systemMessage,omitempty"`
	UserMessage          string          `yaml:"userMessage,omitempty"`
	Arguments            []RawArgument   `yaml:"arguments,omitempty"`
	Chain                []RawChainStep  `yaml:"chain,omitempty"`
	Gate                 *RawPromptGate  `yaml:"gate,omitempty"`
	Tools                []string        `yaml:"tools,omitempty"`
	Enabled              *bool           `yaml:"enabled,omitempty"`
	RegisterWithProtocol *bool           `yaml:"registerWithProtocol,omitempty"`
}

// RawCategory mirrors an optional category.yaml.
type RawCategory struct {
	Name                        string `yaml:"name,omitempty"`
	Description                 string `yaml:"description,omitempty"`
	DefaultRegisterWithProtocol *bool  `yaml:"defaultRegisterWithProtocol,omitempty"`
}

// RawCriterion mirrors one pass-criterion record.
type RawCriterion struct {
	Type        string            `yaml:"type"`
	Description string            `yaml:"description,omitempty"`
	Params      map[string]string `yaml:"params,omitempty"`
}

// RawRetryPolicy mirrors a gate's optional retry policy.
type RawRetryPolicy struct {
	MaxRetries int `yaml:"maxRetries"`
	BackoffMs  int `yaml:"backoffMs,omitempty"`
}

// RawGate mirrors gate.yaml.
type RawGate struct {
	ID           string         `yaml:"id"`
	Name         string         `yaml:"name"`
	Type         string         `yaml:"type"`
	Severity     string         `yaml:"severity,omitempty"`
	Description  string         `yaml:"description,omitempty"`
	GuidanceFile string         `yaml:"guidanceFile,omitempty"`
	PassCriteria []RawCriterion `yaml:"passCriteria,omitempty"`
	RetryPolicy  *RawRetryPolicy `yaml:"retryPolicy,omitempty"`
	Scope        string         `yaml:"scope,omitempty"`
	ExpiresAt    string         `yaml:"expiresAt,omitempty"`
	Enabled      *bool          `yaml:"enabled,omitempty"`
}

// RawPhase mirrors one methodology phase.
type RawPhase struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Steps       []string `yaml:"steps,omitempty"`
}

// RawMethodology mirrors methodology.yaml (phases.yaml and
// system-prompt.md are inlined separately by the loader).
type RawMethodology struct {
	ID      string   `yaml:"id"`
	Type    string   `yaml:"type"`
	Version string   `yaml:"version"`
	Gates   []string `yaml:"gates,omitempty"`
	Enabled *bool    `yaml:"enabled,omitempty"`
}

// RawPhasesFile mirrors phases.yaml.
type RawPhasesFile struct {
	Phases []RawPhase `yaml:"phases"`
}

// RawStyle mirrors style.yaml.
type RawStyle struct {
	ID            string   `yaml:"id"`
	Priority      int      `yaml:"priority"`
	Mode          string   `yaml:"mode"`
	Compatibility []string `yaml:"compatibility,omitempty"`
	Enabled       *bool    `yaml:"enabled,omitempty"`
}

// RawScriptTool mirrors tool.yaml under a prompt's tools/{tool_id}/.
type RawScriptTool struct {
	ID          string         `yaml:"id"`
	Runtime     string         `yaml:"runtime"`
	Script      string         `yaml:"script,omitempty"` // inline or filename
	InputSchema map[string]any `yaml:"inputSchema,omitempty"`
	Enabled     *bool          `yaml:"enabled,omitempty"`
}
