package sync

// Family distinguishes the two adapter strategies clients use.
type Family string

const (
	FamilyProtocolNative Family = "protocol-native"
	FamilyPortableSkills Family = "portable-skills"
)

// Scope selects a client's user-level or project-level output directory.
type Scope string

const (
	ScopeUser    Scope = "user"
	ScopeProject Scope = "project"
)

// Capabilities are the auxiliary-file kinds a client accepts alongside
// its main skill file.
type Capabilities struct {
	Scripts    bool
	References bool
	Assets     bool
}

// Client describes one supported export target: its adapter family,
// variant tag (for per-variant frontmatter differences within a
// family), capability flags, and default output directories.
type Client struct {
	ID                      string
	Name                    string
	Family                  Family
	Variant                 string
	Capabilities            Capabilities
	DefaultOutputDirUser    string
	DefaultOutputDirProject string
}

// BuiltinClients is the built-in client registry (spec.md §4.10 step 1).
// claude-code is protocol-native; cursor and windsurf are portable-skills
// variants with different frontmatter needs, grounded in how the two
// adapter families are described in spec.md §4.10.
func BuiltinClients() []Client {
	return []Client{
		{
			ID:                      "claude-code",
			Name:                    "Claude Code",
			Family:                  FamilyProtocolNative,
			Variant:                 "skill-md",
			Capabilities:            Capabilities{Scripts: true, References: true, Assets: false},
			DefaultOutputDirUser:    "~/.claude/skills",
			DefaultOutputDirProject: ".claude/skills",
		},
		{
			ID:                      "cursor",
			Name:                    "Cursor",
			Family:                  FamilyPortableSkills,
			Variant:                 "always-apply",
			Capabilities:            Capabilities{Scripts: false, References: true, Assets: false},
			DefaultOutputDirUser:    "~/.cursor/rules",
			DefaultOutputDirProject: ".cursor/rules",
		},
		{
			ID:                      "windsurf",
			Name:                    "Windsurf",
			Family:                  FamilyPortableSkills,
			Variant:                 "plain",
			Capabilities:            Capabilities{Scripts: false, References: false, Assets: false},
			DefaultOutputDirUser:    "~/.windsurf/rules",
			DefaultOutputDirProject: ".windsurf/rules",
		},
	}
}

// FindClient looks up a built-in client by id.
func FindClient(id string) (Client, bool) {
	for _, c := range BuiltinClients() {
		if c.ID == id {
			return c, true
		}
	}
	return Client{}, false
}
