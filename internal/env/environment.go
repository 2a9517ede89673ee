// Package env assembles the explicit dependency-injection graph that
// replaces a singleton "default loader" (spec.md §9 DESIGN NOTES): one
// Loader and one Registry per resource type, the directories the Hot-Reload
// Manager should watch, and the config each of those was built from. cmd/promptd and cmd/skills-sync both construct an Environment at
// startup; tests construct their own pointed at t.TempDir() roots.
package env

import (
	"context"
	"fmt"

	"github.com/ternarybob/promptd/internal/config"
	"github.com/ternarybob/promptd/internal/resources/loader"
	"github.com/ternarybob/promptd/internal/resources/model"
	"github.com/ternarybob/promptd/internal/resources/paths"
	"github.com/ternarybob/promptd/internal/resources/registry"
	"github.com/ternarybob/promptd/internal/resources/reload"
)

// Environment is the fully-wired dependency graph for one process.
type Environment struct {
	Config     *config.Config
	Registries map[model.Type]*registry.Registry
	Roots      map[model.Type][]string
}

// New resolves roots for every resource type via the Path Resolver,
// constructs a Loader and Registry for each, and loads them. It does not
// start the File Observer or Hot-Reload Manager -- callers that need hot
// reload obtain reload.Registration entries from ReloadRegistrations.
func New(cfg *config.Config) (*Environment, error) {
	env := &Environment{
		Config:     cfg,
		Registries: make(map[model.Type]*registry.Registry, 5),
		Roots:      make(map[model.Type][]string, 5),
	}

	types := []model.Type{
		model.TypePrompt,
		model.TypeGate,
		model.TypeMethodology,
		model.TypeStyle,
		model.TypeScriptTool,
	}

	for _, typ := range types {
		roots := resolveRoots(typ, cfg)
		env.Roots[typ] = roots

		ldr := newLoader(typ, roots, cfg)
		reg := registry.New(ldr)
		if err := reg.Load(); err != nil {
			return nil, fmt.Errorf("load %s registry: %w", typ, err)
		}
		env.Registries[typ] = reg
	}

	return env, nil
}

// resolveRoots applies a config override when one is set, otherwise
// defers entirely to the Path Resolver (spec.md C1).
func resolveRoots(typ model.Type, cfg *config.Config) []string {
	tc := typeConfig(typ, cfg)

	opts := paths.Options{
		WorkspaceDir:  cfg.Resources.WorkspaceDir,
		ExtraOverlays: tc.OverlayRoots,
		Prober:        loader.Prober(typ),
	}

	if tc.Root != "" {
		roots := []string{tc.Root}
		for _, o := range tc.OverlayRoots {
			roots = append(roots, o)
		}
		return roots
	}

	return paths.Resolve(typ, opts)
}

func typeConfig(typ model.Type, cfg *config.Config) config.ResourceTypeConfig {
	switch typ {
	case model.TypePrompt:
		return cfg.Resources.Prompts
	case model.TypeGate:
		return cfg.Resources.Gates
	case model.TypeMethodology:
		return cfg.Resources.Methodologies
	case model.TypeStyle:
		return cfg.Resources.Styles
	case model.TypeScriptTool:
		return cfg.Resources.ScriptTools
	default:
		return config.ResourceTypeConfig{}
	}
}

func newLoader(typ model.Type, roots []string, cfg *config.Config) loader.Loader {
	switch typ {
	case model.TypePrompt:
		return loader.NewPromptLoader(roots, cfg.Resources.Prompts.LegacyJSON)
	case model.TypeGate:
		return loader.NewGateLoader(roots)
	case model.TypeMethodology:
		return loader.NewMethodologyLoader(roots)
	case model.TypeStyle:
		return loader.NewStyleLoader(roots)
	case model.TypeScriptTool:
		return loader.NewScriptToolLoader(roots)
	default:
		panic(fmt.Sprintf("env: unknown resource type %q", typ))
	}
}

// Registry returns the registry for one resource type, or nil if typ is
// not one of the five known types.
func (e *Environment) Registry(typ model.Type) *registry.Registry {
	return e.Registries[typ]
}

// Snapshot returns every currently-indexed resource across every
// registry, keyed by qualified key, for callers (the Change Tracker,
// the Skills Sync Compiler) that need a single flat view instead of
// per-type iteration.
func (e *Environment) Snapshot() map[string]*model.Resource {
	out := map[string]*model.Resource{}
	for _, reg := range e.Registries {
		for k, v := range reg.Snapshot() {
			out[k] = v
		}
	}
	return out
}

// AllDirectories returns every watch directory across every resource
// type, suitable for seeding a single reload.Manager.
func (e *Environment) AllDirectories() []string {
	seen := map[string]bool{}
	var dirs []string
	for _, roots := range e.Roots {
		for _, r := range roots {
			if !seen[r] {
				seen[r] = true
				dirs = append(dirs, r)
			}
		}
	}
	return dirs
}

// ReloadRegistrations builds one reload.Registration per resource type,
// each wired to a handler that re-loads the affected id through that
// type's loader and pushes the result into its registry (spec.md §4.7:
// "the registry stays current without restarting the process").
func (e *Environment) ReloadRegistrations() []reload.Registration {
	entryFiles := map[model.Type]string{
		model.TypeGate:        "gate.yaml",
		model.TypeMethodology: "methodology.yaml",
		model.TypeStyle:       "style.yaml",
		model.TypeScriptTool:  "tool.yaml",
	}

	regs := make([]reload.Registration, 0, len(e.Registries))
	for typ, reg := range e.Registries {
		typ, reg := typ, reg // capture
		regs = append(regs, reload.Registration{
			Type:         typ,
			Directories:  e.Roots[typ],
			EntryFile:    entryFiles[typ], // "" for prompts: category/id layout
			LegacyConfig: legacyConfigName(typ, e.Config),
			Handler: func(ctx context.Context, ev reload.Event) error {
				return applyReload(reg, ev)
			},
		})
	}
	return regs
}

func legacyConfigName(typ model.Type, cfg *config.Config) string {
	if typ == model.TypePrompt && cfg.Resources.Prompts.LegacyJSON {
		return "promptsConfig.json"
	}
	return ""
}

// applyReload re-loads or removes one resource after a debounced,
// classified change, mirroring what Registry.Load does for a single id
// instead of a full rescan.
func applyReload(reg *registry.Registry, ev reload.Event) error {
	ldr := reg.Loader()

	if ev.ChangeType == reload.ChangeConfigChanged || ev.ChangeType == reload.ChangeCategoryChanged {
		ldr.ClearCacheAll()
		return reg.Load()
	}

	if ev.ID == "" {
		return nil
	}

	key := model.QualifiedKey(reg.Type(), ev.Category, ev.ID)
	ldr.ClearCache(ev.ID)

	if ev.ChangeType == reload.ChangeRemoved {
		reg.Remove(key)
		return nil
	}

	res, ok := ldr.Load(ev.ID)
	if !ok {
		reg.Remove(key)
		return nil
	}
	reg.Replace(key, res)
	return nil
}
