package env

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternarybob/promptd/internal/config"
	"github.com/ternarybob/promptd/internal/resources/model"
	"github.com/ternarybob/promptd/internal/resources/reload"
)

func writeGateFixture(t *testing.T, root, id string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "id: " + id + "\nname: " + id + "\ntype: validation\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gate.yaml"), []byte(content), 0o644))
}

func TestNewWiresAllFiveRegistriesFromConfigRootOverrides(t *testing.T) {
	promptsRoot := t.TempDir()
	gatesRoot := t.TempDir()
	writeGateFixture(t, gatesRoot, "always-true")

	cfg := config.DefaultConfig()
	cfg.Resources.Prompts.Root = promptsRoot
	cfg.Resources.Gates.Root = gatesRoot
	cfg.Resources.Methodologies.Root = t.TempDir()
	cfg.Resources.Styles.Root = t.TempDir()
	cfg.Resources.ScriptTools.Root = t.TempDir()

	environment, err := New(cfg)
	require.NoError(t, err)

	require.Len(t, environment.Registries, 5)
	require.NotNil(t, environment.Registry(model.TypeGate))
	require.Equal(t, 1, environment.Registry(model.TypeGate).Count())
	require.Equal(t, 0, environment.Registry(model.TypePrompt).Count())
}

func TestReloadRegistrationsCoverAllFiveTypes(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Resources.Prompts.Root = t.TempDir()
	cfg.Resources.Gates.Root = t.TempDir()
	cfg.Resources.Methodologies.Root = t.TempDir()
	cfg.Resources.Styles.Root = t.TempDir()
	cfg.Resources.ScriptTools.Root = t.TempDir()

	environment, err := New(cfg)
	require.NoError(t, err)

	regs := environment.ReloadRegistrations()
	require.Len(t, regs, 5)

	seen := map[model.Type]bool{}
	for _, r := range regs {
		seen[r.Type] = true
	}
	require.True(t, seen[model.TypePrompt])
	require.True(t, seen[model.TypeGate])
	require.True(t, seen[model.TypeScriptTool])
}

func TestApplyReloadPicksUpNewGateOnAddedEvent(t *testing.T) {
	gatesRoot := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Resources.Prompts.Root = t.TempDir()
	cfg.Resources.Gates.Root = gatesRoot
	cfg.Resources.Methodologies.Root = t.TempDir()
	cfg.Resources.Styles.Root = t.TempDir()
	cfg.Resources.ScriptTools.Root = t.TempDir()

	environment, err := New(cfg)
	require.NoError(t, err)
	require.Equal(t, 0, environment.Registry(model.TypeGate).Count())

	writeGateFixture(t, gatesRoot, "new-gate")

	regs := environment.ReloadRegistrations()
	var gateReg reload.Registration
	for _, r := range regs {
		if r.Type == model.TypeGate {
			gateReg = r
		}
	}
	require.NotNil(t, gateReg.Handler)

	err = gateReg.Handler(context.Background(), reload.Event{
		Type:       model.TypeGate,
		ID:         "new-gate",
		ChangeType: reload.ChangeAdded,
	})
	require.NoError(t, err)
	require.Equal(t, 1, environment.Registry(model.TypeGate).Count())
}

func TestAllDirectoriesDeduplicatesAcrossTypes(t *testing.T) {
	shared := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Resources.Prompts.Root = shared
	cfg.Resources.Gates.Root = shared
	cfg.Resources.Methodologies.Root = t.TempDir()
	cfg.Resources.Styles.Root = t.TempDir()
	cfg.Resources.ScriptTools.Root = t.TempDir()

	environment, err := New(cfg)
	require.NoError(t, err)

	dirs := environment.AllDirectories()
	count := 0
	for _, d := range dirs {
		if d == shared {
			count++
		}
	}
	require.Equal(t, 1, count)
}
