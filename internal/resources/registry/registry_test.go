package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternarybob/promptd/internal/resources/loader"
)

func writeGate(t *testing.T, root, id, name string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "id: " + id + "\nname: " + name + "\ntype: validation\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gate.yaml"), []byte(content), 0o644))
}

func TestRegistryPrimaryWinsOverlay(t *testing.T) {
	primary := t.TempDir()
	overlay := t.TempDir()

	writeGate(t, primary, "code-quality", "Code Quality")
	writeGate(t, overlay, "code-quality", "OVERRIDDEN")

	ldr := loader.NewGateLoader([]string{primary, overlay})
	reg := New(ldr)
	require.NoError(t, reg.Load())

	res, ok := reg.Get("gate:code-quality")
	require.True(t, ok)
	require.Equal(t, "primary", res.SourceRoot)
}

func TestRegistryListDeterministicOrder(t *testing.T) {
	primary := t.TempDir()
	writeGate(t, primary, "b-gate", "B")
	writeGate(t, primary, "a-gate", "A")

	ldr := loader.NewGateLoader([]string{primary})
	reg := New(ldr)
	require.NoError(t, reg.Load())

	list := reg.List(Filters{})
	require.Len(t, list, 2)
	require.Equal(t, "gate:a-gate", list[0].QualifiedKey())
	require.Equal(t, "gate:b-gate", list[1].QualifiedKey())
}

func TestRegistryReplaceAndRemove(t *testing.T) {
	primary := t.TempDir()
	writeGate(t, primary, "g1", "G1")

	ldr := loader.NewGateLoader([]string{primary})
	reg := New(ldr)
	require.NoError(t, reg.Load())
	require.Equal(t, 1, reg.Count())

	res, ok := reg.Get("gate:g1")
	require.True(t, ok)
	reg.Replace("gate:g1", res)
	require.Equal(t, 1, reg.Count())

	reg.Remove("gate:g1")
	_, ok = reg.Get("gate:g1")
	require.False(t, ok)
}
