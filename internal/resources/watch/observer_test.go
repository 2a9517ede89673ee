package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestObserverEmitsSingleEventForAtomicWrite(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "gate.yaml")
	require.NoError(t, os.WriteFile(target, []byte("id: g1\n"), 0o644))

	obs, err := New([]string{root}, Options{Debounce: 30 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, obs.Start())
	defer obs.Stop()

	// Simulate the safe writer's .tmp -> rename dance.
	tmp := target + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte("id: g1\nname: updated\n"), 0o644))
	require.NoError(t, os.Rename(tmp, target))

	select {
	case ev := <-obs.Changes():
		require.Equal(t, target, ev.Path)
		require.Equal(t, OpModified, ev.Operation)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for collapsed event")
	}
}

func TestObserverIgnoresUnfilteredFiles(t *testing.T) {
	root := t.TempDir()

	obs, err := New([]string{root}, Options{Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, obs.Start())
	defer obs.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("irrelevant"), 0o644))

	select {
	case ev := <-obs.Changes():
		t.Fatalf("unexpected event for filtered-out file: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}
