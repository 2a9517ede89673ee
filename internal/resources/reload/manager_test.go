package reload

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ternarybob/promptd/internal/resources/model"
	"github.com/ternarybob/promptd/internal/resources/watch"
)

func fakeRawEvent(path string) watch.Event {
	return watch.Event{Path: path, Operation: watch.OpModified, Timestamp: time.Now()}
}

func TestManagerDebouncesAndDispatchesByID(t *testing.T) {
	root := t.TempDir()
	gateDir := filepath.Join(root, "code-quality")
	require.NoError(t, os.MkdirAll(gateDir, 0o755))
	entryPath := filepath.Join(gateDir, "gate.yaml")
	require.NoError(t, os.WriteFile(entryPath, []byte("id: code-quality\n"), 0o644))

	var mu sync.Mutex
	var calls []Event

	reg := Registration{
		Type:        model.TypeGate,
		Directories: []string{root},
		EntryFile:   "gate.yaml",
		AuxFiles:    []string{"guidance.md"},
		Handler: func(ctx context.Context, ev Event) error {
			mu.Lock()
			calls = append(calls, ev)
			mu.Unlock()
			return nil
		},
	}

	mgr, err := New([]Registration{reg})
	require.NoError(t, err)
	mgr.debounce = 50 * time.Millisecond
	require.NoError(t, mgr.Start())
	defer mgr.Stop()

	require.NoError(t, os.WriteFile(entryPath, []byte("id: code-quality\nname: updated\n"), 0o644))
	require.NoError(t, os.WriteFile(entryPath, []byte("id: code-quality\nname: updated-again\n"), 0o644))

	mgr.Drain()
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(calls), 1)
	require.Equal(t, "code-quality", calls[len(calls)-1].ID)
	require.Equal(t, model.TypeGate, calls[len(calls)-1].Type)
}

func TestClassifyPromptDirectoryLayout(t *testing.T) {
	reg := Registration{Type: model.TypePrompt, Directories: []string{"/root"}}
	ev, ok := classifyPrompt(reg, fakeRawEvent("/root/intents/onboard/prompt.yaml"), []string{"intents", "onboard", "prompt.yaml"})
	require.True(t, ok)
	require.Equal(t, "onboard", ev.ID)
	require.Equal(t, "intents", ev.Category)
}

func TestClassifyPromptCategoryFile(t *testing.T) {
	reg := Registration{Type: model.TypePrompt, Directories: []string{"/root"}}
	ev, ok := classifyPrompt(reg, fakeRawEvent("/root/intents/category.yaml"), []string{"intents", "category.yaml"})
	require.True(t, ok)
	require.Equal(t, ChangeCategoryChanged, ev.ChangeType)
	require.Equal(t, "intents", ev.Category)
}
