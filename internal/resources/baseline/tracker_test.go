package baseline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternarybob/promptd/internal/resources/model"
)

func res(hash string) *model.Resource {
	return &model.Resource{Type: model.TypeGate, SourceHash: hash}
}

func TestCompareOnEmptyBaselineReportsAllAdded(t *testing.T) {
	tr := New(t.TempDir())
	delta := tr.Compare(map[string]*model.Resource{
		"gate:a": res("h1"),
		"gate:b": res("h2"),
	})
	require.ElementsMatch(t, []string{"gate:a", "gate:b"}, delta.Added)
	require.Empty(t, delta.Modified)
	require.Empty(t, delta.Removed)
}

func TestCompareDetectsAddedModifiedRemoved(t *testing.T) {
	dir := t.TempDir()
	tr := New(dir)

	require.NoError(t, tr.Persist(map[string]*model.Resource{
		"gate:a": res("h1"),
		"gate:b": res("h2"),
		"gate:d": res("h4"),
	}))

	delta := tr.Compare(map[string]*model.Resource{
		"gate:a": res("h1"),       // unchanged
		"gate:b": res("h2-new"),   // modified
		"gate:c": res("h3"),       // added
	})

	require.Equal(t, []string{"gate:c"}, delta.Added)
	require.Equal(t, []string{"gate:b"}, delta.Modified)
	require.Equal(t, []string{"gate:d"}, delta.Removed)
	require.Equal(t, []string{"gate:a"}, excludeUnchanged(delta, "gate:a"))
}

// excludeUnchanged is a tiny local helper asserting gate:a shows up in
// neither the added nor the modified bucket, since it didn't change.
func excludeUnchanged(d Delta, key string) []string {
	for _, k := range d.Added {
		if k == key {
			return nil
		}
	}
	for _, k := range d.Modified {
		if k == key {
			return nil
		}
	}
	return []string{key}
}

func TestPersistIsReadBackByNewTracker(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, New(dir).Persist(map[string]*model.Resource{"gate:a": res("h1")}))

	fresh := New(dir)
	delta := fresh.Compare(map[string]*model.Resource{"gate:a": res("h1")})
	require.True(t, delta.IsEmpty())
}
