package mcpfacade

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternarybob/promptd/internal/resources/model"
)

func TestFormatResourceIncludesQualifiedKeyAndProvenance(t *testing.T) {
	res := &model.Resource{
		ID:         "review",
		Type:       model.TypePrompt,
		Category:   "development",
		Enabled:    true,
		SourceRoot: "/resources/prompts",
		SourceHash: "abc123",
	}

	out := formatResource(res)
	require.Contains(t, out, "key=prompt:development/review")
	require.Contains(t, out, "source_hash=abc123")
}

func TestFormatKeysJoinsWithNewlines(t *testing.T) {
	out := formatKeys([]string{"gate:a", "gate:b"})
	require.Equal(t, "gate:a\ngate:b\n", out)
}
