package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternarybob/promptd/internal/resources/loader"
	"github.com/ternarybob/promptd/internal/resources/model"
	"github.com/ternarybob/promptd/internal/resources/registry"
)

func writePrompt(t *testing.T, root, category, id, userMessage string) {
	t.Helper()
	dir := filepath.Join(root, category, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "id: " + id + "\n" +
		"userMessage: \"" + userMessage + "\"\n" +
		"arguments:\n  - name: target\n    type: string\n    required: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt.yaml"), []byte(content), 0o644))
}

func buildCompiler(t *testing.T, promptsRoot string, cfg *Config) *Compiler {
	t.Helper()
	ldr := loader.NewPromptLoader([]string{promptsRoot}, false)
	reg := registry.New(ldr)
	require.NoError(t, reg.Load())
	return &Compiler{
		Registries: map[model.Type]*registry.Registry{model.TypePrompt: reg},
		Config:     cfg,
		CacheDir:   t.TempDir(),
	}
}

func TestExportScenarioEProducesSkillMdWithPositionalTokens(t *testing.T) {
	promptsRoot := t.TempDir()
	writePrompt(t, promptsRoot, "development", "review", "Review {{target}} for issues")

	cfg := &Config{ExportKeys: []string{"prompt:development/review"}}
	compiler := buildCompiler(t, promptsRoot, cfg)

	resources := compiler.Select(model.TypePrompt, "")
	require.Len(t, resources, 1)

	client, ok := FindClient("claude-code")
	require.True(t, ok)

	outputRoot := t.TempDir()
	result, err := compiler.Export(client, outputRoot, resources, false)
	require.NoError(t, err)
	require.Len(t, result.Written, 1)
	require.Equal(t, "review/SKILL.md", result.Written[0])

	data, err := os.ReadFile(filepath.Join(outputRoot, "review", "SKILL.md"))
	require.NoError(t, err)
	require.Contains(t, string(data), "name: review")
	require.Contains(t, string(data), "Review $0 for issues")

	require.Len(t, result.Manifest.Entries, 1)
	require.Equal(t, "prompt:development/review", result.Manifest.Entries[0].QualifiedKey)
	require.Equal(t, resources[0].SourceHash, result.Manifest.Entries[0].SourceHash)
}

func TestExportIsDeterministicAcrossRuns(t *testing.T) {
	promptsRoot := t.TempDir()
	writePrompt(t, promptsRoot, "development", "review", "Review {{target}}")

	cfg := &Config{ExportAll: true}
	compiler := buildCompiler(t, promptsRoot, cfg)
	resources := compiler.Select(model.TypePrompt, "")
	client, _ := FindClient("claude-code")

	out1 := t.TempDir()
	out2 := t.TempDir()
	_, err := compiler.Export(client, out1, resources, false)
	require.NoError(t, err)
	_, err = compiler.Export(client, out2, resources, false)
	require.NoError(t, err)

	data1, err := os.ReadFile(filepath.Join(out1, "review", "SKILL.md"))
	require.NoError(t, err)
	data2, err := os.ReadFile(filepath.Join(out2, "review", "SKILL.md"))
	require.NoError(t, err)
	require.Equal(t, data1, data2)
}

func TestDiffScenarioFDetectsOutputDrift(t *testing.T) {
	promptsRoot := t.TempDir()
	writePrompt(t, promptsRoot, "development", "review", "Review {{target}}")

	cfg := &Config{ExportAll: true}
	compiler := buildCompiler(t, promptsRoot, cfg)
	resources := compiler.Select(model.TypePrompt, "")
	client, _ := FindClient("claude-code")

	outputRoot := t.TempDir()
	_, err := compiler.Export(client, outputRoot, resources, false)
	require.NoError(t, err)

	skillPath := filepath.Join(outputRoot, "review", "SKILL.md")
	original, err := os.ReadFile(skillPath)
	require.NoError(t, err)
	edited := append(append([]byte{}, original...), []byte("\nhand-edited line\n")...)
	require.NoError(t, os.WriteFile(skillPath, edited, 0o644))

	report, err := compiler.Diff(client, outputRoot, resources)
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	require.Equal(t, DriftOutput, report.Entries[0].Kind)
	require.Contains(t, report.Entries[0].UnifiedDiff, "hand-edited line")
}

func TestDisambiguatesDuplicateIDsAcrossCategories(t *testing.T) {
	promptsRoot := t.TempDir()
	writePrompt(t, promptsRoot, "development", "review", "dev review")
	writePrompt(t, promptsRoot, "operations", "review", "ops review")

	cfg := &Config{ExportAll: true}
	compiler := buildCompiler(t, promptsRoot, cfg)
	resources := compiler.Select(model.TypePrompt, "")
	require.Len(t, resources, 2)

	client, _ := FindClient("claude-code")
	outputRoot := t.TempDir()
	result, err := compiler.Export(client, outputRoot, resources, false)
	require.NoError(t, err)

	require.Contains(t, result.Written, "development/review/SKILL.md")
	require.Contains(t, result.Written, "operations/review/SKILL.md")
}
