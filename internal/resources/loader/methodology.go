package loader

import (
	"path/filepath"

	"github.com/ternarybob/promptd/internal/resources/model"
	"github.com/ternarybob/promptd/internal/resources/schema"
	"github.com/ternarybob/promptd/internal/resources/yamlutil"
)

const methodologyEntryFile = "methodology.yaml"

// MethodologyLoader loads methodology resources: methodology.yaml,
// phases.yaml, and system-prompt.md, all inlined into one payload.
type MethodologyLoader struct {
	base
}

func NewMethodologyLoader(roots []string) *MethodologyLoader {
	return &MethodologyLoader{base: newBase(model.TypeMethodology, roots, methodologyEntryFile)}
}

func (l *MethodologyLoader) Load(id string) (*model.Resource, bool) {
	if r, ok := l.cache.get(id); ok {
		return r, true
	}

	for i, root := range l.roots {
		dir, ok := locateDir(root, id, methodologyEntryFile)
		if !ok {
			continue
		}

		r, err := l.loadFromDir(dir, id)
		if err != nil {
			l.logFailure(classify(err), id, dir, err)
			return nil, false
		}

		if i == 0 {
			r.SourceRoot = "primary"
		} else {
			r.SourceRoot = root
		}
		l.cache.put(id, r)
		return r, true
	}

	return nil, false
}

func (l *MethodologyLoader) loadFromDir(dir, expectedID string) (*model.Resource, error) {
	entryPath := filepath.Join(dir, methodologyEntryFile)

	var raw schema.RawMethodology
	if err := yamlutil.LoadFile(entryPath, &raw, yamlutil.LoadOptions{Required: true}); err != nil {
		return nil, wrapParseErr(err)
	}
	entryBytes, err := readBytes(entryPath)
	if err != nil {
		return nil, wrapIOErr(err)
	}
	sources := []Source{{Path: entryPath, Content: entryBytes}}

	phasesPath := filepath.Join(dir, "phases.yaml")
	var phases schema.RawPhasesFile
	var phasesPtr *schema.RawPhasesFile
	if err := yamlutil.LoadFile(phasesPath, &phases, yamlutil.LoadOptions{Required: false}); err != nil {
		return nil, wrapParseErr(err)
	}
	if phasesBytes, err := readBytes(phasesPath); err == nil {
		sources = append(sources, Source{Path: phasesPath, Content: phasesBytes})
		phasesPtr = &phases
	}

	promptPath := filepath.Join(dir, "system-prompt.md")
	guidance, err := yamlutil.ReadText(promptPath, false)
	if err != nil {
		return nil, wrapIOErr(err)
	}
	if guidance != "" {
		sources = append(sources, Source{Path: promptPath, Content: []byte(guidance)})
	}

	result := schema.ValidateMethodology(&raw, phasesPtr, expectedID)
	if !result.Valid {
		return nil, wrapSchemaErr(result)
	}

	var modelPhases []model.Phase
	if phasesPtr != nil {
		for _, p := range phasesPtr.Phases {
			modelPhases = append(modelPhases, model.Phase{Name: p.Name, Description: p.Description, Steps: p.Steps})
		}
	}

	enabled := true
	if raw.Enabled != nil {
		enabled = *raw.Enabled
	}

	payload := model.MethodologyPayload{
		MethodType:           raw.Type,
		Version:              raw.Version,
		Phases:               modelPhases,
		SystemPromptGuidance: guidance,
		Gates:                raw.Gates,
	}

	return &model.Resource{
		ID:          raw.ID,
		Type:        model.TypeMethodology,
		SourcePaths: SortedPaths(sources),
		SourceHash:  SourceHash(sources),
		Enabled:     enabled,
		Payload:     payload,
	}, nil
}

func (l *MethodologyLoader) LoadAll() map[string]*model.Resource {
	ids, _ := l.Discover()
	out := make(map[string]*model.Resource, len(ids))
	for _, id := range ids {
		if r, ok := l.Load(id); ok {
			out[model.QualifiedKey(model.TypeMethodology, "", id)] = r
		}
	}
	return out
}
