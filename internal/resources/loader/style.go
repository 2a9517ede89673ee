package loader

import (
	"path/filepath"

	"github.com/ternarybob/promptd/internal/resources/model"
	"github.com/ternarybob/promptd/internal/resources/schema"
	"github.com/ternarybob/promptd/internal/resources/yamlutil"
)

const styleEntryFile = "style.yaml"

// StyleLoader loads style resources: style.yaml plus guidance.md.
type StyleLoader struct {
	base
}

func NewStyleLoader(roots []string) *StyleLoader {
	return &StyleLoader{base: newBase(model.TypeStyle, roots, styleEntryFile)}
}

func (l *StyleLoader) Load(id string) (*model.Resource, bool) {
	if r, ok := l.cache.get(id); ok {
		return r, true
	}

	for i, root := range l.roots {
		dir, ok := locateDir(root, id, styleEntryFile)
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

func (l *StyleLoader) loadFromDir(dir, expectedID string) (*model.Resource, error) {
	entryPath := filepath.Join(dir, styleEntryFile)

	var raw schema.RawStyle
	if err := yamlutil.LoadFile(entryPath, &raw, yamlutil.LoadOptions{Required: true}); err != nil {
		return nil, wrapParseErr(err)
	}
	entryBytes, err := readBytes(entryPath)
	if err != nil {
		return nil, wrapIOErr(err)
	}
	sources := []Source{{Path: entryPath, Content: entryBytes}}

	guidancePath := filepath.Join(dir, "guidance.md")
	guidance, err := yamlutil.ReadText(guidancePath, false)
	if err != nil {
		return nil, wrapIOErr(err)
	}
	if guidance != "" {
		sources = append(sources, Source{Path: guidancePath, Content: []byte(guidance)})
	}

	result := schema.ValidateStyle(&raw, expectedID)
	if !result.Valid {
		return nil, wrapSchemaErr(result)
	}

	enabled := true
	if raw.Enabled != nil {
		enabled = *raw.Enabled
	}

	payload := model.StylePayload{
		Priority:      raw.Priority,
		Mode:          model.EnhancementMode(raw.Mode),
		Compatibility: raw.Compatibility,
		Guidance:      guidance,
	}

	return &model.Resource{
		ID:          raw.ID,
		Type:        model.TypeStyle,
		SourcePaths: SortedPaths(sources),
		SourceHash:  SourceHash(sources),
		Enabled:     enabled,
		Payload:     payload,
	}, nil
}

func (l *StyleLoader) LoadAll() map[string]*model.Resource {
	ids, _ := l.Discover()
	out := make(map[string]*model.Resource, len(ids))
	for _, id := range ids {
		if r, ok := l.Load(id); ok {
			out[model.QualifiedKey(model.TypeStyle, "", id)] = r
		}
	}
	return out
}
