package loader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/promptd/internal/resources/model"
	"github.com/ternarybob/promptd/internal/resources/schema"
	"github.com/ternarybob/promptd/internal/resources/yamlutil"
)

const scriptToolEntryFile = "tool.yaml"

// ScriptToolLoader loads script-tool resources: tool.yaml plus the
// script body, either inlined in tool.yaml or as a sibling file.
type ScriptToolLoader struct {
	base
}

func NewScriptToolLoader(roots []string) *ScriptToolLoader {
	return &ScriptToolLoader{base: newBase(model.TypeScriptTool, roots, scriptToolEntryFile)}
}

func (l *ScriptToolLoader) Load(id string) (*model.Resource, bool) {
	if r, ok := l.cache.get(id); ok {
		return r, true
	}

	for i, root := range l.roots {
		dir, ok := locateDir(root, id, scriptToolEntryFile)
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

func (l *ScriptToolLoader) loadFromDir(dir, expectedID string) (*model.Resource, error) {
	entryPath := filepath.Join(dir, scriptToolEntryFile)

	var raw schema.RawScriptTool
	if err := yamlutil.LoadFile(entryPath, &raw, yamlutil.LoadOptions{Required: true}); err != nil {
		return nil, wrapParseErr(err)
	}
	entryBytes, err := readBytes(entryPath)
	if err != nil {
		return nil, wrapIOErr(err)
	}
	sources := []Source{{Path: entryPath, Content: entryBytes}}

	script, scriptPath, err := resolveScriptBody(dir, raw.Script)
	if err != nil {
		return nil, wrapIOErr(err)
	}
	if scriptPath != "" {
		sources = append(sources, Source{Path: scriptPath, Content: []byte(script)})
	}

	result := schema.ValidateScriptTool(&raw, expectedID)
	if !result.Valid {
		return nil, wrapSchemaErr(result)
	}

	enabled := true
	if raw.Enabled != nil {
		enabled = *raw.Enabled
	}

	payload := model.ScriptToolPayload{
		Runtime:     raw.Runtime,
		Script:      script,
		InputSchema: raw.InputSchema,
	}

	return &model.Resource{
		ID:          raw.ID,
		Type:        model.TypeScriptTool,
		SourcePaths: SortedPaths(sources),
		SourceHash:  SourceHash(sources),
		Enabled:     enabled,
		Payload:     payload,
	}, nil
}

// resolveScriptBody returns the script's content and, if it was read
// from a sibling file, that file's path (so it can be hashed). A
// `script:` field naming an existing sibling file is treated as a
// filename reference; otherwise it is the inline script body.
func resolveScriptBody(dir, scriptField string) (content string, path string, err error) {
	if scriptField == "" {
		return "", "", nil
	}
	if !strings.Contains(scriptField, "\n") {
		candidate := filepath.Join(dir, scriptField)
		if data, readErr := os.ReadFile(candidate); readErr == nil {
			return string(data), candidate, nil
		}
	}
	return scriptField, "", nil
}

func (l *ScriptToolLoader) LoadAll() map[string]*model.Resource {
	ids, _ := l.Discover()
	out := make(map[string]*model.Resource, len(ids))
	for _, id := range ids {
		if r, ok := l.Load(id); ok {
			out[model.QualifiedKey(model.TypeScriptTool, "", id)] = r
		}
	}
	return out
}
