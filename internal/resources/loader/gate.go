package loader

import (
	"path/filepath"
	"time"

	"github.com/ternarybob/promptd/internal/resources/model"
	"github.com/ternarybob/promptd/internal/resources/schema"
	"github.com/ternarybob/promptd/internal/resources/yamlutil"
)

const gateEntryFile = "gate.yaml"

// GateLoader loads gate resources: gate.yaml plus an optional
// guidance.md inlined into the payload.
type GateLoader struct {
	base
}

// NewGateLoader constructs a loader over the given ordered roots
// (primary first, then overlays), as resolved by the Path Resolver.
func NewGateLoader(roots []string) *GateLoader {
	return &GateLoader{base: newBase(model.TypeGate, roots, gateEntryFile)}
}

func (l *GateLoader) Load(id string) (*model.Resource, bool) {
	if r, ok := l.cache.get(id); ok {
		return r, true
	}

	for i, root := range l.roots {
		dir, ok := locateDir(root, id, gateEntryFile)
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

func (l *GateLoader) loadFromDir(dir, expectedID string) (*model.Resource, error) {
	entryPath := filepath.Join(dir, gateEntryFile)

	var raw schema.RawGate
	if err := yamlutil.LoadFile(entryPath, &raw, yamlutil.LoadOptions{Required: true}); err != nil {
		return nil, wrapParseErr(err)
	}

	sources := []Source{}
	entryBytes, err := readBytes(entryPath)
	if err != nil {
		return nil, wrapIOErr(err)
	}
	sources = append(sources, Source{Path: entryPath, Content: entryBytes})

	var guidance string
	if raw.GuidanceFile != "" {
		guidancePath := filepath.Join(dir, raw.GuidanceFile)
		text, err := yamlutil.ReadText(guidancePath, true)
		if err != nil {
			return nil, wrapIOErr(err)
		}
		guidance = text
		sources = append(sources, Source{Path: guidancePath, Content: []byte(text)})
	} else {
		// Conventional guidance.md is inlined even without an explicit
		// guidanceFile reference, matching the directory layout in §6.
		defaultGuidance := filepath.Join(dir, "guidance.md")
		if text, err := yamlutil.ReadText(defaultGuidance, false); err == nil && text != "" {
			guidance = text
			sources = append(sources, Source{Path: defaultGuidance, Content: []byte(text)})
		}
	}

	result := schema.ValidateGate(&raw, expectedID)
	if !result.Valid {
		return nil, wrapSchemaErr(result)
	}

	var expiresAt *time.Time
	if raw.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, raw.ExpiresAt); err == nil {
			expiresAt = &t
		}
	}

	criteria := make([]model.Criterion, 0, len(raw.PassCriteria))
	for _, c := range raw.PassCriteria {
		criteria = append(criteria, model.Criterion{Type: c.Type, Description: c.Description, Params: c.Params})
	}

	var retry *model.RetryPolicy
	if raw.RetryPolicy != nil {
		retry = &model.RetryPolicy{MaxRetries: raw.RetryPolicy.MaxRetries, BackoffMs: raw.RetryPolicy.BackoffMs}
	}

	enabled := true
	if raw.Enabled != nil {
		enabled = *raw.Enabled
	}

	payload := model.GatePayload{
		Name:         raw.Name,
		GateType:     model.GateKind(raw.Type),
		Severity:     raw.Severity,
		Description:  raw.Description,
		Guidance:     guidance,
		PassCriteria: criteria,
		RetryPolicy:  retry,
		Scope:        model.GateScope(raw.Scope),
		ExpiresAt:    expiresAt,
	}

	return &model.Resource{
		ID:          raw.ID,
		Type:        model.TypeGate,
		SourcePaths: SortedPaths(sources),
		SourceHash:  SourceHash(sources),
		Enabled:     enabled,
		Payload:     payload,
	}, nil
}

func (l *GateLoader) LoadAll() map[string]*model.Resource {
	ids, _ := l.Discover()
	out := make(map[string]*model.Resource, len(ids))
	for _, id := range ids {
		if r, ok := l.Load(id); ok {
			out[model.QualifiedKey(model.TypeGate, "", id)] = r
		}
	}
	return out
}
