package loader

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ternarybob/promptd/internal/logger"
	"github.com/ternarybob/promptd/internal/resources/model"
	"github.com/ternarybob/promptd/internal/resources/schema"
	"github.com/ternarybob/promptd/internal/resources/yamlutil"
)

const (
	promptEntryFile   = "prompt.yaml"
	categoryEntryFile = "category.yaml"
	legacyConfigFile  = "promptsConfig.json"
)

// PromptLoader loads prompt resources. It supports the directory layout
// ({category}/{id}/prompt.yaml), the single-file layout
// ({category}/{id}.yaml), and, when LegacyJSON is enabled, the
// promptsConfig.json-driven registry (spec.md §4.4, Open Question 1).
type PromptLoader struct {
	typ        model.Type
	roots      []string
	cache      *cache
	LegacyJSON bool
}

func NewPromptLoader(roots []string, legacyJSON bool) *PromptLoader {
	return &PromptLoader{typ: model.TypePrompt, roots: roots, cache: newCache(), LegacyJSON: legacyJSON}
}

func (l *PromptLoader) Type() model.Type { return model.TypePrompt }

func (l *PromptLoader) WatchDirs() []string {
	out := make([]string, len(l.roots))
	copy(out, l.roots)
	return out
}

func (l *PromptLoader) Stats() model.CacheStats { return l.cache.statsSnapshot() }
func (l *PromptLoader) ClearCache(id string)    { l.cache.clear(id) }
func (l *PromptLoader) ClearCacheAll()          { l.cache.clearAll() }

func (l *PromptLoader) logFailure(kind model.ErrKind, id, path string, err error) {
	l.cache.recordError()
	logger.GetLogger().Warn().
		Str("type", string(model.TypePrompt)).
		Str("id", id).
		Str("path", path).
		Str("kind", kind.String()).
		Err(err).
		Msg("resource load failed")
}

func (l *PromptLoader) logWarn(id, msg string) {
	logger.GetLogger().Warn().
		Str("type", string(model.TypePrompt)).
		Str("id", id).
		Msg(msg)
}

// Discover returns the sorted, de-duplicated list of prompt ids across
// every category in every root, plus any ids contributed by a legacy
// promptsConfig.json.
func (l *PromptLoader) Discover() ([]string, error) {
	seen := map[string]bool{}
	var ids []string
	add := func(id string) {
		key := normalizeID(id)
		if !seen[key] {
			seen[key] = true
			ids = append(ids, id)
		}
	}

	for _, root := range l.roots {
		if l.LegacyJSON {
			for _, id := range l.discoverJSON(root) {
				add(id)
			}
		}
		for _, cat := range discoverCategories(root) {
			for _, id := range discoverPromptIDsInCategory(filepath.Join(root, cat)) {
				add(id)
			}
		}
	}

	sort.Strings(ids)
	return ids, nil
}

// Exists is a short-circuit existence test.
func (l *PromptLoader) Exists(id string) bool {
	if _, ok := l.cache.peek(id); ok {
		return true
	}
	for _, root := range l.roots {
		if l.LegacyJSON {
			if _, ok := l.findInJSON(root, id); ok {
				return true
			}
		}
		if _, _, ok := locatePrompt(root, id); ok {
			return true
		}
	}
	return false
}

// Load resolves id to a single prompt, searching roots in order
// (primary first) and, within a root, the legacy JSON registry before
// the directory/single-file scan.
func (l *PromptLoader) Load(id string) (*model.Resource, bool) {
	if r, ok := l.cache.get(id); ok {
		return r, true
	}

	for i, root := range l.roots {
		if l.LegacyJSON {
			if r, err, found := l.loadFromJSON(root, id); found {
				if err != nil {
					l.logFailure(classify(err), id, root, err)
					return nil, false
				}
				l.tagRoot(r, i, root)
				l.cache.put(id, r)
				return r, true
			}
		}

		category, dirOrFile, ok := locatePrompt(root, id)
		if !ok {
			continue
		}

		r, err := l.loadFromPath(root, category, id, dirOrFile)
		if err != nil {
			l.logFailure(classify(err), id, dirOrFile, err)
			return nil, false
		}
		l.tagRoot(r, i, root)
		l.cache.put(id, r)
		return r, true
	}

	return nil, false
}

func (l *PromptLoader) tagRoot(r *model.Resource, rootIndex int, root string) {
	if rootIndex == 0 {
		r.SourceRoot = "primary"
	} else {
		r.SourceRoot = root
	}
}

func (l *PromptLoader) LoadAll() map[string]*model.Resource {
	ids, _ := l.Discover()
	out := make(map[string]*model.Resource, len(ids))
	for _, id := range ids {
		if r, ok := l.Load(id); ok {
			out[model.QualifiedKey(model.TypePrompt, r.Category, r.ID)] = r
		}
	}
	return out
}

// --- directory / single-file layout ---

func discoverCategories(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	var cats []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "backup" {
			continue
		}
		cats = append(cats, name)
	}
	sort.Strings(cats)
	return cats
}

func discoverPromptIDsInCategory(categoryDir string) []string {
	entries, err := os.ReadDir(categoryDir)
	if err != nil {
		return nil
	}
	seen := map[string]bool{}
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				continue
			}
			if fileExists(filepath.Join(categoryDir, name, promptEntryFile)) {
				add(name)
			}
			continue
		}
		if name == categoryEntryFile {
			continue
		}
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			id := strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
			add(id)
		}
	}
	sort.Strings(ids)
	return ids
}

// locatePrompt finds id's category and its on-disk location (either a
// directory holding prompt.yaml or a single .yaml file) under root.
func locatePrompt(root, id string) (category string, dirOrFile string, found bool) {
	for _, cat := range discoverCategories(root) {
		catDir := filepath.Join(root, cat)
		dirCandidate := filepath.Join(catDir, id)
		if fileExists(filepath.Join(dirCandidate, promptEntryFile)) {
			return cat, dirCandidate, true
		}
		fileCandidate := filepath.Join(catDir, id+".yaml")
		if fileExists(fileCandidate) {
			return cat, fileCandidate, true
		}
		fileCandidate = filepath.Join(catDir, id+".yml")
		if fileExists(fileCandidate) {
			return cat, fileCandidate, true
		}
	}
	return "", "", false
}

func (l *PromptLoader) loadFromPath(root, category, id, dirOrFile string) (*model.Resource, error) {
	isDir := fileExists(filepath.Join(dirOrFile, promptEntryFile))

	entryPath := dirOrFile
	var dir string
	if isDir {
		entryPath = filepath.Join(dirOrFile, promptEntryFile)
		dir = dirOrFile
	} else {
		dir = filepath.Dir(dirOrFile)
	}

	var raw schema.RawPrompt
	if err := yamlutil.LoadFile(entryPath, &raw, yamlutil.LoadOptions{Required: true}); err != nil {
		return nil, wrapParseErr(err)
	}
	if raw.ID == "" {
		raw.ID = id
	}

	entryBytes, err := readBytes(entryPath)
	if err != nil {
		return nil, wrapIOErr(err)
	}
	sources := []Source{{Path: entryPath, Content: entryBytes}}

	systemMessage := raw.SystemMessage
	userMessage := raw.UserMessage
	if isDir {
		if text, err := yamlutil.ReadText(filepath.Join(dir, "system-message.md"), false); err == nil && text != "" {
			systemMessage = text
			sources = append(sources, Source{Path: filepath.Join(dir, "system-message.md"), Content: []byte(text)})
		} else if err != nil {
			return nil, wrapIOErr(err)
		}
		if text, err := yamlutil.ReadText(filepath.Join(dir, "user-message.md"), false); err == nil && text != "" {
			userMessage = text
			sources = append(sources, Source{Path: filepath.Join(dir, "user-message.md"), Content: []byte(text)})
		} else if err != nil {
			return nil, wrapIOErr(err)
		}
	}

	var scriptToolIDs []string
	if isDir {
		toolsDir := filepath.Join(dir, "tools")
		if entries, err := os.ReadDir(toolsDir); err == nil {
			var toolNames []string
			for _, e := range entries {
				if e.IsDir() {
					toolNames = append(toolNames, e.Name())
				}
			}
			sort.Strings(toolNames)
			for _, toolID := range toolNames {
				toolDir := filepath.Join(toolsDir, toolID)
				toolEntry := filepath.Join(toolDir, scriptToolEntryFile)
				if !fileExists(toolEntry) {
					continue
				}
				var rawTool schema.RawScriptTool
				if err := yamlutil.LoadFile(toolEntry, &rawTool, yamlutil.LoadOptions{Required: true}); err != nil {
					return nil, wrapParseErr(err)
				}
				toolBytes, err := readBytes(toolEntry)
				if err != nil {
					return nil, wrapIOErr(err)
				}
				sources = append(sources, Source{Path: toolEntry, Content: toolBytes})
				if _, scriptPath, err := resolveScriptBody(toolDir, rawTool.Script); err == nil && scriptPath != "" {
					if b, err := os.ReadFile(scriptPath); err == nil {
						sources = append(sources, Source{Path: scriptPath, Content: b})
					}
				}
				scriptToolIDs = append(scriptToolIDs, toolID)
			}
		}
	}
	scriptToolIDs = append(scriptToolIDs, raw.Tools...)

	knownPromptIDs := l.knownIDsHint(root)
	result := schema.ValidatePrompt(&raw, id, knownPromptIDs)
	if !result.Valid {
		return nil, wrapSchemaErr(result)
	}
	for _, w := range result.Warnings {
		l.logWarn(raw.ID, w)
	}

	args := make([]model.Argument, 0, len(raw.Arguments))
	for _, a := range raw.Arguments {
		args = append(args, model.Argument{Name: a.Name, Type: model.ArgType(a.Type), Required: a.Required, Validation: a.Validation})
	}

	chain := make([]model.ChainStep, 0, len(raw.Chain))
	for _, c := range raw.Chain {
		chain = append(chain, model.ChainStep{PromptID: c.PromptID, StepName: c.StepName, InputMapping: c.Input, OutputMapping: c.Output, Retries: c.Retries})
	}

	var gateCfg *model.PromptGateConfig
	if raw.Gate != nil {
		gateCfg = &model.PromptGateConfig{
			GateIDs:     raw.Gate.GateIDs,
			RequireAll:  raw.Gate.RequireAll,
			RetryOnFail: raw.Gate.RetryOnFail,
			MaxRetries:  raw.Gate.MaxRetries,
		}
	}

	enabled := true
	if raw.Enabled != nil {
		enabled = *raw.Enabled
	}

	registerPolicy := model.RegisterInherit
	if raw.RegisterWithProtocol != nil {
		if *raw.RegisterWithProtocol {
			registerPolicy = model.RegisterTrue
		} else {
			registerPolicy = model.RegisterFalse
		}
	}

	payload := model.PromptPayload{
		SystemMessage:       systemMessage,
		UserMessageTemplate: userMessage,
		Arguments:           args,
		Chain:               chain,
		Gate:                gateCfg,
		ScriptTools:         scriptToolIDs,
	}

	return &model.Resource{
		ID:             raw.ID,
		Type:           model.TypePrompt,
		Category:       category,
		SourcePaths:    SortedPaths(sources),
		SourceHash:     SourceHash(sources),
		Enabled:        enabled,
		RegisterPolicy: registerPolicy,
		Payload:        payload,
	}, nil
}

// knownIDsHint is a best-effort, cache-only hint for the chain-step
// cross-reference warning; it deliberately never triggers a fresh
// filesystem scan, since that check is a warning, not a hard
// dependency resolver (spec.md §4.2, §1 Non-goals).
func (l *PromptLoader) knownIDsHint(root string) map[string]bool {
	snap := l.cache.snapshot()
	if len(snap) == 0 {
		return nil
	}
	known := make(map[string]bool, len(snap))
	for id := range snap {
		known[id] = true
	}
	return known
}

// CategoryDefault loads category.yaml's defaultRegisterWithProtocol, if
// present, for use by the registry when resolving RegisterInherit.
func CategoryDefault(root, category string) (bool, bool) {
	path := filepath.Join(root, category, categoryEntryFile)
	var raw schema.RawCategory
	if err := yamlutil.LoadFile(path, &raw, yamlutil.LoadOptions{Required: false}); err != nil {
		return true, false
	}
	if raw.DefaultRegisterWithProtocol == nil {
		return true, false
	}
	return *raw.DefaultRegisterWithProtocol, true
}

// --- legacy promptsConfig.json layout ---

type legacyConfig struct {
	Categories []legacyCategory `json:"categories"`
	Imports    []string         `json:"imports"`
}

type legacyCategory struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type legacyPromptDescriptor struct {
	ID                   string                 `json:"id"`
	Category             string                 `json:"category"`
	Name                 string                 `json:"name"`
	SystemMessage        string                 `json:"systemMessage"`
	UserMessageTemplate  string                 `json:"userMessageTemplate"`
	Arguments            []schema.RawArgument   `json:"arguments"`
	Chain                []schema.RawChainStep  `json:"chain"`
	Tools                []string               `json:"tools"`
	Enabled              *bool                  `json:"enabled"`
	RegisterWithProtocol *bool                  `json:"registerWithProtocol"`
}

func readLegacyConfig(root string) (*legacyConfig, string, error) {
	path := filepath.Join(root, legacyConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, err
	}
	var cfg legacyConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}

func (l *PromptLoader) discoverJSON(root string) []string {
	cfg, _, err := readLegacyConfig(root)
	if err != nil {
		return nil
	}
	var ids []string
	for _, importFile := range cfg.Imports {
		descs, _, err := readLegacyImport(root, importFile)
		if err != nil {
			continue
		}
		for _, d := range descs {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

func readLegacyImport(root, importFile string) ([]legacyPromptDescriptor, string, error) {
	path := filepath.Join(root, importFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, err
	}
	var descs []legacyPromptDescriptor
	if err := json.Unmarshal(data, &descs); err != nil {
		return nil, path, err
	}
	return descs, path, nil
}

func (l *PromptLoader) findInJSON(root, id string) (legacyPromptDescriptor, bool) {
	cfg, _, err := readLegacyConfig(root)
	if err != nil {
		return legacyPromptDescriptor{}, false
	}
	for _, importFile := range cfg.Imports {
		descs, _, err := readLegacyImport(root, importFile)
		if err != nil {
			continue
		}
		for _, d := range descs {
			if normalizeID(d.ID) == normalizeID(id) {
				return d, true
			}
		}
	}
	return legacyPromptDescriptor{}, false
}

func (l *PromptLoader) loadFromJSON(root, id string) (*model.Resource, error, bool) {
	cfg, cfgPath, err := readLegacyConfig(root)
	if err != nil {
		return nil, nil, false
	}

	for _, importFile := range cfg.Imports {
		descs, importPath, err := readLegacyImport(root, importFile)
		if err != nil {
			continue
		}
		for _, d := range descs {
			if normalizeID(d.ID) != normalizeID(id) {
				continue
			}

			cfgBytes, _ := os.ReadFile(cfgPath)
			importBytes, _ := os.ReadFile(importPath)
			sources := []Source{
				{Path: cfgPath, Content: cfgBytes},
				{Path: importPath, Content: importBytes},
			}

			raw := schema.RawPrompt{
				ID:            d.ID,
				SystemMessage: d.SystemMessage,
				UserMessage:   d.UserMessageTemplate,
				Arguments:     d.Arguments,
				Chain:         d.Chain,
				Tools:         d.Tools,
				Enabled:       d.Enabled,
			}
			result := schema.ValidatePrompt(&raw, d.ID, nil)
			if !result.Valid {
				return nil, wrapSchemaErr(result), true
			}

			args := make([]model.Argument, 0, len(d.Arguments))
			for _, a := range d.Arguments {
				args = append(args, model.Argument{Name: a.Name, Type: model.ArgType(a.Type), Required: a.Required, Validation: a.Validation})
			}
			chain := make([]model.ChainStep, 0, len(d.Chain))
			for _, c := range d.Chain {
				chain = append(chain, model.ChainStep{PromptID: c.PromptID, StepName: c.StepName, InputMapping: c.Input, OutputMapping: c.Output, Retries: c.Retries})
			}

			enabled := true
			if d.Enabled != nil {
				enabled = *d.Enabled
			}
			registerPolicy := model.RegisterInherit
			if d.RegisterWithProtocol != nil {
				if *d.RegisterWithProtocol {
					registerPolicy = model.RegisterTrue
				} else {
					registerPolicy = model.RegisterFalse
				}
			}

			payload := model.PromptPayload{
				SystemMessage:       d.SystemMessage,
				UserMessageTemplate: d.UserMessageTemplate,
				Arguments:           args,
				Chain:               chain,
				ScriptTools:         d.Tools,
			}

			return &model.Resource{
				ID:             d.ID,
				Type:           model.TypePrompt,
				Category:       d.Category,
				SourcePaths:    SortedPaths(sources),
				SourceHash:     SourceHash(sources),
				Enabled:        enabled,
				RegisterPolicy: registerPolicy,
				Payload:        payload,
			}, nil, true
		}
	}

	return nil, nil, false
}
