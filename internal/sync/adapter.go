package sync

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/promptd/internal/resources/model"
)

// OutputFile is one file an adapter produces, relative to the client's
// output directory.
type OutputFile struct {
	RelativePath string
	Content      []byte
}

// protocolNativeHeader is the YAML frontmatter for a single-file
// markdown skill (spec.md §4.10: "name, description, optional tool
// list, optional argument hint").
type protocolNativeHeader struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description,omitempty"`
	Tools        []string `yaml:"tools,omitempty"`
	ArgumentHint string   `yaml:"argument-hint,omitempty"`
}

// portableMetadata is the resource-provenance block portable-skills
// headers carry.
type portableMetadata struct {
	ResourceType string `yaml:"resourceType"`
	SourceHash   string `yaml:"sourceHash"`
}

type portableHeader struct {
	Name          string            `yaml:"name"`
	Description   string            `yaml:"description,omitempty"`
	License       string            `yaml:"license,omitempty"`
	Compatibility map[string]string `yaml:"compatibility,omitempty"`
	Metadata      portableMetadata  `yaml:"metadata"`
	AllowedTools  []string          `yaml:"allowedTools,omitempty"`
	AlwaysApply   *bool             `yaml:"alwaysApply,omitempty"`
}

// Adapt converts res into the client's output file set, honoring the
// dirPrefix duplicate-disambiguation decided by the compiler (spec.md
// §4.10 step 3).
func Adapt(client Client, res *model.Resource, dirPrefix string) ([]OutputFile, error) {
	switch client.Family {
	case FamilyProtocolNative:
		return adaptProtocolNative(client, res, dirPrefix)
	case FamilyPortableSkills:
		return adaptPortableSkills(client, res, dirPrefix)
	default:
		return nil, fmt.Errorf("unknown adapter family %q for client %q", client.Family, client.ID)
	}
}

func skillDir(dirPrefix, id string) string {
	if dirPrefix == "" {
		return id
	}
	return dirPrefix + "/" + id
}

func adaptProtocolNative(client Client, res *model.Resource, dirPrefix string) ([]OutputFile, error) {
	payload, ok := res.Payload.(model.PromptPayload)
	if !ok {
		return adaptGenericMarkdown(client, res, dirPrefix, protocolHeaderBytes)
	}

	body := payload.UserMessageTemplate
	if body == "" {
		body = payload.SystemMessage
	}
	compiled := CompileProtocolNative(body, payload.Arguments)

	header := protocolNativeHeader{
		Name:  res.ID,
		Tools: append([]string(nil), payload.ScriptTools...),
	}
	sort.Strings(header.Tools)
	if len(payload.Arguments) > 0 {
		hints := make([]string, 0, len(payload.Arguments))
		for _, a := range payload.Arguments {
			hints = append(hints, a.Name)
		}
		header.ArgumentHint = strings.Join(hints, " ")
	}

	content, err := renderMarkdown(header, compiled)
	if err != nil {
		return nil, err
	}

	dir := skillDir(dirPrefix, res.ID)
	files := []OutputFile{{RelativePath: dir + "/SKILL.md", Content: content}}

	if client.Capabilities.Scripts {
		for _, toolID := range payload.ScriptTools {
			files = append(files, OutputFile{
				RelativePath: fmt.Sprintf("%s/scripts/%s.ref", dir, toolID),
				Content:      []byte(toolID),
			})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelativePath < files[j].RelativePath })
	return files, nil
}

func protocolHeaderBytes(res *model.Resource) ([]byte, error) {
	header := protocolNativeHeader{Name: res.ID}
	return renderMarkdown(header, genericBody(res))
}

func adaptPortableSkills(client Client, res *model.Resource, dirPrefix string) ([]OutputFile, error) {
	payload, ok := res.Payload.(model.PromptPayload)
	if !ok {
		return adaptGenericMarkdown(client, res, dirPrefix, func(r *model.Resource) ([]byte, error) {
			return renderMarkdown(portableHeaderFor(client, r, nil), genericBody(r))
		})
	}

	body := payload.UserMessageTemplate
	if body == "" {
		body = payload.SystemMessage
	}
	compiled := CompilePortable(body)

	header := portableHeaderFor(client, res, payload.ScriptTools)
	content, err := renderMarkdown(header, compiled)
	if err != nil {
		return nil, err
	}

	dir := skillDir(dirPrefix, res.ID)
	files := []OutputFile{{RelativePath: dir + "/SKILL.md", Content: content}}

	if client.Capabilities.References {
		for _, gateID := range gateReferences(payload) {
			files = append(files, OutputFile{
				RelativePath: fmt.Sprintf("%s/references/%s.ref", dir, gateID),
				Content:      []byte(gateID),
			})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelativePath < files[j].RelativePath })
	return files, nil
}

func gateReferences(p model.PromptPayload) []string {
	if p.Gate == nil {
		return nil
	}
	out := append([]string(nil), p.Gate.GateIDs...)
	sort.Strings(out)
	return out
}

// portableHeaderFor applies the per-variant frontmatter differences the
// spec calls out (e.g. Cursor's alwaysApply boolean), isolated here so
// the rest of the adapter stays variant-agnostic.
func portableHeaderFor(client Client, res *model.Resource, tools []string) portableHeader {
	h := portableHeader{
		Name: res.ID,
		Metadata: portableMetadata{
			ResourceType: string(res.Type),
			SourceHash:   res.SourceHash,
		},
		AllowedTools: append([]string(nil), tools...),
	}
	sort.Strings(h.AllowedTools)

	if client.Variant == "always-apply" {
		always := true
		h.AlwaysApply = &always
	}
	return h
}

// adaptGenericMarkdown handles non-prompt resource types (gates,
// methodologies, styles, script-tools): a single descriptive markdown
// file, no template compilation, since those payloads carry no argument
// placeholders to substitute.
func adaptGenericMarkdown(client Client, res *model.Resource, dirPrefix string, render func(*model.Resource) ([]byte, error)) ([]OutputFile, error) {
	content, err := render(res)
	if err != nil {
		return nil, err
	}
	dir := skillDir(dirPrefix, res.ID)
	return []OutputFile{{RelativePath: dir + "/SKILL.md", Content: content}}, nil
}

func genericBody(res *model.Resource) string {
	switch p := res.Payload.(type) {
	case model.GatePayload:
		return p.Guidance
	case model.MethodologyPayload:
		return p.SystemPromptGuidance
	case model.StylePayload:
		return p.Guidance
	case model.ScriptToolPayload:
		return p.Script
	default:
		return ""
	}
}

func renderMarkdown(header any, body string) ([]byte, error) {
	headerBytes, err := yaml.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("render frontmatter: %w", err)
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(headerBytes)
	b.WriteString("---\n\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}
