package sync

import (
	"fmt"
	"regexp"

	"github.com/ternarybob/promptd/internal/resources/model"
)

// The adapter's template handling is a documented simplification
// (spec.md §9): conditional blocks always keep the if-branch and drop
// the else-branch, and argument substitution is a regex pass rather
// than a real parser. This matches the corpus's own fragility, not an
// oversight.

var (
	ifElseBlock  = regexp.MustCompile(`(?s)\{%\s*if\s+\w+\s*%\}(.*?)\{%\s*else\s*%\}.*?\{%\s*endif\s*%\}`)
	ifOnlyBlock  = regexp.MustCompile(`(?s)\{%\s*if\s+\w+\s*%\}(.*?)\{%\s*endif\s*%\}`)
	argReference = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)
)

// stripConditionals collapses {% if %}...{% else %}...{% endif %} and
// {% if %}...{% endif %} blocks down to their if-branch, unconditionally.
func stripConditionals(text string) string {
	text = ifElseBlock.ReplaceAllString(text, "$1")
	text = ifOnlyBlock.ReplaceAllString(text, "$1")
	return text
}

// CompileProtocolNative renders a prompt's template for a
// protocol-native client: conditionals stripped, then {{name}}
// references replaced by positional tokens in argument-declaration order.
func CompileProtocolNative(text string, args []model.Argument) string {
	text = stripConditionals(text)

	index := make(map[string]int, len(args))
	for i, a := range args {
		index[a.Name] = i
	}

	return argReference.ReplaceAllStringFunc(text, func(match string) string {
		name := argReference.FindStringSubmatch(match)[1]
		if i, ok := index[name]; ok {
			return fmt.Sprintf("$%d", i)
		}
		return match
	})
}

// CompilePortable renders a prompt's template for a portable-skills
// client: conditionals stripped, then {{name}} references replaced by
// human-readable {name} placeholders.
func CompilePortable(text string) string {
	text = stripConditionals(text)
	return argReference.ReplaceAllString(text, "{$1}")
}
