// Package template implements workspace-scoped command templates. A
// template is parsed once into literal and variable tokens, then
// resolved per workspace, so an unresolved variable is a structural
// per-workspace failure rather than a stray "{key}" left in the
// command string.
package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/grovekit/grove/internal/workspace"
)

// ErrUnresolved means a template referenced a variable the workspace
// doesn't define (an absent metadata key, or an unknown name).
var ErrUnresolved = errors.New("unresolved template variable")

const metaPrefix = "metadata."

type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenVariable
)

type token struct {
	kind tokenKind
	text string // literal text, or variable name without braces
}

// Template is a parsed command template.
type Template struct {
	source string
	tokens []token
}

// Parse tokenizes a command string. Variables are written {name};
// recognized names are "id", "path", and "metadata.<key>". An
// unterminated brace is a parse error. "{{" escapes a literal brace.
func Parse(source string) (*Template, error) {
	t := &Template{source: source}
	var literal strings.Builder

	for i := 0; i < len(source); i++ {
		c := source[i]
		if c != '{' {
			literal.WriteByte(c)
			continue
		}
		if i+1 < len(source) && source[i+1] == '{' {
			literal.WriteByte('{')
			i++
			continue
		}
		end := strings.IndexByte(source[i:], '}')
		if end < 0 {
			return nil, fmt.Errorf("unterminated variable at offset %d in %q", i, source)
		}
		name := source[i+1 : i+end]
		if name == "" {
			return nil, fmt.Errorf("empty variable at offset %d in %q", i, source)
		}
		if literal.Len() > 0 {
			t.tokens = append(t.tokens, token{tokenLiteral, literal.String()})
			literal.Reset()
		}
		t.tokens = append(t.tokens, token{tokenVariable, name})
		i += end
	}
	if literal.Len() > 0 {
		t.tokens = append(t.tokens, token{tokenLiteral, literal.String()})
	}
	return t, nil
}

// Source returns the original template string.
func (t *Template) Source() string { return t.source }

// Variables returns the variable names referenced, in order of first
// appearance.
func (t *Template) Variables() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range t.tokens {
		if tok.kind != tokenVariable {
			continue
		}
		if _, ok := seen[tok.text]; ok {
			continue
		}
		seen[tok.text] = struct{}{}
		out = append(out, tok.text)
	}
	return out
}

// Resolve substitutes the workspace's values into the template.
func (t *Template) Resolve(w *workspace.Workspace) (string, error) {
	var out strings.Builder
	for _, tok := range t.tokens {
		if tok.kind == tokenLiteral {
			out.WriteString(tok.text)
			continue
		}
		value, err := lookup(w, tok.text)
		if err != nil {
			return "", err
		}
		out.WriteString(value)
	}
	return out.String(), nil
}

func lookup(w *workspace.Workspace, name string) (string, error) {
	switch {
	case name == "id":
		return w.ID, nil
	case name == "path":
		return w.Path, nil
	case strings.HasPrefix(name, metaPrefix):
		key := name[len(metaPrefix):]
		value, ok := w.Metadata[key]
		if !ok {
			return "", fmt.Errorf("%w: metadata key %q not set on %q", ErrUnresolved, key, w.ID)
		}
		return value, nil
	default:
		return "", fmt.Errorf("%w: unknown variable %q", ErrUnresolved, name)
	}
}
