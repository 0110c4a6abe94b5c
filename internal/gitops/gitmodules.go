package gitops

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/grovekit/grove/internal/workspace"
)

// ConversionWarning records one .gitmodules section that could not be
// turned into a workspace.
type ConversionWarning struct {
	Section string
	Reason  string
}

// ConversionResult mirrors the batch report shape: per-entry outcomes,
// partial success is not fatal.
type ConversionResult struct {
	Workspaces []*workspace.Workspace
	Warnings   []ConversionWarning
}

// PartiallyFailed reports whether any section was skipped.
func (r *ConversionResult) PartiallyFailed() bool {
	return len(r.Warnings) > 0
}

// ConvertGitmodules parses a .gitmodules file and produces a workspace
// descriptor per well-formed submodule section. Conversion is
// best-effort: a malformed section (missing path or url) is recorded
// as a warning, never a fatal error.
func ConvertGitmodules(path string) (*ConversionResult, error) {
	f, err := os.Open(path) // #nosec G304 - user-supplied input file
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	result := &ConversionResult{}

	var (
		section string // current submodule name, "" outside any section
		subPath string
		subURL  string
		inSub   bool
	)
	flush := func() {
		if !inSub {
			return
		}
		switch {
		case subPath == "" && subURL == "":
			result.Warnings = append(result.Warnings, ConversionWarning{
				Section: section, Reason: "missing path and url",
			})
		case subPath == "":
			result.Warnings = append(result.Warnings, ConversionWarning{
				Section: section, Reason: "missing path",
			})
		case subURL == "":
			result.Warnings = append(result.Warnings, ConversionWarning{
				Section: section, Reason: "missing url",
			})
		default:
			w := workspace.New(subPath)
			w.VCS.Kind = workspace.VCSGit
			w.VCS.SetRemote("origin", subURL)
			result.Workspaces = append(result.Workspaces, w)
		}
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			flush()
			section, inSub = parseSectionHeader(line)
			subPath, subURL = "", ""
			continue
		}
		if !inSub {
			continue
		}
		key, value, ok := parseKeyValue(line)
		if !ok {
			continue
		}
		switch key {
		case "path":
			subPath = value
		case "url":
			subURL = value
		}
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return result, nil
}

// parseSectionHeader handles `[submodule "name"]`. Any other section
// kind returns inSub=false and is skipped.
func parseSectionHeader(line string) (name string, inSub bool) {
	inner := strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
	if !strings.HasPrefix(inner, "submodule") {
		return "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(inner, "submodule"))
	rest = strings.Trim(rest, `"`)
	return rest, true
}

func parseKeyValue(line string) (key, value string, ok bool) {
	i := strings.IndexByte(line, '=')
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}
