package chat

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/cexll/agentsdk-go/pkg/api"
	runtimeskills "github.com/cexll/agentsdk-go/pkg/runtime/skills"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/stellarlinkco/jarvis/internal/config"
)

// SkillsDirName is the workspace subdirectory holding skill files.
const SkillsDirName = "skills"

var errBadFrontmatter = errors.New("invalid skill frontmatter")

// validSkillName matches what the agentsdk-go skill registry accepts.
var validSkillName = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,62}[a-z0-9])?$`)

type skillHeader struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
}

// SkillsDir is where the chat backend looks for skill files.
func SkillsDir(cfg *config.Config) string {
	return filepath.Join(cfg.Assistant.Workspace, SkillsDirName)
}

// LoadSkills reads every *.md file in dir as a skill: an optional YAML header between
// "---" lines, then the instructions handed to the model when one of its keywords
// appears in a request. A missing dir yields no skills. Files with a broken header are
// skipped with a warning; two skills with one name is an error.
func LoadSkills(dir string, log zerolog.Logger) ([]api.SkillRegistration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read skills dir %q: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var regs []api.SkillRegistration
	owner := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read skill %q: %w", path, err)
		}
		reg, err := parseSkill(path, data)
		if errors.Is(err, errBadFrontmatter) {
			log.Warn().Err(err).Str("path", path).Msg("skill skipped")
			continue
		}
		if err != nil {
			return nil, err
		}
		if prev, dup := owner[reg.Definition.Name]; dup {
			return nil, fmt.Errorf("duplicate skill %q in %s and %s", reg.Definition.Name, prev, path)
		}
		owner[reg.Definition.Name] = path
		regs = append(regs, reg)
	}
	log.Debug().Int("count", len(regs)).Str("dir", dir).Msg("skills loaded")
	return regs, nil
}

// parseSkill builds a registration from one file. The name defaults to the file name.
func parseSkill(path string, data []byte) (api.SkillRegistration, error) {
	header, body, err := splitHeader(string(data))
	if err != nil {
		return api.SkillRegistration{}, fmt.Errorf("%w in %s: %v", errBadFrontmatter, path, err)
	}
	name := strings.TrimSpace(header.Name)
	if name == "" {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(base)), " ", "-")
	}
	if !validSkillName.MatchString(name) {
		return api.SkillRegistration{}, fmt.Errorf("%w in %s: bad name %q", errBadFrontmatter, path, name)
	}
	instructions := strings.TrimSpace(body)
	if instructions == "" {
		return api.SkillRegistration{}, fmt.Errorf("skill %q in %s has no instructions", name, path)
	}

	def := runtimeskills.Definition{
		Name:        name,
		Description: strings.TrimSpace(header.Description),
	}
	if kw := keywordSet(header.Keywords); len(kw) > 0 {
		def.Matchers = []runtimeskills.Matcher{runtimeskills.KeywordMatcher{Any: kw}}
	}
	handler := runtimeskills.HandlerFunc(func(context.Context, runtimeskills.ActivationContext) (runtimeskills.Result, error) {
		return runtimeskills.Result{
			Skill:    name,
			Output:   instructions,
			Metadata: map[string]any{"system_prompt": instructions, "source_path": path},
		}, nil
	})
	return api.SkillRegistration{Definition: def, Handler: handler}, nil
}

// splitHeader separates an optional "---" delimited YAML header from the body.
func splitHeader(text string) (skillHeader, string, error) {
	text = strings.TrimPrefix(text, "\uFEFF")
	rest, ok := strings.CutPrefix(strings.TrimLeft(text, "\r\n"), "---")
	if !ok {
		return skillHeader{}, text, nil
	}
	raw, body, ok := strings.Cut(rest, "\n---")
	if !ok {
		return skillHeader{}, "", errors.New("header is not closed")
	}
	var h skillHeader
	if err := yaml.Unmarshal([]byte(raw), &h); err != nil {
		return skillHeader{}, "", err
	}
	// Drop the remainder of the closing "---" line.
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}
	return h, body, nil
}

func keywordSet(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, k := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
