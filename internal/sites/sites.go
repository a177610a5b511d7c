// Package sites resolves spoken website names to URLs.
package sites

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const FileName = "sites.yaml"

const (
	defaultSearchURL      = "https://www.google.com/search?q="
	defaultVideoSearchURL = "https://www.youtube.com/results?search_query="
)

var defaultAliases = map[string]string{
	"youtube":   "https://www.youtube.com",
	"google":    "https://www.google.com",
	"gmail":     "https://mail.google.com",
	"github":    "https://github.com",
	"chatgpt":   "https://chat.openai.com",
	"gemini":    "https://gemini.google.com",
	"spotify":   "https://open.spotify.com",
	"netflix":   "https://www.netflix.com",
	"amazon":    "https://www.amazon.com",
	"facebook":  "https://www.facebook.com",
	"twitter":   "https://twitter.com",
	"instagram": "https://www.instagram.com",
	"whatsapp":  "https://web.whatsapp.com",
	"linkedin":  "https://www.linkedin.com",
	"reddit":    "https://www.reddit.com",
	"discord":   "https://discord.com",
	"slack":     "https://slack.com",
	"zoom":      "https://zoom.us",
	"teams":     "https://teams.microsoft.com",
}

type fileFormat struct {
	Sites          map[string]string `yaml:"sites"`
	SearchURL      string            `yaml:"search"`
	VideoSearchURL string            `yaml:"videoSearch"`
}

// Table maps lower-case names to URLs.
type Table struct {
	aliases        map[string]string
	searchURL      string
	videoSearchURL string
}

func Default() *Table {
	t := &Table{
		aliases:        make(map[string]string, len(defaultAliases)),
		searchURL:      defaultSearchURL,
		videoSearchURL: defaultVideoSearchURL,
	}
	for k, v := range defaultAliases {
		t.aliases[k] = v
	}
	return t
}

// Load returns the default table overlaid with path. A missing file is not an error.
func Load(path string) (*Table, error) {
	t := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return t, nil
		}
		return nil, fmt.Errorf("read sites file %q: %w", path, err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sites file %q: %w", path, err)
	}
	for name, u := range f.Sites {
		name = strings.ToLower(strings.TrimSpace(name))
		u = strings.TrimSpace(u)
		if name == "" || u == "" {
			continue
		}
		t.aliases[name] = u
	}
	if s := strings.TrimSpace(f.SearchURL); s != "" {
		t.searchURL = s
	}
	if s := strings.TrimSpace(f.VideoSearchURL); s != "" {
		t.videoSearchURL = s
	}
	return t, nil
}

// Resolve returns the URL for name. Unknown names become https://www.<name>.com with
// spaces removed.
func (t *Table) Resolve(name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", false
	}
	if u, ok := t.aliases[key]; ok {
		return u, true
	}
	return "https://www." + strings.ReplaceAll(key, " ", "") + ".com", false
}

func (t *Table) SearchURL(query string) string {
	return t.searchURL + url.QueryEscape(query)
}

func (t *Table) VideoSearchURL(query string) string {
	return t.videoSearchURL + url.QueryEscape(query)
}

func (t *Table) Names() []string {
	names := make([]string, 0, len(t.aliases))
	for k := range t.aliases {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
