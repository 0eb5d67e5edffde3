package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironfeed-hq/ironfeed/internal/domain"
)

func writeSourcesFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeSourcesFile(t, "sources.yaml", `
sources:
  - uri: https://www.bodybuilding.com/rss/articles
    label: bodybuilding.com
  - uri: reddit:r/bodybuilding
  - uri: https://npcnewsonline.com/schedule/
    kind: html
    federation: NPC
    html:
      containers: [".tribe-events-list-event"]
      title: ["h3 a"]
`)

	srcs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, srcs, 3)

	// Declaration order is preserved.
	assert.Equal(t, "https://www.bodybuilding.com/rss/articles", srcs[0].URI)
	assert.Equal(t, domain.SourceKindFeed, srcs[0].Kind)
	assert.Equal(t, "bodybuilding.com", srcs[0].Label)

	assert.Equal(t, "reddit:r/bodybuilding", srcs[1].URI)
	assert.Equal(t, domain.SourceKindFeed, srcs[1].Kind)

	html := srcs[2]
	assert.Equal(t, domain.SourceKindHTML, html.Kind)
	assert.Equal(t, "NPC", html.Federation)
	require.NotNil(t, html.HTML)
	// Declared selectors override defaults; undeclared fields keep them.
	assert.Equal(t, []string{".tribe-events-list-event"}, html.HTML.Containers)
	assert.Equal(t, []string{"h3 a"}, html.HTML.Title)
	assert.Equal(t, defaultHTMLRules.Link, html.HTML.Link)
	assert.Equal(t, defaultHTMLRules.Date, html.HTML.Date)
}

func TestLoadJSON(t *testing.T) {
	path := writeSourcesFile(t, "sources.json", `{
		"sources": [
			{"uri": "https://generationiron.com/feed/", "label": "generationiron.com"}
		]
	}`)

	srcs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, srcs, 1)
	assert.Equal(t, "https://generationiron.com/feed/", srcs[0].URI)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SCHEDULE_HOST", "npcnewsonline.com")
	path := writeSourcesFile(t, "sources.yaml", `
sources:
  - uri: https://${SCHEDULE_HOST}/schedule/
    kind: html
`)

	srcs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, srcs, 1)
	assert.Equal(t, "https://npcnewsonline.com/schedule/", srcs[0].URI)
}

func TestLoadRejectsMissingURI(t *testing.T) {
	path := writeSourcesFile(t, "sources.yaml", `
sources:
  - label: nameless
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uri is required")
}

func TestLoadRejectsUnknownKind(t *testing.T) {
	path := writeSourcesFile(t, "sources.yaml", `
sources:
  - uri: https://a.example
    kind: sitemap
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestLoadRejectsHTMLShorthand(t *testing.T) {
	path := writeSourcesFile(t, "sources.yaml", `
sources:
  - uri: yt:@sampsontv
    kind: html
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be an html source")
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeSourcesFile(t, "sources.yaml", `sources: []`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLabelFor(t *testing.T) {
	assert.Equal(t, "www.reddit.com", labelFor("https://www.reddit.com/r/bodybuilding/.rss"))
	assert.Equal(t, "not a url", labelFor("not a url"))
}
