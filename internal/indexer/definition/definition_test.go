package definition

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spindrift-media/spindrift/internal/torznab"
)

const sampleDefinition = `---
id: exampletracker
name: Example Tracker
description: A private tracker for testing
language: en-US
type: private
encoding: UTF-8
links:
  - https://example-tracker.net/

caps:
  categorymappings:
    - {id: "41", cat: Movies/HD, desc: "HD Movies"}
    - {id: "42", cat: Movies/UHD, desc: "4K Movies"}
    - {id: "50", cat: TV/HD}
    - {id: "99", cat: Weird/Unknown}
  modes:
    search: [q]
    tv-search: [q, season, ep, imdbid]
    movie-search: [q, imdbid]

settings:
  - name: username
    type: text
    label: Username
  - name: password
    type: password
    label: Password
  - name: freeleech
    type: checkbox
    label: Freeleech only

login:
  path: /login.php
  method: form
  form: form[action="takelogin.php"]
  inputs:
    username: "{{ .Config.username }}"
    password: "{{ .Config.password }}"
  error:
    - selector: td.embedded:has(h2)

search:
  paths:
    - path: /browse.php
  inputs:
    search: "{{ .Keywords }}"
  rows:
    selector: table#torrenttable > tbody > tr
    after: 1
  fields:
    title:
      selector: a[href^="details.php"]
    download:
      selector: a[href^="download.php"]
      attribute: href
    size:
      selector: td:nth-child(5)
    seeders:
      selector: td:nth-child(7)
`

func TestParse(t *testing.T) {
	def, err := Parse([]byte(sampleDefinition))
	require.NoError(t, err)

	assert.Equal(t, "exampletracker", def.ID)
	assert.Equal(t, "Example Tracker", def.Name)
	assert.Equal(t, "private", def.Type)
	assert.Equal(t, "https://example-tracker.net/", def.SiteLink())
	require.NotNil(t, def.Login)
	assert.Equal(t, "form", def.Login.Method)
	assert.Len(t, def.Search.Fields, 4)
	assert.Equal(t, 1, def.Search.Rows.After)
}

func TestParseRejectsIncompleteDefinitions(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing id", "name: X\ntype: public\nlinks: [https://x.example]\ncaps:\n  modes:\n    search: [q]"},
		{"missing links", "id: x\nname: X\ntype: public\ncaps:\n  modes:\n    search: [q]"},
		{"bad type", "id: x\nname: X\ntype: wat\nlinks: [https://x.example]\ncaps:\n  modes:\n    search: [q]"},
		{"no modes", "id: x\nname: X\ntype: public\nlinks: [https://x.example]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestToCapabilities(t *testing.T) {
	def, err := Parse([]byte(sampleDefinition))
	require.NoError(t, err)

	caps := def.ToCapabilities()
	assert.True(t, caps.SupportsSearch())
	assert.True(t, caps.SupportsTVSearch())
	assert.True(t, caps.SupportsMovieSearch())
	assert.False(t, caps.SupportsMusicSearch())

	assert.Contains(t, caps.TVSearchParams, torznab.ParamSeason)
	assert.Contains(t, caps.TVSearchParams, torznab.ParamImdbID)

	require.Len(t, caps.Categories, 4)
	byTracker := make(map[string]torznab.CategoryMapping)
	for _, mapping := range caps.Categories {
		byTracker[mapping.TrackerID] = mapping
	}

	assert.Equal(t, torznab.CategoryMoviesHD, byTracker["41"].TorznabCat)
	assert.Equal(t, "HD Movies", byTracker["41"].Description)
	assert.Equal(t, torznab.CategoryTVHD, byTracker["50"].TorznabCat)
	assert.Equal(t, "TV/HD", byTracker["50"].Description)

	// Unmappable category names land in Other.
	assert.Equal(t, torznab.CategoryOther, byTracker["99"].TorznabCat)
}

func TestRequiredSettings(t *testing.T) {
	def, err := Parse([]byte(sampleDefinition))
	require.NoError(t, err)

	required := def.RequiredSettings()
	require.Len(t, required, 2)
	assert.Equal(t, "username", required[0].Name)
	assert.Equal(t, "password", required[1].Name)
}

func TestRepositoryLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "exampletracker.yml"), []byte(sampleDefinition), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("id: broken\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	repo := NewRepository(dir, zerolog.Nop())
	require.NoError(t, repo.Load())

	assert.Equal(t, 1, repo.Count())

	def, ok := repo.Get("exampletracker")
	require.True(t, ok)
	assert.Equal(t, "Example Tracker", def.Name)

	_, ok = repo.Get("broken")
	assert.False(t, ok)

	list := repo.List()
	require.Len(t, list, 1)
	assert.Equal(t, "exampletracker", list[0].ID)
}

func TestRepositoryLoadMissingDir(t *testing.T) {
	repo := NewRepository("/nonexistent/definitions", zerolog.Nop())
	assert.Error(t, repo.Load())
}
