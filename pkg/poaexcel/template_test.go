package poaexcel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplateKeepsDefaults(t *testing.T) {
	tmpl, err := ParseTemplate([]byte(`
notes:
  - "Nota única"
colors:
  total: "FFC000"
`))
	require.NoError(t, err)

	def := DefaultTemplate()
	assert.Equal(t, def.Letterhead, tmpl.Letterhead)
	assert.Equal(t, def.CodeLabel, tmpl.CodeLabel)
	assert.Equal(t, []string{"Nota única"}, tmpl.Notes)
	assert.Equal(t, "FFC000", tmpl.Colors.Total)
	assert.Equal(t, def.Colors.Header, tmpl.Colors.Header)
}

func TestParseTemplateValidation(t *testing.T) {
	_, err := ParseTemplate([]byte("letterhead: [\"solo una\"]"))
	assert.Error(t, err)

	_, err = ParseTemplate([]byte("notes: []"))
	assert.Error(t, err)

	_, err = ParseTemplate([]byte("letterhead: {"))
	assert.Error(t, err)
}

func TestLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poa.yaml")
	require.NoError(t, os.WriteFile(path, []byte("code_label: \"PROYECTO {code}\"\n"), 0o600))

	tmpl, err := LoadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, "PROYECTO {code}", tmpl.CodeLabel)

	_, err = LoadTemplate(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
