package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credsearch/internal/search/models"
)

var header = Header{Key: "netflix.com", GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

func TestFileBase(t *testing.T) {
	assert.Equal(t, "netflix.com", FileBase("netflix.com"))
	assert.Equal(t, "_.gov.br", FileBase("*.gov.br"))
	assert.Equal(t, "my-site_2.com", FileBase("my-site_2.com"))
	assert.Equal(t, "a_b_c", FileBase("a/b c"))
}

func TestSectionsFor(t *testing.T) {
	t.Run("backend outcome is split by source", func(t *testing.T) {
		out := &models.Outcome{
			Results:  models.NewResultSet("a:1", "b:2"),
			Local:    models.NewResultSet("a:1"),
			External: models.NewResultSet("b:2"),
		}
		assert.Equal(t, []Section{
			{Source: SourceLocal, Records: []string{"a:1"}},
			{Source: SourceExternal, Records: []string{"b:2"}},
		}, SectionsFor(out))
	})

	t.Run("cache hit is one section", func(t *testing.T) {
		out := &models.Outcome{Results: models.NewResultSet("a:1"), FromCache: true}
		assert.Equal(t, []Section{{Source: SourceCache, Records: []string{"a:1"}}}, SectionsFor(out))
	})

	t.Run("local only", func(t *testing.T) {
		out := &models.Outcome{Results: models.NewResultSet("a:1"), Local: models.NewResultSet("a:1")}
		assert.Len(t, SectionsFor(out), 1)
	})
}

func TestWriteRaw(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteRaw(&buf, header, []Section{
		{Source: SourceLocal, Records: []string{"a@netflix.com:pw1"}},
		{Source: SourceExternal, Records: []string{"b@netflix.com:pw2", "nocolon"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	out := buf.String()
	assert.Contains(t, out, "# Domain: netflix.com\n")
	assert.Contains(t, out, "# Generated: 2026-03-01T12:00:00Z\n")
	assert.True(t, strings.HasSuffix(out, "a@netflix.com:pw1\nb@netflix.com:pw2\nnocolon\n"))
}

func TestWriteFormatted(t *testing.T) {
	var buf bytes.Buffer
	counts, err := WriteFormatted(&buf, header, []Section{
		{Source: SourceLocal, Records: []string{" a@netflix.com : pw:with:colons "}},
		{Source: SourceExternal, Records: []string{"nocolon", "b@netflix.com:pw2"}},
	})
	require.NoError(t, err)
	assert.Equal(t, Counts{Formatted: 2, Skipped: 1}, counts)

	out := buf.String()
	assert.Contains(t, out, "URL: netflix.com\nLOGIN: a@netflix.com\nPASSWORD: pw:with:colons\nSOURCE: LOCAL\n")
	assert.Contains(t, out, "LOGIN: b@netflix.com\nPASSWORD: pw2\nSOURCE: EXTERNAL\n")
	assert.NotContains(t, out, "nocolon")
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	h := Header{Key: "*.gov.br", GeneratedAt: header.GeneratedAt}

	files, err := WriteFiles(dir, h, []Section{{Source: SourceLocal, Records: []string{"u:p", "junk"}}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "_.gov.br_logins.txt"), files.RawPath)
	assert.Equal(t, filepath.Join(dir, "_.gov.br_formatted.txt"), files.FormattedPath)
	assert.Equal(t, 2, files.Records)
	assert.Equal(t, 1, files.Formatted)
	assert.Equal(t, 1, files.Skipped)

	raw, err := os.ReadFile(files.RawPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "u:p\njunk\n")

	formatted, err := os.ReadFile(files.FormattedPath)
	require.NoError(t, err)
	assert.Contains(t, string(formatted), "LOGIN: u\nPASSWORD: p\n")
}
