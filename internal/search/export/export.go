// Package export writes resolve results as report files: a raw list of
// credential lines and a formatted per-record report.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"credsearch/internal/search/models"
)

// Source labels where a block of records came from.
type Source string

const (
	SourceLocal    Source = "LOCAL"
	SourceExternal Source = "EXTERNAL"
	SourceCache    Source = "CACHE"
)

const (
	rule      = "# ====================================="
	wideRule  = "================================================================================"
	separator = "--------------------------------------------------"
)

var unsafeFileChars = regexp.MustCompile(`[^\w\-.]`)

// Section is an ordered group of records from one source.
type Section struct {
	Source  Source
	Records []string
}

// Header identifies the report.
type Header struct {
	Key         models.SearchKey
	GeneratedAt time.Time
}

// Counts summarises a formatted report. Records without a ':' separator
// are skipped in the formatted report but still appear in the raw one.
type Counts struct {
	Formatted int
	Skipped   int
}

// SectionsFor splits an outcome by source. A cache hit has no attribution
// and becomes a single cache section.
func SectionsFor(out *models.Outcome) []Section {
	if out == nil {
		return nil
	}
	if out.FromCache || (out.Local == nil && out.External == nil) {
		return []Section{{Source: SourceCache, Records: out.Results.Records()}}
	}
	sections := []Section{{Source: SourceLocal, Records: out.Local.Records()}}
	if out.External != nil {
		sections = append(sections, Section{Source: SourceExternal, Records: out.External.Records()})
	}
	return sections
}

// FileBase turns a key into a safe file name stem.
func FileBase(key models.SearchKey) string {
	return unsafeFileChars.ReplaceAllString(key.String(), "_")
}

// WriteRaw writes a comment header followed by one record per line and
// returns the number of records written.
func WriteRaw(w io.Writer, h Header, sections []Section) (int, error) {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "# Domain: %s\n", h.Key)
	fmt.Fprintf(bw, "# Generated: %s\n", h.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw)

	n := 0
	for _, s := range sections {
		for _, r := range s.Records {
			fmt.Fprintln(bw, r)
			n++
		}
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("write raw report: %w", err)
	}
	return n, nil
}

// WriteFormatted writes one block per record. A record is split on its
// first ':' into identifier and secret.
func WriteFormatted(w io.Writer, h Header, sections []Section) (Counts, error) {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, wideRule)
	fmt.Fprintf(bw, "%50s\n", "CREDENTIAL SEARCH RESULTS")
	fmt.Fprintln(bw, wideRule)
	fmt.Fprintf(bw, "Domain searched: %s\n", h.Key)
	fmt.Fprintf(bw, "Generated: %s\n", h.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintln(bw, wideRule)
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "RESULTS:")
	fmt.Fprintln(bw)

	var c Counts
	for _, s := range sections {
		for _, r := range s.Records {
			ident, secret, ok := strings.Cut(r, ":")
			if !ok {
				c.Skipped++
				continue
			}
			fmt.Fprintf(bw, "URL: %s\n", h.Key)
			fmt.Fprintf(bw, "LOGIN: %s\n", strings.TrimSpace(ident))
			fmt.Fprintf(bw, "PASSWORD: %s\n", strings.TrimSpace(secret))
			fmt.Fprintf(bw, "SOURCE: %s\n", s.Source)
			fmt.Fprintln(bw, separator)
			fmt.Fprintln(bw)
			c.Formatted++
		}
	}
	if err := bw.Flush(); err != nil {
		return c, fmt.Errorf("write formatted report: %w", err)
	}
	return c, nil
}

// Files describes a written report pair.
type Files struct {
	RawPath       string
	FormattedPath string
	Records       int
	Counts
}

// WriteFiles writes <base>_logins.txt and <base>_formatted.txt into dir.
func WriteFiles(dir string, h Header, sections []Section) (Files, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return Files{}, fmt.Errorf("create export dir: %w", err)
	}
	base := FileBase(h.Key)
	files := Files{
		RawPath:       filepath.Join(dir, base+"_logins.txt"),
		FormattedPath: filepath.Join(dir, base+"_formatted.txt"),
	}

	n, err := writeFile(files.RawPath, func(w io.Writer) (int, error) {
		return WriteRaw(w, h, sections)
	})
	if err != nil {
		return Files{}, err
	}
	files.Records = n

	var counts Counts
	_, err = writeFile(files.FormattedPath, func(w io.Writer) (int, error) {
		c, err := WriteFormatted(w, h, sections)
		counts = c
		return c.Formatted, err
	})
	if err != nil {
		return Files{}, err
	}
	files.Counts = counts
	return files, nil
}

func writeFile(path string, write func(io.Writer) (int, error)) (int, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	n, werr := write(f)
	if cerr := f.Close(); werr == nil && cerr != nil {
		werr = fmt.Errorf("close %s: %w", filepath.Base(path), cerr)
	}
	return n, werr
}
