// Package export turns a result list into named image files and zip archives.
package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/kiranshivaraju/remixer/pkg/models"
)

// DefaultArchiveName is the download name of the bulk archive.
const DefaultArchiveName = "nano-banana-remixes.zip"

// Entry is one file of an export.
type Entry struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Entries returns one entry per result, in the given order. Filenames are
// remix-<preset id>-<preset name>.png and pairwise distinct: a repeated name,
// which happens after a regeneration, gets a numeric suffix.
func Entries(results []models.GeneratedResult) []Entry {
	used := make(map[string]bool, len(results))
	out := make([]Entry, 0, len(results))
	for _, r := range results {
		base := fmt.Sprintf("remix-%d-%s", r.Preset.ID, SafeName(r.Preset.Name))
		out = append(out, Entry{
			Filename: unique(used, base, ".png"),
			MIMEType: r.Image.MIMEType,
			Data:     r.Image.Data,
		})
	}
	return out
}

// SingleFilename is the download name of one result on its own.
func SingleFilename(r models.GeneratedResult) string {
	return "remix-" + SafeName(r.Preset.Name) + ".png"
}

// SafeName replaces every whitespace character and path separator with "_".
func SafeName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, name)
}

func unique(used map[string]bool, base, ext string) string {
	name := base + ext
	for n := 2; used[name]; n++ {
		name = fmt.Sprintf("%s_%d%s", base, n, ext)
	}
	used[name] = true
	return name
}

// WriteZip writes entries to w as a zip archive.
func WriteZip(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		f, err := zw.Create(e.Filename)
		if err != nil {
			return fmt.Errorf("add %s to archive: %w", e.Filename, err)
		}
		if _, err := f.Write(e.Data); err != nil {
			return fmt.Errorf("write %s to archive: %w", e.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return nil
}

// Archive returns entries zipped in memory.
func Archive(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteZip(&buf, entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
