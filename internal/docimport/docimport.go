// Package docimport loads text files from a directory tree into the docs collection.
package docimport

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/dashboard"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

// MaxFileSize is the largest file Scan reads; bigger files are skipped.
const MaxFileSize = 1 << 20

var (
	extensions  = []string{".md", ".txt", ".json"}
	excludeDirs = []string{"node_modules", ".git", ".next", "dist", "build"}
)

// File is one importable file found by Scan.
type File struct {
	Path     string
	Title    string
	Category string
	Content  string
}

// Importer is the part of *dashboard.Board used by Import.
type Importer interface {
	ImportDocs(ctx context.Context, source string, ins []dashboard.DocInput) ([]models.Doc, error)
}

// Scan walks root and returns every non-empty .md, .txt and .json file, skipping dependency and
// build directories. Title is the file name without its extension; Category is the directory
// relative to root, or root's own name for top-level files.
func Scan(root string) ([]File, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	base := filepath.Base(filepath.Clean(root))

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("docimport: skipping unreadable path", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && slices.Contains(excludeDirs, d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if !d.Type().IsRegular() || !slices.Contains(extensions, ext) {
			return nil
		}
		fi, err := d.Info()
		if err != nil || fi.Size() > MaxFileSize {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("docimport: read failed", "path", path, "err", err)
			return nil
		}
		if strings.TrimSpace(string(raw)) == "" {
			return nil
		}
		rel, _ := filepath.Rel(root, filepath.Dir(path))
		category := filepath.ToSlash(rel)
		if category == "." || category == "" {
			category = base
		}
		files = append(files, File{
			Path:     path,
			Title:    strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())),
			Category: category,
			Content:  string(raw),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Import scans root and creates one doc per file, recorded as a single docs_imported entry.
func Import(ctx context.Context, im Importer, root string) ([]models.Doc, error) {
	files, err := Scan(root)
	if err != nil {
		return nil, err
	}
	ins := make([]dashboard.DocInput, 0, len(files))
	for _, f := range files {
		category := f.Category
		ins = append(ins, dashboard.DocInput{Title: f.Title, Content: f.Content, Category: &category})
	}
	return im.ImportDocs(ctx, root, ins)
}
