package upload

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one file discovered by Walk. DiskPath is openable with
// os.Open; WirePath is the slash-separated relative path sent to the
// server, with any leading separator stripped (spec.md §4.F).
type Entry struct {
	DiskPath string
	WirePath string
	Size     int64
}

// Walk performs a depth-first traversal of root, yielding one Entry per
// regular file in the order filepath.WalkDir visits them. Empty
// directories are silently skipped, since they simply produce no
// entries. root may itself be a single file, in which case WirePath is
// just its base name.
func Walk(root string) ([]Entry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []Entry{{DiskPath: root, WirePath: filepath.Base(root), Size: info.Size()}}, nil
	}

	base := filepath.Base(root)
	var entries []Entry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		wire := filepath.ToSlash(filepath.Join(base, rel))
		wire = strings.TrimPrefix(wire, "/")

		fi, statErr := d.Info()
		if statErr != nil {
			return statErr
		}
		entries = append(entries, Entry{DiskPath: path, WirePath: wire, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
