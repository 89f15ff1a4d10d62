// package scanner builds the local inventory for an upload run.
//
// Scanning is read-only: it lists media files, derives their collection keys,
// pairs subtitle sidecars and orders everything naturally so numbered course
// content uploads in sequence.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mossridge/ytup/internal/models"
	"github.com/mossridge/ytup/internal/shared"
)

const (
	mediaExt   = ".mp4"
	captionExt = ".srt"
)

// NormalizeKey derives the collection-unique key for a media file: the base
// name without extension, with surrounding whitespace trimmed.
func NormalizeKey(filename string) string {
	base := filepath.Base(filename)
	key := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSpace(key)
}

// CollectionName derives the remote collection name for a folder.
func CollectionName(folder string) string {
	return filepath.Base(filepath.Clean(folder))
}

// ListItems scans one folder for media files and returns them as Items in
// natural order, with caption sidecars attached where present.
func ListItems(folder string) ([]models.Item, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrFolderMissing, folder, err)
	}

	var items []models.Item
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), mediaExt) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}

		path := filepath.Join(folder, entry.Name())
		items = append(items, models.Item{
			Key:         NormalizeKey(entry.Name()),
			Path:        path,
			Size:        info.Size(),
			CaptionPath: FindCaption(folder, entry.Name()),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return NaturalLess(items[i].Key, items[j].Key)
	})

	return items, nil
}

// FindCaption locates the subtitle sidecar for a media file: an exact
// base-name match first, then any .srt whose name starts with the base
// (covers language-suffixed files like "01 Intro.en.srt").
func FindCaption(folder, mediaName string) string {
	base := strings.TrimSuffix(mediaName, filepath.Ext(mediaName))

	exact := filepath.Join(folder, base+captionExt)
	if _, err := os.Stat(exact); err == nil {
		return exact
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), captionExt) {
			continue
		}
		if strings.HasPrefix(name, base) {
			return filepath.Join(folder, name)
		}
	}
	return ""
}

// Folder is one collection-worth of local content.
type Folder struct {
	Name string
	Path string
}

// ListFolders resolves a master folder into collection folders: a folder
// containing media directly is a single collection; otherwise every subfolder
// holding media becomes its own collection.
func ListFolders(root string) ([]Folder, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrFolderMissing, root, err)
	}

	hasDirectMedia := false
	var subdirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			subdirs = append(subdirs, entry.Name())
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), mediaExt) {
			hasDirectMedia = true
		}
	}

	if hasDirectMedia {
		return []Folder{{Name: CollectionName(root), Path: root}}, nil
	}

	var folders []Folder
	for _, name := range subdirs {
		path := filepath.Join(root, name)
		items, err := ListItems(path)
		if err != nil {
			return nil, err
		}
		if len(items) > 0 {
			folders = append(folders, Folder{Name: name, Path: path})
		}
	}

	sort.Slice(folders, func(i, j int) bool {
		return NaturalLess(folders[i].Name, folders[j].Name)
	})

	return folders, nil
}

// NaturalLess compares two strings with numeric runs compared by value, so
// "2 Setup" sorts before "10 Advanced". Text runs compare case-insensitively.
func NaturalLess(a, b string) bool {
	for a != "" && b != "" {
		aRun, aNum, aRest := nextRun(a)
		bRun, bNum, bRest := nextRun(b)

		if aNum && bNum {
			av := trimLeadingZeros(aRun)
			bv := trimLeadingZeros(bRun)
			if len(av) != len(bv) {
				return len(av) < len(bv)
			}
			if av != bv {
				return av < bv
			}
		} else {
			al := strings.ToLower(aRun)
			bl := strings.ToLower(bRun)
			if al != bl {
				return al < bl
			}
		}

		a, b = aRest, bRest
	}
	return len(a) < len(b)
}

// nextRun splits off the leading run of digits or non-digits.
func nextRun(s string) (run string, numeric bool, rest string) {
	if s == "" {
		return "", false, ""
	}
	numeric = isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == numeric {
		i++
	}
	return s[:i], numeric, s[i:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func trimLeadingZeros(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
