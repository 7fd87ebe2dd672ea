package vision

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Library holds the per-profile reference images used to locate login
// controls. Templates live under {dir}/{profile}/ and are selected by a
// role marker in the filename (e.g. Username, Password, submit), so
// different account profiles can carry visually distinct login widgets.
type Library struct {
	dir string
}

// NewLibrary creates a library rooted at dir.
func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

// ForProfile returns the templates for one profile whose filename contains
// the given role marker, in filename order.
func (l *Library) ForProfile(profile, role string) ([]Template, error) {
	profileDir := filepath.Join(l.dir, profile)
	entries, err := os.ReadDir(profileDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read template directory %s: %w", profileDir, err)
	}

	var templates []Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), role) {
			continue
		}
		templates = append(templates, Template{
			Path:      filepath.Join(profileDir, entry.Name()),
			Threshold: DefaultThreshold,
		})
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Path < templates[j].Path })

	if len(templates) == 0 {
		return nil, fmt.Errorf("no %q templates for profile %s", role, profile)
	}
	return templates, nil
}
