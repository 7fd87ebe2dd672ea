package vision

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touchTemplate(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("png"), 0644))
}

func TestLibrary_ForProfile(t *testing.T) {
	dir := t.TempDir()
	profileDir := filepath.Join(dir, "chase_bus")
	require.NoError(t, os.MkdirAll(profileDir, 0755))

	touchTemplate(t, profileDir, "Username2.png")
	touchTemplate(t, profileDir, "Username1.png")
	touchTemplate(t, profileDir, "Password1.png")
	touchTemplate(t, profileDir, "submit.png")

	lib := NewLibrary(dir)

	t.Run("filters by role marker in filename order", func(t *testing.T) {
		templates, err := lib.ForProfile("chase_bus", "Username")
		require.NoError(t, err)
		require.Len(t, templates, 2)
		assert.Equal(t, filepath.Join(profileDir, "Username1.png"), templates[0].Path)
		assert.Equal(t, filepath.Join(profileDir, "Username2.png"), templates[1].Path)
		assert.Equal(t, DefaultThreshold, templates[0].Threshold)
	})

	t.Run("roles do not bleed into each other", func(t *testing.T) {
		templates, err := lib.ForProfile("chase_bus", "Password")
		require.NoError(t, err)
		require.Len(t, templates, 1)
		assert.Contains(t, templates[0].Path, "Password1.png")
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := lib.ForProfile("chase_bus", "Token")
		assert.Error(t, err)
	})

	t.Run("unknown profile", func(t *testing.T) {
		_, err := lib.ForProfile("other_bank", "Username")
		assert.Error(t, err)
	})

	t.Run("subdirectories are ignored", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Join(profileDir, "Username_old"), 0755))
		templates, err := lib.ForProfile("chase_bus", "Username")
		require.NoError(t, err)
		assert.Len(t, templates, 2)
	})
}
