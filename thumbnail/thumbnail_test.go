package thumbnail

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderRequiresTitle(t *testing.T) {
	_, err := Render("", "missing.ttf", t.TempDir())
	assert.Error(t, err)
}

func TestRenderMissingFontFile(t *testing.T) {
	_, err := Render("My Video", "does-not-exist.ttf", t.TempDir())
	assert.Error(t, err)
}

func TestRenderRejectsInvalidFont(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.ttf")
	assert.NoError(t, os.WriteFile(bad, []byte("not a font"), 0o644))
	_, err := Render("My Video", bad, dir)
	assert.Error(t, err)
}
