package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-laserrange/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestListFrameFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"frame-10.jpg",
		"frame-2.png",
		"frame-1.JPG",
		"notes.txt",
		"frame-x.jpg",
		"still.png",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "frame-3.jpg"), 0o700))

	frames, err := ListFrameFiles(dir)
	require.NoError(t, err)

	var numbers []int
	for _, f := range frames {
		numbers = append(numbers, f.Frame)
	}
	assert.Equal(t, []int{1, 2, 10}, numbers)
	assert.Equal(t, filepath.Join(dir, "frame-10.jpg"), frames[2].Path)
}

func TestListFrameFilesMissingDir(t *testing.T) {
	_, err := ListFrameFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestFrameFileRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame-1.png")

	frame := images.NewBlankFrame(64, 48)
	defer frame.Close()
	require.True(t, gocv.IMWrite(path, frame))

	mat, err := FrameFile{Path: path, Frame: 1}.Read()
	require.NoError(t, err)
	defer mat.Close()
	assert.Equal(t, 64, mat.Cols())
	assert.Equal(t, 48, mat.Rows())
	assert.Equal(t, 3, mat.Channels())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame-2.png"), []byte("not a png"), 0o600))
	_, err = FrameFile{Path: filepath.Join(dir, "frame-2.png")}.Read()
	assert.Error(t, err)
}
