package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-laserrange/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestValidateInputFlags(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "drive.mp4")
	image := filepath.Join(dir, "still.png")
	text := filepath.Join(dir, "notes.txt")
	for _, p := range []string{video, image, text} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}

	tests := []struct {
		name      string
		video     string
		image     string
		frames    string
		expected  InputType
		expectErr bool
	}{
		{name: "Camera by default", expected: InputCamera},
		{name: "Video", video: video, expected: InputVideo},
		{name: "Image", image: image, expected: InputImage},
		{name: "Frames", frames: dir, expected: InputFrames},
		{name: "Video and image", video: video, image: image, expectErr: true},
		{name: "Missing video", video: filepath.Join(dir, "missing.mp4"), expectErr: true},
		{name: "Unsupported image", image: text, expectErr: true},
		{name: "Frames not a directory", frames: image, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := validateInputFlags(tt.video, tt.image, tt.frames, 2)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.Type)
			if tt.expected == InputCamera {
				assert.Equal(t, 2, cfg.DeviceID)
			}
		})
	}
}

func TestDirectorySource(t *testing.T) {
	dir := t.TempDir()
	frame := images.NewBlankFrame(320, 240)
	defer frame.Close()
	for _, name := range []string{"frame-2.png", "frame-1.png"} {
		require.True(t, gocv.IMWrite(filepath.Join(dir, name), frame))
	}

	source, err := newDirectorySource(dir)
	require.NoError(t, err)
	defer source.Close()

	img := gocv.NewMat()
	defer img.Close()

	for i := 0; i < 2; i++ {
		ok, err := source.Read(&img)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 320, img.Cols())
	}
	ok, err := source.Read(&img)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = newDirectorySource(t.TempDir())
	assert.Error(t, err)
}
