package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// FramePrefix is the file name prefix of recorded frames, e.g. frame-0042.jpg.
const FramePrefix = "frame-"

// FrameFile is one recorded frame on disk.
type FrameFile struct {
	// Path is the path to the image file.
	Path string
	// Frame is the frame number parsed from the file name.
	Frame int
}

// ListFrameFiles returns the recorded frames in dir ordered by frame number.
//
// Only files named frame-<n>.{jpg,jpeg,png,bmp} are returned; other files are
// skipped. Pixels are not read here so long recordings do not sit in memory.
//
// Arguments:
// - dir: Directory path containing frame files.
//
// Returns:
// - []FrameFile: Frames sorted by frame number.
// - error: Error if the directory cannot be read.
func ListFrameFiles(dir string) ([]FrameFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read frame directory %s", dir)
	}

	var frames []FrameFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".bmp":
		default:
			continue
		}

		if !strings.HasPrefix(name, FramePrefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, FramePrefix), filepath.Ext(name)))
		if err != nil {
			continue
		}

		frames = append(frames, FrameFile{
			Path:  filepath.Join(dir, name),
			Frame: n,
		})
	}

	sort.Slice(frames, func(i, j int) bool {
		return frames[i].Frame < frames[j].Frame
	})

	return frames, nil
}

// Read decodes the frame as a BGR Mat. The caller must Close it.
func (f FrameFile) Read() (gocv.Mat, error) {
	mat := gocv.IMRead(f.Path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return gocv.Mat{}, errors.Errorf("decode frame %s", f.Path)
	}
	return mat, nil
}
