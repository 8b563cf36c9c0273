package inference

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ConversionResult is a stored conversion. AudioPath is unique per
// submission.
type ConversionResult struct {
	ID          string
	AudioPath   string
	Filename    string
	ContentType string
	Size        int64
}

// ProgressFunc returns a writer that observes the stored bytes. total is -1
// when the response length is unknown.
type ProgressFunc func(total int64) io.Writer

// Store keeps converted audio as files in a directory.
type Store struct {
	dir      string
	progress ProgressFunc
}

func NewStore(dir string, progress ProgressFunc) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}
	return &Store{dir: filepath.Clean(dir), progress: progress}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save writes audio under a fresh name derived from file and model. A body
// that fails mid-read leaves no file behind.
func (s *Store) Save(audio *Audio, file UploadedFile, params Params) (ConversionResult, error) {
	id := uuid.NewString()
	target := filepath.Join(s.dir, resultName(file.Name, string(params.Model), id, audio.ContentType))
	tempPath := target + ".part"

	out, err := os.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return ConversionResult{}, fmt.Errorf("create temp file: %w", err)
	}

	success := false
	defer func() {
		_ = out.Close()
		if !success {
			_ = os.Remove(tempPath)
		}
	}()

	var writer io.Writer = out
	if s.progress != nil {
		total := audio.Size
		if total <= 0 {
			total = -1
		}
		if observer := s.progress(total); observer != nil {
			writer = io.MultiWriter(out, observer)
		}
	}

	written, err := io.Copy(writer, audio.Body)
	if err != nil {
		return ConversionResult{}, fmt.Errorf("read response body: %w", err)
	}
	if err := out.Sync(); err != nil {
		return ConversionResult{}, fmt.Errorf("sync temp file: %w", err)
	}
	if err := out.Close(); err != nil {
		return ConversionResult{}, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tempPath, target); err != nil {
		return ConversionResult{}, fmt.Errorf("move temp file into place: %w", err)
	}

	success = true
	return ConversionResult{
		ID:          id,
		AudioPath:   target,
		Filename:    file.Name,
		ContentType: audio.ContentType,
		Size:        written,
	}, nil
}

// Export copies a stored result to dest, creating parent directories.
func (s *Store) Export(result ConversionResult, dest string) (string, error) {
	if strings.TrimSpace(dest) == "" {
		return "", errors.New("export destination is required")
	}

	dest = filepath.Clean(dest)
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		dest = filepath.Join(dest, filepath.Base(result.AudioPath))
	}
	if same, err := samePath(result.AudioPath, dest); err != nil {
		return "", err
	} else if same {
		return dest, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	in, err := os.Open(result.AudioPath)
	if err != nil {
		return "", fmt.Errorf("open converted audio: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return "", fmt.Errorf("copy converted audio: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	return dest, nil
}

// samePath reports whether a and b name the same file, so an export onto
// the stored result does not truncate it.
func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", a, err)
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", b, err)
	}
	if absA == absB {
		return true, nil
	}

	infoA, errA := os.Stat(absA)
	infoB, errB := os.Stat(absB)
	if errA != nil || errB != nil {
		return false, nil
	}
	return os.SameFile(infoA, infoB), nil
}

func resultName(uploadName, model, id, contentType string) string {
	ext := strings.ToLower(filepath.Ext(uploadName))
	stem := strings.TrimSuffix(uploadName, filepath.Ext(uploadName))
	if stem == "" {
		stem = "audio"
	}

	switch {
	case strings.Contains(contentType, "wav"):
		ext = ".wav"
	case strings.Contains(contentType, "mpeg"), strings.Contains(contentType, "mp3"):
		ext = ".mp3"
	case ext == "":
		ext = ".wav"
	}

	return fmt.Sprintf("%s-%s-%s%s", stem, model, id, ext)
}
