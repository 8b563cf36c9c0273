package inference

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"
)

var (
	acceptedMIMETypes  = []string{"audio/mpeg", "audio/mp3", "audio/wav"}
	acceptedExtensions = []string{".mp3", ".wav"}

	separatorChars  = regexp.MustCompile(`[ '\-()]`)
	strippedChars   = regexp.MustCompile(`[$%]`)
	disallowedChars = regexp.MustCompile(`[^a-zA-Z0-9.]`)
	underscoreRuns  = regexp.MustCompile(`_{2,}`)
)

// Candidate is a file handed over by the picker before validation.
type Candidate struct {
	Name     string
	MIMEType string
	Data     []byte
}

// UploadedFile is an accepted audio payload with a normalized name.
type UploadedFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

// IsAcceptedMIMEType matches mimeType exactly against the accepted set.
func IsAcceptedMIMEType(mimeType string) bool {
	return lo.Contains(acceptedMIMETypes, mimeType)
}

// ValidateFile rejects candidates whose declared type is not an accepted
// audio type and returns a copy carrying the normalized filename.
func ValidateFile(c Candidate) (UploadedFile, error) {
	if !IsAcceptedMIMEType(c.MIMEType) {
		return UploadedFile{}, fmt.Errorf("%w: %q has type %q", ErrFileTypeRejected, c.Name, c.MIMEType)
	}

	return UploadedFile{
		Name:     NormalizeFilename(c.Name),
		MIMEType: c.MIMEType,
		Data:     c.Data,
	}, nil
}

// NormalizeFilename reduces name to the characters [a-zA-Z0-9.].
func NormalizeFilename(name string) string {
	normalized := separatorChars.ReplaceAllString(name, "_")
	normalized = strippedChars.ReplaceAllString(normalized, "")
	normalized = disallowedChars.ReplaceAllString(normalized, "_")
	return underscoreRuns.ReplaceAllString(normalized, "_")
}

// LoadCandidate reads an audio file from disk the way the file picker does:
// only a single .mp3 or .wav file is offered, and the declared type is the
// one detected from its content.
func LoadCandidate(path string) (Candidate, error) {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if !lo.Contains(acceptedExtensions, ext) {
		return Candidate{}, fmt.Errorf("%w: %s must have extension %s", ErrFileTypeRejected, filepath.Base(path), strings.Join(acceptedExtensions, " or "))
	}

	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, fmt.Errorf("audio file not found: %w", err)
	}
	if info.IsDir() {
		return Candidate{}, fmt.Errorf("audio file %s is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Candidate{}, fmt.Errorf("read audio file: %w", err)
	}

	return Candidate{
		Name:     filepath.Base(path),
		MIMEType: declaredType(data),
		Data:     data,
	}, nil
}

func declaredType(data []byte) string {
	detected := mimetype.Detect(data)
	for _, accepted := range acceptedMIMETypes {
		if detected.Is(accepted) {
			return accepted
		}
	}
	return detected.String()
}
