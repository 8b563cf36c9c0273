package inference

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateFileRejectsUnsupportedTypes(t *testing.T) {
	t.Parallel()

	for _, mimeType := range []string{"", "audio/ogg", "audio/x-wav", "video/mp4", "text/plain", "audio/flac", " Audio/WAV ", "AUDIO/MPEG", "audio/wav "} {
		_, err := ValidateFile(Candidate{Name: "clip.wav", MIMEType: mimeType, Data: []byte("x")})
		require.Truef(t, errors.Is(err, ErrFileTypeRejected), "type %q should be rejected", mimeType)
	}
}

func TestValidateFileKeepsBytesAndType(t *testing.T) {
	t.Parallel()

	data := []byte{0x49, 0x44, 0x33, 0x01}
	file, err := ValidateFile(Candidate{Name: "Lead Vocal (take 2).mp3", MIMEType: "audio/mpeg", Data: data})
	require.NoError(t, err)
	require.Equal(t, "Lead_Vocal_take_2_.mp3", file.Name)
	require.Equal(t, "audio/mpeg", file.MIMEType)
	require.Equal(t, data, file.Data)
}

func TestValidateFileKeepsOnlyAcceptedTypes(t *testing.T) {
	t.Parallel()

	for _, mimeType := range []string{"audio/mpeg", "audio/mp3", "audio/wav"} {
		file, err := ValidateFile(Candidate{Name: "clip.wav", MIMEType: mimeType, Data: []byte("x")})
		require.NoError(t, err)
		require.True(t, IsAcceptedMIMEType(file.MIMEType))
		require.Equal(t, mimeType, file.MIMEType)
	}
}

func TestNormalizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "My Song (final)!.mp3", want: "My_Song_final_.mp3"},
		{in: "don't-stop.wav", want: "don_t_stop.wav"},
		{in: "100%$pure.mp3", want: "100pure.mp3"},
		{in: "plain.wav", want: "plain.wav"},
		{in: "ça va.mp3", want: "_a_va.mp3"},
		{in: "a&b#c.wav", want: "a_b_c.wav"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, NormalizeFilename(tt.in))
		})
	}
}

func TestNormalizeFilenameOnlyKeepsAllowedCharacters(t *testing.T) {
	t.Parallel()

	allowed := regexp.MustCompile(`^[a-zA-Z0-9._]*$`)
	inputs := []string{
		"track 01 - intro (live) [remaster].wav",
		"it's $5 & 50% off!.mp3",
		"日本語のファイル.mp3",
		"tab\tand\nnewline.wav",
		"",
	}
	for _, in := range inputs {
		out := NormalizeFilename(in)
		require.Regexpf(t, allowed, out, "input %q", in)
	}
}

func TestLoadCandidateDetectsWAV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "vocals take.wav")
	require.NoError(t, os.WriteFile(path, makeWAV(t, 1600), 0o644))

	candidate, err := LoadCandidate(path)
	require.NoError(t, err)
	require.Equal(t, "vocals take.wav", candidate.Name)
	require.Equal(t, "audio/wav", candidate.MIMEType)
}

func TestLoadCandidateDetectsMP3(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hook.mp3")
	require.NoError(t, os.WriteFile(path, fakeMP3(), 0o644))

	candidate, err := LoadCandidate(path)
	require.NoError(t, err)
	require.Equal(t, "audio/mpeg", candidate.MIMEType)
}

func TestLoadCandidateRejectsExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := LoadCandidate(path)
	require.ErrorIs(t, err, ErrFileTypeRejected)
}

func TestLoadCandidateMislabeledContentIsRejectedByValidation(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fake.wav")
	require.NoError(t, os.WriteFile(path, []byte("this is plain text, not audio"), 0o644))

	candidate, err := LoadCandidate(path)
	require.NoError(t, err)
	require.NotEqual(t, "audio/wav", candidate.MIMEType)

	_, err = ValidateFile(candidate)
	require.ErrorIs(t, err, ErrFileTypeRejected)
}

func TestLoadCandidateMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadCandidate(filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "audio file not found")
}
