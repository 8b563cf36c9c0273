package cli

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fmueller/voxclone/internal/config"
	"github.com/fmueller/voxclone/internal/inference"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runCommand(t *testing.T, args []string) (stdout string, stderr string, err error) {
	t.Helper()
	return runApp(t, newTestApp(t, nil), args)
}

func runApp(t *testing.T, app *appState, args []string) (stdout string, stderr string, err error) {
	t.Helper()

	cmd := newRootCmd(app)
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	app.out = outBuf
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// newTestApp isolates configuration from the machine running the tests:
// config files are read from a temp dir and the environment is env.
func newTestApp(t *testing.T, env map[string]string) *appState {
	t.Helper()

	app := newAppState()
	app.logger = zap.NewNop()
	app.noProgress = true
	app.configDir = t.TempDir()
	app.lookupEnv = func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
	app.playFn = func(context.Context, string) error { return nil }
	return app
}

func baseEnv(t *testing.T) map[string]string {
	t.Helper()
	return map[string]string{
		config.EnvEndpoint:  "https://sovits.example.test/infer_upload_file",
		config.EnvToken:     "test-token",
		config.EnvOutputDir: t.TempDir(),
	}
}

type stubConverter struct {
	mu    sync.Mutex
	calls []inference.Params
	files []inference.UploadedFile
	body  string
	err   error
}

func (s *stubConverter) Convert(_ context.Context, file inference.UploadedFile, params inference.Params) (*inference.Audio, error) {
	s.mu.Lock()
	s.calls = append(s.calls, params)
	s.files = append(s.files, file)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	body := s.body
	if body == "" {
		body = "converted audio"
	}
	return &inference.Audio{
		Body:        io.NopCloser(strings.NewReader(body)),
		ContentType: "audio/wav",
		Size:        int64(len(body)),
	}, nil
}

func (s *stubConverter) lastParams(t *testing.T) inference.Params {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.calls)
	return s.calls[len(s.calls)-1]
}

func withConverter(app *appState, converter inference.Converter) *appState {
	app.converterFn = func(config.Config) (inference.Converter, error) {
		return converter, nil
	}
	return app
}

func writeTestWAV(t *testing.T, name string) string {
	t.Helper()

	samples := make([]int16, 1600)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 4000
		} else {
			samples[i] = -4000
		}
	}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, makePCM16WAVForTest(samples, 16000, 1), 0o644))
	return path
}

func makePCM16WAVForTest(samples []int16, sampleRate int, channels int) []byte {
	bytesPerSample := 2
	dataSize := len(samples) * bytesPerSample
	fmtChunkSize := 16
	riffSize := 4 + (8 + fmtChunkSize) + (8 + dataSize)

	out := make([]byte, 12+8+fmtChunkSize+8+dataSize)
	off := 0

	copy(out[off:], []byte("RIFF"))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(riffSize))
	off += 4
	copy(out[off:], []byte("WAVE"))
	off += 4

	copy(out[off:], []byte("fmt "))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(fmtChunkSize))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], 1)
	off += 2
	binary.LittleEndian.PutUint16(out[off:], uint16(channels))
	off += 2
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate*channels*bytesPerSample))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], uint16(channels*bytesPerSample))
	off += 2
	binary.LittleEndian.PutUint16(out[off:], 16)
	off += 2

	copy(out[off:], []byte("data"))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(dataSize))
	off += 4

	for _, s := range samples {
		binary.LittleEndian.PutUint16(out[off:], uint16(s))
		off += 2
	}

	return out
}
