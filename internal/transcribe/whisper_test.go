package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kassa-bot/kassa/internal/common"
)

func TestNewWhisperDefaults(t *testing.T) {
	w := NewWhisper(Options{})
	assert.Equal(t, "ffmpeg", w.ffmpeg)
	assert.Equal(t, "whisper-cli", w.whisper)
	assert.Equal(t, "ru", w.language)
	assert.Empty(t, w.model)
}

func TestNewWhisperOverrides(t *testing.T) {
	w := NewWhisper(Options{
		FFmpegPath:  "/opt/ffmpeg/bin/ffmpeg",
		WhisperPath: "/opt/whisper/whisper-cli",
		ModelPath:   "/opt/whisper/ggml-base.bin",
		Language:    "en",
	})
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", w.ffmpeg)
	assert.Equal(t, "/opt/whisper/whisper-cli", w.whisper)
	assert.Equal(t, "/opt/whisper/ggml-base.bin", w.model)
	assert.Equal(t, "en", w.language)
}

// writeStub installs an executable shell script standing in for an external
// binary.
func writeStub(t *testing.T, path, script string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
}

// stubFFmpeg accepts any arguments and creates its last one, the output
// file, like the real resampler would.
func stubFFmpeg(t *testing.T, dir string) string {
	path := filepath.Join(dir, "ffmpeg")
	writeStub(t, path, "for a; do last=$a; done\n: > \"$last\"\n")
	return path
}

func newStubAudio(t *testing.T, dir string) string {
	audio := filepath.Join(dir, "note.ogg")
	require.NoError(t, os.WriteFile(audio, []byte("ogg"), 0o600))
	return audio
}

func TestTranscribeKeepsDiagnosticsOutOfTranscript(t *testing.T) {
	dir := t.TempDir()
	whisper := filepath.Join(dir, "whisper-cli")
	writeStub(t, whisper,
		"echo 'whisper_init: loading model from ggml-base.bin' >&2\n"+
			"echo 'расход 500 на продукты'\n")

	w := NewWhisper(Options{FFmpegPath: stubFFmpeg(t, dir), WhisperPath: whisper})

	text, err := w.Transcribe(context.Background(), newStubAudio(t, dir))
	require.NoError(t, err)
	assert.Equal(t, "расход 500 на продукты", text)
}

func TestTranscribeFailureReportsStderr(t *testing.T) {
	dir := t.TempDir()
	whisper := filepath.Join(dir, "whisper-cli")
	writeStub(t, whisper, "echo 'failed to load model' >&2\nexit 1\n")

	w := NewWhisper(Options{FFmpegPath: stubFFmpeg(t, dir), WhisperPath: whisper})

	_, err := w.Transcribe(context.Background(), newStubAudio(t, dir))
	require.ErrorIs(t, err, common.ErrTranscription)
	assert.Contains(t, err.Error(), "failed to load model")
}

func TestTranscribeEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	whisper := filepath.Join(dir, "whisper-cli")
	writeStub(t, whisper, "echo 'system_info: AVX = 1' >&2\n")

	w := NewWhisper(Options{FFmpegPath: stubFFmpeg(t, dir), WhisperPath: whisper})

	_, err := w.Transcribe(context.Background(), newStubAudio(t, dir))
	require.ErrorIs(t, err, common.ErrTranscription)
	assert.Contains(t, err.Error(), "empty transcript")
}
