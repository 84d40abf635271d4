// Package transcribe converts Telegram voice recordings into text by
// shelling out to ffmpeg and whisper-cli.
package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kassa-bot/kassa/internal/common"
)

// Options configures the Whisper transcriber.
type Options struct {
	// FFmpegPath overrides the ffmpeg binary, default "ffmpeg".
	FFmpegPath string
	// WhisperPath overrides the whisper-cli binary, default "whisper-cli".
	WhisperPath string
	// ModelPath is an optional whisper model file passed with -m.
	ModelPath string
	// Language hints the spoken language, default "ru".
	Language string
}

// Whisper transcribes audio via whisper-cli after resampling with ffmpeg.
// Telegram voice notes arrive as OGG/Opus; whisper wants 16 kHz mono PCM.
type Whisper struct {
	ffmpeg   string
	whisper  string
	model    string
	language string
}

// NewWhisper creates a transcriber with the given options.
func NewWhisper(opts Options) *Whisper {
	w := &Whisper{
		ffmpeg:   opts.FFmpegPath,
		whisper:  opts.WhisperPath,
		model:    opts.ModelPath,
		language: opts.Language,
	}
	if w.ffmpeg == "" {
		w.ffmpeg = "ffmpeg"
	}
	if w.whisper == "" {
		w.whisper = "whisper-cli"
	}
	if w.language == "" {
		w.language = "ru"
	}
	return w
}

// Transcribe converts the audio file at audioPath into text.
func (w *Whisper) Transcribe(ctx context.Context, audioPath string) (string, error) {
	wavPath, err := w.convertToWav(ctx, audioPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = os.Remove(wavPath) }()

	// The transcript is read from stdout alone: diagnostics land on
	// stderr, and -np/-nt strip the progress banner and the per-segment
	// timestamps so no stray digits reach the amount parser.
	args := []string{
		"-f", wavPath,
		"-l", w.language,
		"-np",
		"-nt",
	}
	if w.model != "" {
		args = append(args, "-m", w.model)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, w.whisper, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: whisper-cli: %v, stderr: %s", common.ErrTranscription, err, stderr.String())
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return "", fmt.Errorf("%w: empty transcript", common.ErrTranscription)
	}
	return text, nil
}

// convertToWav resamples the source audio to 16 kHz mono 16-bit PCM.
func (w *Whisper) convertToWav(ctx context.Context, audioPath string) (string, error) {
	base := filepath.Base(audioPath)
	wavPath := filepath.Join(os.TempDir(),
		strings.TrimSuffix(base, filepath.Ext(base))+".wav")

	cmd := exec.CommandContext(ctx, w.ffmpeg,
		"-y", // overwrite output file without asking
		"-i", audioPath,
		"-ac", "1", // 1 channel
		"-ar", "16000", // 16 kHz
		"-acodec", "pcm_s16le", // 16-bit little-endian PCM
		wavPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: ffmpeg: %v, output: %s", common.ErrTranscription, err, string(output))
	}
	return wavPath, nil
}
