package tts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// NewCommandPlayer returns a playback callback that pipes WAV data to an
// external audio player command ("aplay", "afplay -", "ffplay -nodisp ...").
// The command reads the audio from stdin and the call blocks until playback
// finishes.
func NewCommandPlayer(command string) func(ctx context.Context, wav []byte) error {
	return func(ctx context.Context, wav []byte) error {
		parts := strings.Fields(command)
		if len(parts) == 0 {
			return fmt.Errorf("audio player command is empty")
		}

		cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
		cmd.Stdin = bytes.NewReader(wav)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("audio player %q: %w (%s)", parts[0], err, strings.TrimSpace(string(out)))
		}
		return nil
	}
}
