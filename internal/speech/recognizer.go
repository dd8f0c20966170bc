package speech

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

var ErrNoSpeech = errors.New("no speech recognized")

type Recognizer interface {
	// Listen captures one utterance and returns its final transcript.
	Listen(ctx context.Context, lang string) (string, error)
}

// CommandRecognizer runs an external speech-to-text program once per
// utterance and reads the transcript from its standard output.
type CommandRecognizer struct {
	template string
}

// ProbeRecognizer returns nil when no recognizer command is configured or
// the program cannot be found.
func ProbeRecognizer(template string) Recognizer {
	if strings.TrimSpace(template) == "" {
		return nil
	}
	name, _, err := parseCommand(template, "")
	if err != nil {
		return nil
	}
	if _, err := lookPath(name); err != nil {
		log.Printf("speech: input unavailable: %v", err)
		return nil
	}
	return &CommandRecognizer{template: template}
}

func (r *CommandRecognizer) Listen(ctx context.Context, lang string) (string, error) {
	name, args, err := parseCommand(r.template, lang)
	if err != nil {
		return "", err
	}

	out, err := execCommander(ctx, name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}

	transcript := strings.TrimSpace(string(out))
	if transcript == "" {
		return "", ErrNoSpeech
	}
	return transcript, nil
}
