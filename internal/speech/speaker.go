package speech

import (
	"context"
	"log"
	"strings"
	"sync"
)

type Speaker interface {
	// Speak stops any running utterance, then starts saying text.
	Speak(text string, lang string)
	Stop()
}

type NopSpeaker struct{}

func (NopSpeaker) Speak(string, string) {}
func (NopSpeaker) Stop()                {}

// CommandSpeaker says text through an external text-to-speech program,
// the text being passed as the last argument.
type CommandSpeaker struct {
	template string

	mu      sync.Mutex
	current Command
}

func NewCommandSpeaker(template string) *CommandSpeaker {
	return &CommandSpeaker{template: template}
}

// NewSpeaker returns a CommandSpeaker when speech output is enabled and the
// program exists, a NopSpeaker otherwise.
func NewSpeaker(enabled bool, template string) Speaker {
	if !enabled {
		return NopSpeaker{}
	}
	name, _, err := parseCommand(template, "")
	if err != nil {
		log.Printf("speech: output disabled: %v", err)
		return NopSpeaker{}
	}
	if _, err := lookPath(name); err != nil {
		log.Printf("speech: output disabled: %v", err)
		return NopSpeaker{}
	}
	return NewCommandSpeaker(template)
}

func (s *CommandSpeaker) Speak(text string, lang string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	name, args, err := parseCommand(s.template, lang)
	if err != nil {
		log.Printf("speech: %v", err)
		return
	}
	cmd := execCommander(context.Background(), name, append(args, text)...)
	if err := cmd.Start(); err != nil {
		log.Printf("speech: failed to start %s: %v", name, err)
		return
	}
	s.current = cmd

	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("speech: %s ended: %v", name, err)
		}
		s.mu.Lock()
		if s.current == cmd {
			s.current = nil
		}
		s.mu.Unlock()
	}()
}

func (s *CommandSpeaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Speaking reports whether an utterance is still running.
func (s *CommandSpeaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

func (s *CommandSpeaker) stopLocked() {
	if s.current == nil {
		return
	}
	if err := s.current.Stop(); err != nil {
		log.Printf("speech: failed to stop utterance: %v", err)
	}
	s.current = nil
}
