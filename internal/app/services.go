package app

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/klemjul/talkai/internal/format"
	"github.com/klemjul/talkai/internal/llm"
	"github.com/klemjul/talkai/internal/speech"
	"github.com/klemjul/talkai/internal/ui"
)

type SpeechService interface {
	NewSpeaker(enabled bool, template string) speech.Speaker
	// ProbeRecognizer returns nil when voice input is not available.
	ProbeRecognizer(template string) speech.Recognizer
}

type TUIService interface {
	InitialModel(opts ui.InitialModelOptions) ui.ChatTUIModel
	Run(model ui.ChatTUIModel) (returnModel tea.Model, returnErr error)
}

type LLMService interface {
	NewClient(provider llm.LLMProvider, opts llm.LLMClientOptions) (llm.LLMClient, error)
}

type TextFormatService interface {
	FormatMarkdown(text string) (string, error)
}

type App interface {
	Speech() SpeechService
	TUI() TUIService
	LLM() LLMService
	Format() TextFormatService
}

type DefaultSpeechService struct{}

type DefaultTUIService struct{}

type DefaultLLMService struct{}

type DefaultTextFormatService struct{}

type DefaultApp struct {
	speech SpeechService
	tui    TUIService
	llm    LLMService
	format TextFormatService
}

func (a *DefaultApp) Speech() SpeechService     { return a.speech }
func (a *DefaultApp) TUI() TUIService           { return a.tui }
func (a *DefaultApp) LLM() LLMService           { return a.llm }
func (a *DefaultApp) Format() TextFormatService { return a.format }

func (s *DefaultSpeechService) NewSpeaker(enabled bool, template string) speech.Speaker {
	return speech.NewSpeaker(enabled, template)
}
func (s *DefaultSpeechService) ProbeRecognizer(template string) speech.Recognizer {
	return speech.ProbeRecognizer(template)
}

func (c *DefaultTUIService) InitialModel(opts ui.InitialModelOptions) ui.ChatTUIModel {
	return ui.InitialModel(opts)
}
func (c *DefaultTUIService) Run(model ui.ChatTUIModel) (returnModel tea.Model, returnErr error) {
	return tea.NewProgram(model).Run()
}

func (l *DefaultLLMService) NewClient(provider llm.LLMProvider, opts llm.LLMClientOptions) (llm.LLMClient, error) {
	return llm.NewClient(provider, opts)
}

func (l *DefaultTextFormatService) FormatMarkdown(text string) (string, error) {
	return format.FormatMarkdown(text)
}

func NewDefaultApp() App {
	return &DefaultApp{speech: &DefaultSpeechService{}, tui: &DefaultTUIService{}, llm: &DefaultLLMService{}, format: &DefaultTextFormatService{}}
}
