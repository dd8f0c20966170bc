package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/klemjul/talkai/internal/app"
	"github.com/klemjul/talkai/internal/config"
	"github.com/klemjul/talkai/internal/llm"
	"github.com/klemjul/talkai/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// isTerminal reports whether one-shot answers should be rendered as markdown.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func RootCommand(app app.App) *cobra.Command {
	var logFile *os.File

	rootCmd := &cobra.Command{
		Use:   "talkai [question]",
		Short: "Chat with an LLM in the terminal, with streamed and spoken replies.",
		Args:  cobra.ArbitraryArgs,
		Example: `
talkai   # Open the chat
talkai "what is an SSE stream?"   # Ask once and print the answer
talkai --provider ollama --model llama3.2   # Chat with a local model
talkai --stt-command "whisper-cli -l {lang}"   # Enable dictation with ctrl+r
	`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadDotEnv(); err != nil {
				return err
			}
			f, err := setupLogging()
			logFile = f
			return err
		},
		PreRunE: validate,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, app)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logFile != nil {
				return logFile.Close()
			}
			return nil
		},
	}

	rootCmd.Flags().SortFlags = false

	rootCmd.Flags().String("provider", config.DEFAULT_PROVIDER,
		fmt.Sprintf("LLM provider to use, one of %v. (env: %s)", llm.LLMProviders, config.GetEnvWithPrefix(config.ENV_PROVIDER)))
	rootCmd.Flags().String("model", config.DEFAULT_MODEL,
		fmt.Sprintf("LLM model to use, depends on the provider. (env: %s)", config.GetEnvWithPrefix(config.ENV_MODEL)))
	rootCmd.Flags().String("endpoint", "",
		fmt.Sprintf("Chat completions endpoint, defaults to the provider's. (env: %s)", config.GetEnvWithPrefix(config.ENV_ENDPOINT)))
	rootCmd.Flags().String("api-key", "",
		fmt.Sprintf("API key for the http and openai providers. (env: %s or %s)", config.GetEnvWithPrefix(config.ENV_API_KEY), config.ENV_OPENAI_API_KEY))
	rootCmd.Flags().StringP("prompt", "p", "",
		fmt.Sprintf(
			`System prompt sent ahead of the conversation. (env: %s)
- If <value> is a string, it is used directly as the system prompt.
- If <value> is a number, it will look for the environment variable %s_<number> instead.
`, config.GetEnvWithPrefix(config.ENV_PROMPT), config.GetEnvWithPrefix(config.ENV_PROMPT)))
	rootCmd.Flags().String("greeting", config.DEFAULT_GREETING,
		fmt.Sprintf("First assistant message of the chat. (env: %s)", config.GetEnvWithPrefix(config.ENV_GREETING)))
	rootCmd.Flags().String("lang", config.DEFAULT_LANG,
		fmt.Sprintf("Language tag handed to the speech commands. (env: %s)", config.GetEnvWithPrefix(config.ENV_LANG)))
	rootCmd.Flags().Bool("speak", true,
		fmt.Sprintf("Speak replies aloud. (env: %s)", config.GetEnvWithPrefix(config.ENV_SPEAK)))
	rootCmd.Flags().String("tts-command", config.DEFAULT_TTS_COMMAND,
		fmt.Sprintf("Text-to-speech command, the text is passed as last argument and {lang} is replaced. (env: %s)", config.GetEnvWithPrefix(config.ENV_TTS_COMMAND)))
	rootCmd.Flags().String("stt-command", "",
		fmt.Sprintf("Speech-to-text command printing the transcript on stdout, voice input is off when empty. (env: %s)", config.GetEnvWithPrefix(config.ENV_STT_COMMAND)))
	rootCmd.Flags().Duration("timeout", 0,
		fmt.Sprintf("Maximum duration of a request, 0 means no limit. (env: %s)", config.GetEnvWithPrefix(config.ENV_TIMEOUT)))
	rootCmd.Flags().Bool("debug", false,
		fmt.Sprintf("Write logs to %s. (env: %s)", config.DEBUG_LOG_FILE, config.GetEnvWithPrefix(config.ENV_DEBUG)))

	viper.BindPFlag(config.ENV_PROVIDER, rootCmd.Flags().Lookup("provider"))
	viper.BindPFlag(config.ENV_MODEL, rootCmd.Flags().Lookup("model"))
	viper.BindPFlag(config.ENV_ENDPOINT, rootCmd.Flags().Lookup("endpoint"))
	viper.BindPFlag(config.ENV_API_KEY, rootCmd.Flags().Lookup("api-key"))
	viper.BindPFlag(config.ENV_PROMPT, rootCmd.Flags().Lookup("prompt"))
	viper.BindPFlag(config.ENV_GREETING, rootCmd.Flags().Lookup("greeting"))
	viper.BindPFlag(config.ENV_LANG, rootCmd.Flags().Lookup("lang"))
	viper.BindPFlag(config.ENV_SPEAK, rootCmd.Flags().Lookup("speak"))
	viper.BindPFlag(config.ENV_TTS_COMMAND, rootCmd.Flags().Lookup("tts-command"))
	viper.BindPFlag(config.ENV_STT_COMMAND, rootCmd.Flags().Lookup("stt-command"))
	viper.BindPFlag(config.ENV_TIMEOUT, rootCmd.Flags().Lookup("timeout"))
	viper.BindPFlag(config.ENV_DEBUG, rootCmd.Flags().Lookup("debug"))

	viper.SetEnvPrefix(config.ENV_PREFIX)
	viper.AutomaticEnv()
	viper.BindEnv(config.ENV_API_KEY, config.GetEnvWithPrefix(config.ENV_API_KEY), config.ENV_OPENAI_API_KEY)

	return rootCmd
}

func loadDotEnv() error {
	err := godotenv.Load(config.DOTENV_FILE)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading %s: %v", config.DOTENV_FILE, err)
	}
	return nil
}

// setupLogging sends the log package to the debug file, or nowhere, since
// the chat view owns the terminal.
func setupLogging() (*os.File, error) {
	if !viper.GetBool(config.ENV_DEBUG) {
		log.SetOutput(io.Discard)
		return nil, nil
	}
	f, err := tea.LogToFile(config.DEBUG_LOG_FILE, "talkai")
	if err != nil {
		return nil, fmt.Errorf("error opening debug log: %v", err)
	}
	return f, nil
}

func validate(cmd *cobra.Command, args []string) error {
	provider := viper.GetString(config.ENV_PROVIDER)
	if !slices.Contains(llm.LLMProviders, llm.LLMProvider(provider)) {
		return fmt.Errorf("invalid provider '%s'. Valid providers are: %v", provider, llm.LLMProviders)
	}

	model := viper.GetString(config.ENV_MODEL)
	if model == "" {
		return fmt.Errorf("model must be specified '%s'", model)
	}

	if timeout := viper.GetDuration(config.ENV_TIMEOUT); timeout < 0 {
		return fmt.Errorf("timeout must not be negative '%s'", timeout)
	}

	return nil
}

func resolvePrompt() (string, error) {
	prompt := viper.GetString(config.ENV_PROMPT)
	promptNo, err := strconv.Atoi(prompt)
	if err != nil {
		return prompt, nil
	}
	promptEnv := fmt.Sprintf("%s_%v", config.ENV_PROMPT, promptNo)
	prompt = viper.GetString(promptEnv)
	if prompt == "" {
		return "", fmt.Errorf("invalid prompt no, env variable not found %s", config.GetEnvWithPrefix(promptEnv))
	}
	return prompt, nil
}

func run(cmd *cobra.Command, args []string, app app.App) error {
	provider := viper.GetString(config.ENV_PROVIDER)
	model := viper.GetString(config.ENV_MODEL)
	lang := viper.GetString(config.ENV_LANG)
	timeout := viper.GetDuration(config.ENV_TIMEOUT)

	prompt, err := resolvePrompt()
	if err != nil {
		return err
	}

	var initialMessages []llm.Message
	if prompt != "" {
		initialMessages = append(initialMessages, llm.Message{
			Role:    llm.System,
			Content: prompt,
			Hidden:  true,
		})
	}

	speaker := app.Speech().NewSpeaker(viper.GetBool(config.ENV_SPEAK), viper.GetString(config.ENV_TTS_COMMAND))
	client, clientErr := app.LLM().NewClient(llm.LLMProvider(provider), llm.LLMClientOptions{
		Model:    model,
		Endpoint: viper.GetString(config.ENV_ENDPOINT),
		APIKey:   viper.GetString(config.ENV_API_KEY),
	})

	if len(args) > 0 {
		if clientErr != nil {
			return fmt.Errorf("failed to create LLM client: %v", clientErr)
		}

		ctx := cmd.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		messages := append(initialMessages, llm.Message{
			Role:    llm.User,
			Content: strings.Join(args, " "),
		})
		aiRes, err := client.Send(ctx, messages)
		if err != nil {
			return fmt.Errorf("failed to generate response: %v", err)
		}

		out := cmd.OutOrStdout()
		if isTerminal(out) {
			formattedRes, err := app.Format().FormatMarkdown(aiRes.Content)
			if err != nil {
				return fmt.Errorf("failed to format response: %v", err)
			}
			out.Write([]byte(formattedRes))
		} else {
			fmt.Fprintln(out, aiRes.Content)
		}
		speaker.Speak(aiRes.Content, lang)
		return nil
	}

	if clientErr != nil {
		log.Printf("cmd: chat unavailable: %v", clientErr)
		client = nil
	}

	TUIModel := app.TUI().InitialModel(ui.InitialModelOptions{
		Title:      fmt.Sprintf("talkai %s/%s", provider, model),
		Greeting:   viper.GetString(config.ENV_GREETING),
		Lang:       lang,
		Messages:   initialMessages,
		Context:    cmd.Context(),
		Timeout:    timeout,
		Client:     client,
		InitErr:    clientErr,
		Speaker:    speaker,
		Recognizer: app.Speech().ProbeRecognizer(viper.GetString(config.ENV_STT_COMMAND)),
	})
	if _, err := app.TUI().Run(TUIModel); err != nil {
		return fmt.Errorf("error running interactive mode: %v", err)
	}
	speaker.Stop()
	return nil
}
