package config

import "fmt"

const (
	ENV_PREFIX      = "TALKAI"
	ENV_PROVIDER    = "PROVIDER"
	ENV_MODEL       = "MODEL"
	ENV_ENDPOINT    = "ENDPOINT"
	ENV_API_KEY     = "API_KEY"
	ENV_PROMPT      = "PROMPT"
	ENV_GREETING    = "GREETING"
	ENV_LANG        = "LANG_TAG"
	ENV_SPEAK       = "SPEAK"
	ENV_TTS_COMMAND = "TTS_COMMAND"
	ENV_STT_COMMAND = "STT_COMMAND"
	ENV_TIMEOUT     = "TIMEOUT"
	ENV_DEBUG       = "DEBUG"

	// Read when ENV_API_KEY is not set.
	ENV_OPENAI_API_KEY = "OPENAI_API_KEY"

	DEFAULT_PROVIDER    = "http"
	DEFAULT_MODEL       = "gpt-4o-mini"
	DEFAULT_GREETING    = "Hello! How can I help you today?"
	DEFAULT_LANG        = "en-US"
	DEFAULT_TTS_COMMAND = "espeak-ng -v {lang}"
	DEBUG_LOG_FILE      = "talkai-debug.log"
	DOTENV_FILE         = ".env"
)

func GetEnvWithPrefix(env string) string {
	return fmt.Sprintf("%s_%s", ENV_PREFIX, env)
}
