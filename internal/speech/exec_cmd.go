package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const LangPlaceholder = "{lang}"

type Command interface {
	Start() error
	Wait() error
	Stop() error
	Output() ([]byte, error)
	GetArgs() []string
}

type execCommand struct {
	*exec.Cmd
}

func (exc execCommand) Stop() error {
	if exc.Process == nil {
		return nil
	}
	return exc.Process.Kill()
}

func (exc execCommand) GetArgs() []string {
	return exc.Args
}

func newExecCommander(ctx context.Context, name string, arg ...string) Command {
	return execCommand{Cmd: exec.CommandContext(ctx, name, arg...)}
}

var (
	execCommander = newExecCommander
	lookPath      = exec.LookPath
)

// parseCommand splits a command template such as "espeak-ng -v {lang}"
// and substitutes the language tag.
func parseCommand(template string, lang string) (string, []string, error) {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("empty command")
	}
	for i, field := range fields {
		fields[i] = strings.ReplaceAll(field, LangPlaceholder, lang)
	}
	return fields[0], fields[1:], nil
}
