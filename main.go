package main

import (
	"github.com/klemjul/talkai/cmd"
	"github.com/klemjul/talkai/internal/app"
)

func main() {
	app := app.NewDefaultApp()
	cmd.RootCommand(app).Execute()
}
