package commands

import "io"

type AppConfig = appConfig

// Config returns the configuration of the app.
func (a App) Config() AppConfig {
	return a.config
}

// SetArgs sets the arguments for the command.
// No arguments means an empty command line, not the test binary ones.
func (a *App) SetArgs(args ...string) {
	if args == nil {
		args = []string{}
	}
	a.cmd.SetArgs(args)
}

// SetOutput redirects the command output and error streams.
func (a *App) SetOutput(out, errOut io.Writer) {
	a.cmd.SetOut(out)
	a.cmd.SetErr(errOut)
}
