package main

import (
	"os"

	"github.com/tillberg/autorestart"

	"github.com/soyeahso/agentconsole/internal/cli"
)

func main() {
	// Restarting under an open console would drop the session, so this is
	// opt-in for development builds.
	if os.Getenv("AGENTCONSOLE_DEV_RESTART") != "" {
		go autorestart.RestartOnChange()
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
