package cli

import (
	"github.com/soyeahso/agentconsole/internal/config"
	"github.com/soyeahso/agentconsole/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// loaded by the root pre-run hook
	paths config.Paths
	cfg   config.Config
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agentconsole",
		Short: "agentconsole: build, chat with, and share AI agents",
		Long: "agentconsole is a terminal console for the agent gateway. It creates agents from " +
			"blueprints, chats with them, and publishes public chat links.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}

			cfg, err = config.Load(paths.Config)
			if err != nil {
				return err
			}

			level := logLevel
			if level == "" {
				level = cfg.Logging.Level
			}
			if level == "" {
				level = "warn"
			}
			log = logging.NewStyled(level, cfg.Logging.ConsoleStyle)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.agentconsole/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newBlueprintCmd())
	cmd.AddCommand(newAgentCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newTranscriptCmd())
	cmd.AddCommand(newTourCmd())
	cmd.AddCommand(newConsoleCmd())

	return cmd
}

// Execute runs the root command and prints a failure in red.
func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		printError(err)
	}
	return err
}
