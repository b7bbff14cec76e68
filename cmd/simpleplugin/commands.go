package main

import (
	"github.com/spf13/cobra"
)

func buildConsoleCmd(flags *rootFlags) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Start an interactive server console",
		Long: `Start an interactive console over an in-memory server seeded from the
configuration. Lines are run as commands by the current sender.

Console directives:
  :as <player>               run commands as an online player
  :console                   run commands as the console
  :join <player> [world]     bring a player online
  :quit <player>             take a player offline
  :op <player> / :deop       grant or revoke operator status
  :tp <player> <world> <x> <y> <z>
  :players                   list online players
  :exit                      leave the console`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, flags, watch)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", true, "Reload colours and admin when the config file changes")
	return cmd
}

func buildExecCmd(flags *rootFlags) *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "exec <command> [args...]",
		Short: "Run a single command and print what it sends",
		Example: `  simpleplugin exec list
  simpleplugin exec --as Steve msg Alex hello there`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, flags, as, args)
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "Online player to run the command as (default: the console)")
	return cmd
}

func buildRulesCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List registered command rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(cmd, flags, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print rules as JSON")
	return cmd
}

func buildRenderCmd(flags *rootFlags) *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render a message template",
		Example: `  simpleplugin render --sender Steve --command kick '@admin(%s) used %c'
  simpleplugin render --primary error --raw 'Not enough arguments! Try using @name/help %c'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, flags, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.primary, "primary", "text", "Primary style (a tag name or code)")
	cmd.Flags().StringVar(&opts.sender, "sender", "The Console", "Sender name for %s")
	cmd.Flags().StringVar(&opts.target, "target", "", "Target name for %t and %gt")
	cmd.Flags().StringVar(&opts.command, "command", "", "Command name for %c")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print style codes instead of terminal colours")
	return cmd
}

func buildRecordsCmd(flags *rootFlags) *cobra.Command {
	var opts recordsOptions
	cmd := &cobra.Command{
		Use:   "records [name|uuid]",
		Short: "Show stored player records",
		Example: `  simpleplugin records --limit 20
  simpleplugin records Steve`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.lookup = args[0]
			}
			return runRecords(cmd, flags, opts)
		},
	}
	cmd.Flags().IntVar(&opts.limit, "limit", 50, "Maximum records to list (0 for all)")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "Records to skip")
	return cmd
}

func buildConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "schema",
			Short: "Print the configuration JSON Schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigSchema(cmd)
			},
		},
		&cobra.Command{
			Use:   "validate [path]",
			Short: "Validate a configuration file",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := flags.configPath
				if len(args) == 1 {
					path = args[0]
				}
				return runConfigValidate(cmd, path)
			},
		},
	)
	return cmd
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd)
		},
	}
}
