package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the anydo application
var rootCmd = &cobra.Command{
	Use:   "anydo",
	Short: "Expose Any.do task lists as calendars",
	Long: `anydo turns Any.do task lists into calendars: every list becomes a
calendar whose single event is the most urgent task, picked by due date.

It can run as:
  - A standalone CLI tool (default)
  - A polling daemon and MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// configFile is the config path shared by all subcommands; empty selects
// the default location.
var configFile string

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "anydo version %s\n" .Version}}`)

	// If no subcommand is provided, show the next task by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "next")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to the config file (default: ~/.anydo/config.yaml)")

	rootCmd.AddCommand(newNextCmd())
	rootCmd.AddCommand(newTasksCmd())
	rootCmd.AddCommand(newListsCmd())
	rootCmd.AddCommand(newTagsCmd())
	rootCmd.AddCommand(newNewTaskCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
