// Package cmd implements the command-line interface for anydo.
//
// This package provides the following commands:
//   - next: Show the most urgent task of each list (the default command)
//   - tasks: Show the full task ranking of each list
//   - lists: Show the user's Any.do lists
//   - tags: Show the user's Any.do tags
//   - new-task: Create a new task
//   - serve: Run the calendar daemon, MCP server and HTTP sidecar
//   - version: Display version information
package cmd
