// Package anydo_tools provides MCP tools for the Any.do account and its
// calendars.
//
// This package implements MCP (Model Context Protocol) tools that wrap the
// Any.do client and the calendar adapters, exposing task queries and task
// creation to AI assistants.
//
// # Available Tools
//
// Calendar queries:
//   - anydo_next_task: Get the most urgent task of a calendar
//   - anydo_all_tasks: List all tasks of a calendar ranked by urgency
//   - anydo_get_events: List due-dated tasks inside a date range
//
// Account queries:
//   - anydo_list_lists: List all task lists
//   - anydo_list_tags: List all tags
//
// Write operations (disabled when the server runs read-only):
//   - anydo_new_task: Create a new task
//
// # Calendar Selection
//
// Calendar-backed tools take an optional 'list' parameter naming one of the
// configured calendars. If not provided, the first configured calendar is
// used.
package anydo_tools
