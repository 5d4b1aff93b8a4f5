package anydo_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/regevbr/anydo/internal/anydo"
	"github.com/regevbr/anydo/internal/calendar"
	"github.com/regevbr/anydo/internal/server"
	"github.com/regevbr/anydo/internal/tools/common"
)

// listEntry is the JSON shape of one Any.do list in tool results.
type listEntry struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

// tagEntry is the JSON shape of one tag in tool results.
type tagEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// adapterFromArgs picks the calendar adapter named by the "list" argument,
// falling back to the first configured calendar.
func adapterFromArgs(sc *server.ServerContext, args map[string]interface{}) (*calendar.ListAdapter, error) {
	name, _ := args["list"].(string)
	if name == "" {
		adapters := sc.Adapters()
		if len(adapters) == 0 {
			return nil, fmt.Errorf("no calendars are configured")
		}
		return adapters[0], nil
	}

	adapter := sc.AdapterByName(name)
	if adapter == nil {
		return nil, fmt.Errorf("unknown calendar %q", name)
	}
	return adapter, nil
}

// parseDueDate accepts a datetime or a bare date and returns epoch
// milliseconds. Bare dates mean midnight local time.
func parseDueDate(value string) (int64, error) {
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", value, time.Local); err == nil {
		return t.UnixMilli(), nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return 0, fmt.Errorf("expected \"2006-01-02 15:04:05\" or \"2006-01-02\", got %q", value)
	}
	return t.UnixMilli(), nil
}

// parseRangeBound reads a required time argument, RFC 3339 or bare date.
func parseRangeBound(args map[string]interface{}, key string) (time.Time, error) {
	value, _ := args[key].(string)
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", key)
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: expected RFC 3339 timestamp or YYYY-MM-DD date, got %q", key, value)
	}
	return t, nil
}

// resolveCategory finds the list with the given name, case-insensitively.
func resolveCategory(ctx context.Context, user *anydo.User, name string) (*anydo.Category, error) {
	categories, err := user.Categories(ctx, anydo.CategoryQuery{})
	if err != nil {
		return nil, err
	}
	for _, category := range categories {
		categoryName, err := category.Name()
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(categoryName, name) {
			return category, nil
		}
	}
	return nil, fmt.Errorf("unknown list %q", name)
}

// resolveTags maps tag names to label IDs, case-insensitively.
func resolveTags(ctx context.Context, user *anydo.User, names []string) ([]string, error) {
	labels, err := user.Labels(ctx, anydo.LabelQuery{})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		found := false
		for _, label := range labels {
			labelName, err := label.Name()
			if err != nil {
				return nil, err
			}
			if strings.EqualFold(labelName, name) {
				ids = append(ids, label.ID())
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown tag %q", name)
		}
	}
	return ids, nil
}

func stringSliceArg(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			values = append(values, s)
		}
	}
	return values
}

func jsonResult(v any) *mcp.CallToolResult {
	encoded, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(encoded))
}

// RegisterAnydoTools registers all Any.do tools with the MCP server.
// Write operations are skipped when readOnly is set.
func RegisterAnydoTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	registerCalendarTools(s, sc)
	registerAccountTools(s, sc)

	if !readOnly {
		registerWriteTools(s, sc)
	}

	return nil
}

// registerCalendarTools registers the tools backed by calendar adapters.
func registerCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	nextTaskTool := mcp.NewTool("anydo_next_task",
		mcp.WithDescription("Get the most urgent task of a calendar, with its start and end times"),
		mcp.WithString("list",
			mcp.Description("Calendar name (default: the first configured calendar)"),
		),
	)

	s.AddTool(nextTaskTool, common.InstrumentedToolHandler("anydo_next_task", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})

		adapter, err := adapterFromArgs(sc, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if err := sc.UpdateAdapter(ctx, adapter); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to update calendar: %v", err)), nil
		}

		event := adapter.Event()
		if event == nil {
			return mcp.NewToolResultText("No pending tasks."), nil
		}
		return jsonResult(event), nil
	}))

	allTasksTool := mcp.NewTool("anydo_all_tasks",
		mcp.WithDescription("List all tasks of a calendar ranked by urgency, most urgent first"),
		mcp.WithString("list",
			mcp.Description("Calendar name (default: the first configured calendar)"),
		),
	)

	s.AddTool(allTasksTool, common.InstrumentedToolHandler("anydo_all_tasks", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})

		adapter, err := adapterFromArgs(sc, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if err := sc.UpdateAdapter(ctx, adapter); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to update calendar: %v", err)), nil
		}

		tasks := adapter.AllTasks()
		if len(tasks) == 0 {
			return mcp.NewToolResultText("No pending tasks."), nil
		}
		return jsonResult(tasks), nil
	}))

	getEventsTool := mcp.NewTool("anydo_get_events",
		mcp.WithDescription("List the due-dated tasks of a calendar falling inside a date range"),
		mcp.WithString("list",
			mcp.Description("Calendar name (default: the first configured calendar)"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Range start, RFC 3339 timestamp or YYYY-MM-DD date"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("Range end, RFC 3339 timestamp or YYYY-MM-DD date"),
		),
	)

	s.AddTool(getEventsTool, common.InstrumentedToolHandler("anydo_get_events", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})

		adapter, err := adapterFromArgs(sc, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		start, err := parseRangeBound(args, "start")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		end, err := parseRangeBound(args, "end")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !end.After(start) {
			return mcp.NewToolResultError("end must be after start"), nil
		}

		events, err := adapter.Events(ctx, start, end)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to query events: %v", err)), nil
		}
		if len(events) == 0 {
			return mcp.NewToolResultText("No events in range."), nil
		}
		return jsonResult(events), nil
	}))
}

// registerAccountTools registers the tools backed by the Any.do account.
func registerAccountTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	listListsTool := mcp.NewTool("anydo_list_lists",
		mcp.WithDescription("List all Any.do task lists of the account"),
	)

	s.AddTool(listListsTool, common.InstrumentedToolHandlerWithEndpoint("anydo_list_lists", "/me/categories", "list", sc, func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		user, err := sc.Client().GetUser(ctx, false)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch user: %v", err)), nil
		}

		categories, err := user.Categories(ctx, anydo.CategoryQuery{})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list lists: %v", err)), nil
		}

		entries := make([]listEntry, 0, len(categories))
		for _, category := range categories {
			name, err := category.Name()
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			isDefault, err := category.IsDefault()
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			entries = append(entries, listEntry{ID: category.ID(), Name: name, Default: isDefault})
		}
		return jsonResult(entries), nil
	}))

	listTagsTool := mcp.NewTool("anydo_list_tags",
		mcp.WithDescription("List all Any.do tags of the account"),
	)

	s.AddTool(listTagsTool, common.InstrumentedToolHandlerWithEndpoint("anydo_list_tags", "/api/v2/me/sync", "list", sc, func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		user, err := sc.Client().GetUser(ctx, false)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch user: %v", err)), nil
		}

		labels, err := user.Labels(ctx, anydo.LabelQuery{})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list tags: %v", err)), nil
		}

		entries := make([]tagEntry, 0, len(labels))
		for _, label := range labels {
			name, err := label.Name()
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			entries = append(entries, tagEntry{ID: label.ID(), Name: name})
		}
		return jsonResult(entries), nil
	}))
}

// registerWriteTools registers the tools that modify the account.
func registerWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	newTaskTool := mcp.NewTool("anydo_new_task",
		mcp.WithDescription("Create a new Any.do task"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Task title"),
		),
		mcp.WithString("list",
			mcp.Description("List name (default: the account's default list)"),
		),
		mcp.WithString("note",
			mcp.Description("Task note"),
		),
		mcp.WithString("due",
			mcp.Description("Due date, \"2006-01-02 15:04:05\" or \"2006-01-02\" in local time"),
		),
		mcp.WithString("owner",
			mcp.Description("Email address to assign the task to"),
		),
		mcp.WithArray("tags",
			mcp.Description("Tag names to attach to the task"),
		),
	)

	s.AddTool(newTaskTool, common.InstrumentedToolHandlerWithEndpoint("anydo_new_task", "/me/tasks", "create", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})

		title, _ := args["title"].(string)
		if title == "" {
			return mcp.NewToolResultError("title is required"), nil
		}

		user, err := sc.Client().GetUser(ctx, false)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch user: %v", err)), nil
		}

		input := anydo.NewTaskInput{Title: title}

		if note, _ := args["note"].(string); note != "" {
			input.Note = note
		}

		if owner, _ := args["owner"].(string); owner != "" {
			input.AssignedTo = owner
		}

		if listName, _ := args["list"].(string); listName != "" {
			category, err := resolveCategory(ctx, user, listName)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			input.CategoryID = category.ID()
		}

		if due, _ := args["due"].(string); due != "" {
			dueDate, err := parseDueDate(due)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid due: %v", err)), nil
			}
			input.DueDate = dueDate
		}

		if tags := stringSliceArg(args, "tags"); len(tags) > 0 {
			labelIDs, err := resolveTags(ctx, user, tags)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			input.Labels = labelIDs
		}

		task, err := anydo.CreateTask(ctx, user, input)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to create task: %v", err)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Created task %q with id %s", title, task.ID())), nil
	}))
}
