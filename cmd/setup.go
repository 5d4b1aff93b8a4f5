package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/regevbr/anydo/internal/anydo"
	"github.com/regevbr/anydo/internal/calendar"
	"github.com/regevbr/anydo/internal/config"
)

// loadConfig reads and validates the configuration from the --config path
// or the default location.
func loadConfig() (*config.Config, error) {
	path := configFile
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newClient builds an API client from the configuration.
func newClient(cfg *config.Config) (*anydo.Client, error) {
	var opts []anydo.Option
	if cfg.BaseURL != "" {
		opts = append(opts, anydo.WithBaseURL(cfg.BaseURL))
	}
	return anydo.NewClient(cfg.Username, cfg.Password, opts...)
}

// buildAdapters creates one calendar adapter per Any.do list plus one per
// configured custom list. Custom list include_lists entries are resolved
// from list names to ids case-insensitively.
func buildAdapters(ctx context.Context, client *anydo.Client, cfg *config.Config, opts ...calendar.AdapterOption) ([]*calendar.ListAdapter, error) {
	user, err := client.GetUser(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	tags, err := user.Labels(ctx, anydo.LabelQuery{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tags: %w", err)
	}

	categories, err := user.Categories(ctx, anydo.CategoryQuery{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lists: %w", err)
	}

	var adapters []*calendar.ListAdapter
	for _, category := range categories {
		name, err := category.Name()
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, calendar.NewListAdapter(client, tags, calendar.ListConfig{
			Name: name,
			ID:   category.ID(),
		}, opts...))
	}

	for _, def := range cfg.CustomLists {
		listIDs, err := resolveListIDs(categories, def.IncludeLists)
		if err != nil {
			return nil, fmt.Errorf("custom list %q: %w", def.Name, err)
		}
		adapters = append(adapters, calendar.NewListAdapter(client, tags, calendar.ListConfig{
			Name:            def.Name,
			DueDateDays:     def.DueDateDays,
			TagWhitelist:    def.Tags,
			ListIDWhitelist: listIDs,
		}, opts...))
	}

	return adapters, nil
}

// resolveListIDs maps list names to ids. Unknown names are an error so a
// typo in the config does not silently widen the calendar.
func resolveListIDs(categories []*anydo.Category, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		found := ""
		for _, category := range categories {
			candidate, err := category.Name()
			if err != nil {
				return nil, err
			}
			if strings.EqualFold(candidate, name) {
				found = category.ID()
				break
			}
		}
		if found == "" {
			return nil, fmt.Errorf("unknown list %q", name)
		}
		ids = append(ids, found)
	}
	return ids, nil
}

// hasAdapter reports whether an adapter with the given name exists,
// case-insensitively.
func hasAdapter(adapters []*calendar.ListAdapter, name string) bool {
	for _, adapter := range adapters {
		if strings.EqualFold(adapter.Name(), name) {
			return true
		}
	}
	return false
}

// parseDueDateArg parses a due date given as either a datetime or a bare
// date in the local timezone, returning epoch milliseconds.
func parseDueDateArg(value string) (int64, error) {
	if t, err := time.ParseInLocation(calendar.DateTimeFormat, value, time.Local); err == nil {
		return t.UnixMilli(), nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return 0, fmt.Errorf("invalid due date %q (expected %q or 2006-01-02)", value, calendar.DateTimeFormat)
	}
	return t.UnixMilli(), nil
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
