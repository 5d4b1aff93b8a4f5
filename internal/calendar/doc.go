// Package calendar adapts Any.do task lists into calendar entities.
//
// Each configured list gets a ListAdapter. On every update cycle the adapter
// polls the API for the user's tasks, filters them by list, tag whitelist
// and due-date horizon, maps the survivors into calendar events, and ranks
// them by urgency. The top of the ranking is the calendar's current event;
// the full ranking is exposed as the list's task set.
//
// Ranking is deterministic: a linear pairwise reduction (not a sort) that
// prefers incomplete tasks, earlier due days, and earlier times within a
// day, falling back to the most recently listed task when nothing carries a
// due date.
package calendar
