// Package logging provides structured logging utilities for anydo.
//
// It centralizes attribute naming on top of the standard library's slog
// package and keeps account emails out of log output by hashing them.
package logging
