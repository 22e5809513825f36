// Package logtail reads the tail of the petdesk log file and filters it by
// slog level. Both the text and JSON handler formats are understood; lines
// without a recognizable level are kept so multi-line values survive a filter.
package logtail
