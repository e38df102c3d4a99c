// Package logging configures structured slog output for wikidex.
//
// Builds log to stderr by default. With --debug (or logging.file in the
// config) records are also written as JSON to a size-rotated file under
// ~/.wikidex/logs/, which is the only sink while the MCP server owns stdout.
package logging
