// Package runtime provides a context type that holds the configuration and
// logger for use throughout the application. This avoids passing multiple
// parameters between commands.
package runtime
