// Package tools provides host process helpers shared by the installer packages.
//
// Ownership boundary:
// - external command execution (captured or streamed)
//
// - scoped working-directory changes
package tools
