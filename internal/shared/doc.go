// Package shared provides common utilities and test helpers used
// across the marklens codebase. It should only contain generic
// functionality with no domain-specific logic; the testutil subpackage
// carries the slog capture helpers used by package tests throughout
// the tree.
package shared
