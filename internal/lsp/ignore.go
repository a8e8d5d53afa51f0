// Package lsp builds the LSP-facing feature providers —
// inlay hints, diagnostics, hover, and completion — from the cached
// version-status state internal/status decides. Code actions live in the
// sibling internal/lsp/actions package to keep workspace-edit
// construction separate from read-only presentation.
package lsp

import "strings"

// IgnoreList implements the configurable ignore list:
// exact names, or a single trailing "*" glob.
type IgnoreList []string

// Matches reports whether name is covered by the ignore list.
func (l IgnoreList) Matches(name string) bool {
	for _, pattern := range l {
		if strings.HasSuffix(pattern, "*") {
			if strings.HasPrefix(name, strings.TrimSuffix(pattern, "*")) {
				return true
			}
			continue
		}
		if pattern == name {
			return true
		}
	}
	return false
}
