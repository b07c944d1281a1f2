//go:build tools

// Development tools pinned in go.mod. Install with: make install-tools,
// then run the linter with: make lint
package tools

import (
	_ "github.com/golangci/golangci-lint/cmd/golangci-lint"
)
