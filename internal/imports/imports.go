// Package imports pulls in every tool package so that their init()
// registration runs before the server starts.
package imports

import (
	_ "github.com/sammcj/mcp-git-ops/internal/tools/gitops"
)
