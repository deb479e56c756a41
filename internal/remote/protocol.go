package remote

import (
	"github.com/dshills/treewright/internal/recipe"
	"github.com/dshills/treewright/internal/rpc"
	"github.com/dshills/treewright/internal/tree"
)

// Methods served by the engine.
const (
	MethodSourceGet        = "source/get"
	MethodSourceApply      = "source/apply"
	MethodSourcePrint      = "source/print"
	MethodWorkspaceSources = "workspace/sources"
	MethodRecipeList       = "recipe/list"

	// MethodSourceChanged is notified by the engine when a source was
	// re-parsed from disk.
	MethodSourceChanged = "source/changed"
)

// SourceGetParams asks for the delta of one source. Baseline is the
// identity the caller's mirror holds; when it disagrees with the
// engine's session, or is absent, the engine answers with a full
// encode.
type SourceGetParams struct {
	Path     string   `json:"path"`
	Baseline *tree.ID `json:"baseline,omitempty"`
}

// SourceDelta is the wire form of one sync pass over one source.
type SourceDelta struct {
	Path   string      `json:"path"`
	Events []rpc.Event `json:"events"`
}

// SourceApplyResult reports the engine state after an apply.
type SourceApplyResult struct {
	// Checksum digests the printed bytes of the stored document, in
	// "<algorithm>:<hex>" form, for convergence checks.
	Checksum string `json:"checksum"`
}

// SourcePrintParams names the source to render.
type SourcePrintParams struct {
	Path string `json:"path"`
}

// SourcePrintResult carries the rendered document.
type SourcePrintResult struct {
	Text string `json:"text"`
}

// WorkspaceSourcesResult lists the files under the workspace root.
type WorkspaceSourcesResult struct {
	Paths []string `json:"paths"`
}

// RecipeListResult lists the configured recipe activations.
type RecipeListResult struct {
	Recipes []recipe.Activation `json:"recipes"`
}

// SourceChangedParams names the source a source/changed notification
// refers to.
type SourceChangedParams struct {
	Path string `json:"path"`
}
