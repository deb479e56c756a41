package recipe

import "errors"

// Errors returned by manifest validation.
var (
	// ErrUnnamedRecipe indicates an activation without a name.
	ErrUnnamedRecipe = errors.New("recipe activation has no name")

	// ErrDuplicateRecipe indicates the same recipe activated twice.
	ErrDuplicateRecipe = errors.New("duplicate recipe activation")
)
