package store

import "errors"

// Sentinel errors for the full failure taxonomy. The REST surface and the
// remote proxy round-trip these through Code / FromCode so both operating
// modes expose the identical contract.
var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrChunkNotFound     = errors.New("chunk not found")
	ErrCommitNotFound    = errors.New("commit not found")
	ErrProjectExists     = errors.New("project already exists")
	ErrInvalidName       = errors.New("invalid project name")
	ErrEmptyName         = errors.New("category name cannot be empty")
	ErrEmptyChunkID      = errors.New("chunk id cannot be empty")
	ErrDuplicateCategory = errors.New("category name already in use")
	ErrDuplicateChunkID  = errors.New("chunk id already in use")
	ErrAlreadyInCategory = errors.New("chunk is already in that category")
	ErrInvalidInput      = errors.New("invalid input")
)

var errCodes = []struct {
	err  error
	code string
}{
	{ErrProjectNotFound, "project_not_found"},
	{ErrCategoryNotFound, "category_not_found"},
	{ErrChunkNotFound, "chunk_not_found"},
	{ErrCommitNotFound, "commit_not_found"},
	{ErrProjectExists, "project_exists"},
	{ErrInvalidName, "invalid_name"},
	{ErrEmptyName, "empty_name"},
	{ErrEmptyChunkID, "empty_chunk_id"},
	{ErrDuplicateCategory, "duplicate_category"},
	{ErrDuplicateChunkID, "duplicate_chunk_id"},
	{ErrAlreadyInCategory, "already_in_category"},
	{ErrInvalidInput, "invalid_input"},
}

// Code returns the stable wire code for err, or "internal" when err is not
// part of the taxonomy.
func Code(err error) string {
	for _, ec := range errCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}

// FromCode maps a wire code back to its sentinel. Unknown codes return nil.
func FromCode(code string) error {
	for _, ec := range errCodes {
		if ec.code == code {
			return ec.err
		}
	}
	return nil
}

// IsNotFound reports whether err is any of the absence errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrChunkNotFound) ||
		errors.Is(err, ErrCommitNotFound)
}
