package domain

import "errors"

var (
	// ErrUnauthorized signals a missing or invalid identity token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrSubmissionNotFound signals a missing submission.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrPreferenceNotFound signals that a user has no stored preference record.
	ErrPreferenceNotFound = errors.New("preference record not found")
	// ErrBadRequest signals malformed input.
	ErrBadRequest = errors.New("bad request")
	// ErrBadAction signals a preference action other than like or dislike.
	ErrBadAction = errors.New("action must be like or dislike")
	// ErrNoTableStore signals that the edition has no table store configured.
	ErrNoTableStore = errors.New("no table store configured for edition")
	// ErrEditionUnknown signals an edition absent from configuration.
	ErrEditionUnknown = errors.New("unknown edition")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)
