package transport

import (
	"github.com/andersonfds/freitool/core"
	goerrors "github.com/goliatone/go-errors"
)

func transportError(
	message string,
	category goerrors.Category,
	code int,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).WithCode(code)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return core.StampTextCode(err, transportTextCode(category))
}

func transportWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	metadata map[string]any,
) error {
	if source == nil {
		return transportError(message, category, code, metadata)
	}
	err := goerrors.Wrap(source, category, message).WithCode(code)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return core.StampTextCode(err, transportTextCode(category))
}

func transportTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return core.ErrorBadInput
	case goerrors.CategoryExternal, goerrors.CategoryRateLimit:
		return core.ErrorTransport
	default:
		return core.ErrorInternal
	}
}
