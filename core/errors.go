package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const textCodePrefix = "FREITOOL_"

// metadataTextCode mirrors TextCode in metadata. goerrors.Wrap clones an
// envelope and replaces its TextCode, but the clone keeps the metadata.
const metadataTextCode = "freitool_text_code"

const (
	ErrorMalformedKeyPath               = "FREITOOL_MALFORMED_KEY_PATH"
	ErrorKeyUnreadable                  = "FREITOOL_KEY_UNREADABLE"
	ErrorMalformedKeyFile               = "FREITOOL_MALFORMED_KEY_FILE"
	ErrorSigningFailed                  = "FREITOOL_SIGNING_FAILED"
	ErrorExchangeFailed                 = "FREITOOL_EXCHANGE_FAILED"
	ErrorAPI                            = "FREITOOL_API_ERROR"
	ErrorAmbiguousOrMissingVersion      = "FREITOOL_AMBIGUOUS_OR_MISSING_VERSION"
	ErrorAmbiguousOrMissingLocalization = "FREITOOL_AMBIGUOUS_OR_MISSING_LOCALIZATION"
	ErrorReleaseNotEditable             = "FREITOOL_RELEASE_NOT_EDITABLE"
	ErrorVersionAlreadyExists           = "FREITOOL_VERSION_ALREADY_EXISTS"
	ErrorTransport                      = "FREITOOL_TRANSPORT_ERROR"
	ErrorBadInput                       = "FREITOOL_BAD_INPUT"
	ErrorInternal                       = "FREITOOL_INTERNAL_ERROR"
)

// AuthError builds a credential acquisition failure. Key material problems are
// reported as bad input; signing and exchange problems as auth failures.
func AuthError(textCode string, message string, source error) error {
	category := goerrors.CategoryAuth
	switch textCode {
	case ErrorMalformedKeyPath, ErrorKeyUnreadable, ErrorMalformedKeyFile:
		category = goerrors.CategoryBadInput
	}
	return richError(source, category, message, textCode, nil)
}

// APIError converts a non-2xx vendor response. The raw body is kept in the
// message for diagnostics and the vendor status becomes the error code.
func APIError(operation string, status int, body []byte) error {
	message := fmt.Sprintf("%s: api error (%d): %s", operation, status, strings.TrimSpace(string(body)))
	err := goerrors.New(message, goerrors.CategoryExternal).
		WithCode(status).
		WithMetadata(map[string]any{
			"operation":   operation,
			"status_code": status,
		})
	return StampTextCode(err, ErrorAPI)
}

func ResolutionError(textCode string, message string, metadata map[string]any) error {
	category := goerrors.CategoryNotFound
	switch textCode {
	case ErrorReleaseNotEditable, ErrorVersionAlreadyExists:
		category = goerrors.CategoryConflict
	}
	return richError(nil, category, message, textCode, metadata)
}

func TransportError(source error, message string) error {
	return richError(source, goerrors.CategoryExternal, message, ErrorTransport, nil)
}

func BadInputError(message string) error {
	return richError(nil, goerrors.CategoryBadInput, message, ErrorBadInput, nil)
}

func InternalError(message string) error {
	return richError(nil, goerrors.CategoryInternal, message, ErrorInternal, nil)
}

// WithStep prefixes err with the orchestration step that produced it while
// keeping the category, code and text code of the innermost envelope.
func WithStep(err error, step string) error {
	if err == nil {
		return nil
	}
	step = strings.TrimSpace(step)
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		textCode, _ := freitoolCode(err)
		if textCode == "" {
			textCode = ErrorInternal
		}
		wrapped := goerrors.Wrap(err, rich.Category, step).WithCode(rich.Code)
		wrapped.WithMetadata(map[string]any{"step": step})
		return StampTextCode(wrapped, textCode)
	}
	return richError(err, goerrors.CategoryInternal, step, ErrorInternal, map[string]any{"step": step})
}

// StampTextCode sets textCode on err and records it in metadata so it
// survives re-wrapping by other libraries.
func StampTextCode(err *goerrors.Error, textCode string) *goerrors.Error {
	if err == nil {
		return nil
	}
	return err.WithTextCode(textCode).WithMetadata(map[string]any{metadataTextCode: textCode})
}

// TextCode returns the outermost FREITOOL_* text code in err. Envelopes
// added by other libraries on the way out are skipped.
func TextCode(err error) string {
	if err == nil {
		return ""
	}
	if textCode, _ := freitoolCode(err); textCode != "" {
		return textCode
	}
	return ErrorInternal
}

func freitoolCode(err error) (string, *goerrors.Error) {
	for current := err; current != nil; current = errors.Unwrap(current) {
		var rich *goerrors.Error
		if !goerrors.As(current, &rich) {
			return "", nil
		}
		if strings.HasPrefix(rich.TextCode, textCodePrefix) {
			return rich.TextCode, rich
		}
		if textCode, ok := rich.Metadata[metadataTextCode].(string); ok && strings.HasPrefix(textCode, textCodePrefix) {
			return textCode, rich
		}
		current = rich
	}
	return "", nil
}

func HasTextCode(err error, textCode string) bool {
	return err != nil && TextCode(err) == textCode
}

// StatusCode returns the vendor status carried by an API error, or 0.
func StatusCode(err error) int {
	if err == nil {
		return 0
	}
	textCode, rich := freitoolCode(err)
	if textCode != ErrorAPI {
		return 0
	}
	return rich.Code
}

func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

func richError(
	source error,
	category goerrors.Category,
	message string,
	textCode string,
	metadata map[string]any,
) error {
	var err *goerrors.Error
	if source == nil {
		err = goerrors.New(message, category)
	} else {
		err = goerrors.Wrap(source, category, message)
		// Wrap keeps the category of an envelope source.
		err.Category = category
	}
	err = err.WithCode(httpStatus(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return StampTextCode(err, textCode)
}

func httpStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
