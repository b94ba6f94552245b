package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	DirectoryErrorBadInput        = "BOTDIR_BAD_INPUT"
	DirectoryErrorNotFound        = "BOTDIR_NOT_FOUND"
	DirectoryErrorUnauthorized    = "BOTDIR_UNAUTHORIZED"
	DirectoryErrorConflict        = "BOTDIR_CONFLICT"
	DirectoryErrorFeedUnavailable = "BOTDIR_FEED_UNAVAILABLE"
	DirectoryErrorInternal        = "BOTDIR_INTERNAL_ERROR"
)

func directoryErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureDirectoryErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "not found"):
		return newDirectoryError(err.Error(), goerrors.CategoryNotFound, DirectoryErrorNotFound)
	case strings.Contains(msg, "invalid api key"), strings.Contains(msg, "invalid listing secret"):
		return newDirectoryError(err.Error(), goerrors.CategoryAuth, DirectoryErrorUnauthorized)
	case strings.Contains(msg, "feed"), strings.Contains(msg, "appview"):
		return newDirectoryError(err.Error(), goerrors.CategoryExternal, DirectoryErrorFeedUnavailable)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "must be"):
		return newDirectoryError(err.Error(), goerrors.CategoryBadInput, DirectoryErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureDirectoryErrorEnvelope(mapped)
}

func newDirectoryError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureDirectoryErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureDirectoryErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = directoryHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultDirectoryTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultDirectoryTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return DirectoryErrorBadInput
	case goerrors.CategoryNotFound:
		return DirectoryErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return DirectoryErrorUnauthorized
	case goerrors.CategoryConflict:
		return DirectoryErrorConflict
	case goerrors.CategoryExternal:
		return DirectoryErrorFeedUnavailable
	default:
		return DirectoryErrorInternal
	}
}

func directoryHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
