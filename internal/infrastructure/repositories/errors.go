package repositories

import (
	"errors"

	"github.com/stack-service/backoffice/internal/infrastructure/docstore"
	apperrors "github.com/stack-service/backoffice/pkg/errors"
)

const permissionDeniedMessage = "The data store refused access. Check that the service account has read and write grants on the documents store."

// mapError translates data store errors into application errors
func mapError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, docstore.ErrNotFound):
		return apperrors.NotFound(resource)
	case errors.Is(err, docstore.ErrAlreadyExists):
		return apperrors.Conflict(resource + " already exists")
	case errors.Is(err, docstore.ErrPermissionDenied):
		return apperrors.Wrap(err, apperrors.ErrCodePermissionDenied, permissionDeniedMessage)
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.Internal("data store request failed", err)
}

func toPointers[T any](items []T) []*T {
	out := make([]*T, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out
}
