package service

import (
	"errors"
	"fmt"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/apierror"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"
)

// storageErr turns a storage sentinel into the matching API error. Anything
// unexpected is wrapped with op and left for the 500 path.
func storageErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotConnected):
		return apierror.Unavailable("Storage backend unavailable")
	case errors.Is(err, storage.ErrNotFound):
		return apierror.NotFound("Resource not found")
	case errors.Is(err, storage.ErrDuplicate):
		return apierror.Conflict("Resource already exists")
	case errors.Is(err, storage.ErrConflict):
		return apierror.Conflict("Resource was modified concurrently")
	}
	return fmt.Errorf("%s: %w", op, err)
}
