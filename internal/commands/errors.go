package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"todoshell/internal/exitcode"
	"todoshell/internal/service"
)

// reportError prints err and returns the matching exit code.
func reportError(errOut io.Writer, err error) int {
	var apiErr *service.APIError
	switch {
	case errors.Is(err, service.ErrNotFound):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case service.IsAuth(err):
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	case errors.As(err, &apiErr) && apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}
