package http

import (
	"net/http"

	"github.com/fwojciec/carnet"
)

// codes maps application error codes to HTTP status codes.
var codes = map[string]int{
	carnet.EINVALID:   http.StatusBadRequest,
	carnet.EFORBIDDEN: http.StatusForbidden,
	carnet.ENOTFOUND:  http.StatusNotFound,
	carnet.EINTERNAL:  http.StatusInternalServerError,
}

// ErrorStatusCode returns the HTTP status code for an application error code.
func ErrorStatusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}
