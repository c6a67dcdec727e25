package errors

import (
	"net/http"
)

// WriteError writes err as a JSON body for middleware that sits below the api helpers.
func WriteError(w http.ResponseWriter, err error) {
	appErr := AsAppError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	_, _ = w.Write(append(appErr.ToJSON(), '\n'))
}
