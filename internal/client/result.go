package client

import (
	"errors"
	"fmt"
)

// Result is the outcome of a store action as shown to the user.
type Result struct {
	Success bool
	Errors  []string
}

func ok() Result {
	return Result{Success: true}
}

// ResultOf turns an error returned by Client into user-facing messages.
func ResultOf(err error) Result {
	if err == nil {
		return ok()
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if len(apiErr.Messages) > 0 {
			return Result{Errors: apiErr.Messages}
		}
		return Result{Errors: []string{fmt.Sprintf("Request failed (%d).", apiErr.Status)}}
	}
	return Result{Errors: []string{err.Error()}}
}
