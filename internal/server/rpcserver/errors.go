package rpcserver

import (
	"errors"

	"github.com/gorilla/rpc/v2/json2"

	"github.com/yndnr/mixrelay-go/internal/core/domain"
)

// errBodyTooLarge is raised when a request body exceeds the configured cap.
var errBodyTooLarge = errors.New("request body too large")

// MapError converts an error into the JSON-RPC error sent to the client.
//
//   - *json2.Error values pass through unchanged.
//   - Client-class swap errors become invalid params with the error's
//     own description.
//   - Everything else, including UnknownError, deadlines and cancellation,
//     is an internal error.
func MapError(err error) *json2.Error {
	var jsonErr *json2.Error
	if errors.As(err, &jsonErr) {
		return jsonErr
	}

	se := domain.AsSwapError(err)
	if se.Class() == domain.ClassClient {
		return &json2.Error{Code: json2.E_BAD_PARAMS, Message: se.Error()}
	}
	return &json2.Error{Code: json2.E_INTERNAL, Message: se.Error()}
}
