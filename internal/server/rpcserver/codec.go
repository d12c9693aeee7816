package rpcserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"

	"github.com/yndnr/mixrelay-go/internal/core/domain"
)

const jsonrpcVersion = "2.0"

// Public method names and the registered service methods they dispatch to.
var methodTable = map[string]string{
	"swap": serviceName + ".Swap",
}

// serverRequest is a JSON-RPC 2.0 request object.
type serverRequest struct {
	Version string           `json:"jsonrpc"`
	Method  string           `json:"method"`
	Params  *json.RawMessage `json:"params"`
	ID      *json.RawMessage `json:"id"`
}

// serverResponse is a JSON-RPC 2.0 response object. Exactly one of Result
// and Error is set.
type serverResponse struct {
	Version string           `json:"jsonrpc"`
	Result  any              `json:"result,omitempty"`
	Error   *wireError       `json:"error,omitempty"`
	ID      *json.RawMessage `json:"id"`
}

// wireError is json2.Error without an empty "data" member.
type wireError struct {
	Code    json2.ErrorCode `json:"code"`
	Message string          `json:"message"`
	Data    any             `json:"data,omitempty"`
}

var nullID = json.RawMessage("null")

// Codec is a gorilla/rpc codec speaking JSON-RPC 2.0 with the relay's
// public method names and strict swap parameter decoding.
type Codec struct{}

// NewCodec returns a new Codec.
func NewCodec() *Codec {
	return &Codec{}
}

// NewRequest implements rpc.Codec.
func (c *Codec) NewRequest(r *http.Request) rpc.CodecRequest {
	req := new(serverRequest)

	body, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		return &codecRequest{request: req, err: readBodyError(err)}
	}

	if err := json.Unmarshal(body, req); err != nil {
		req.ID = &nullID
		return &codecRequest{request: req, err: &json2.Error{
			Code:    json2.E_PARSE,
			Message: "Parse error",
		}}
	}
	// An explicit "id":null is a call, not a notification.
	if req.ID == nil && hasMember(body, "id") {
		req.ID = &nullID
	}
	if req.Version != jsonrpcVersion || req.Method == "" {
		if req.ID == nil {
			req.ID = &nullID
		}
		return &codecRequest{request: req, err: &json2.Error{
			Code:    json2.E_INVALID_REQ,
			Message: "Invalid request",
		}}
	}

	return &codecRequest{request: req}
}

func hasMember(body []byte, name string) bool {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(body, &members); err != nil {
		return false
	}
	_, ok := members[name]
	return ok
}

func readBodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errBodyTooLarge
	}
	return &json2.Error{Code: json2.E_PARSE, Message: "Parse error"}
}

// codecRequest decodes and encodes a single request.
type codecRequest struct {
	request *serverRequest
	err     error
}

// Method implements rpc.CodecRequest. It translates the public method name
// to the registered service method.
func (c *codecRequest) Method() (string, error) {
	if c.err != nil {
		return "", c.err
	}
	method, ok := methodTable[c.request.Method]
	if !ok {
		c.err = &json2.Error{Code: json2.E_NO_METHOD, Message: "Method not found"}
		return "", c.err
	}
	return method, nil
}

// ReadRequest implements rpc.CodecRequest.
func (c *codecRequest) ReadRequest(args any) error {
	if c.err != nil {
		return c.err
	}

	var params json.RawMessage
	if c.request.Params != nil {
		params = *c.request.Params
	}

	switch a := args.(type) {
	case *domain.SwapRequest:
		c.err = decodeSwapParams(params, a)
	default:
		if err := json.Unmarshal(params, args); err != nil {
			c.err = invalidParams(err.Error())
		}
	}
	return c.err
}

// WriteResponse implements rpc.CodecRequest.
func (c *codecRequest) WriteResponse(w http.ResponseWriter, reply any) {
	c.write(w, &serverResponse{
		Version: jsonrpcVersion,
		Result:  reply,
		ID:      c.request.ID,
	})
}

// WriteError implements rpc.CodecRequest. The HTTP status is always 200;
// the failure is carried in the JSON-RPC error object.
func (c *codecRequest) WriteError(w http.ResponseWriter, _ int, err error) {
	if errors.Is(err, errBodyTooLarge) {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	jsonErr := MapError(err)
	c.write(w, &serverResponse{
		Version: jsonrpcVersion,
		Error: &wireError{
			Code:    jsonErr.Code,
			Message: jsonErr.Message,
			Data:    jsonErr.Data,
		},
		ID: c.request.ID,
	})
}

func (c *codecRequest) write(w http.ResponseWriter, res *serverResponse) {
	// Notifications carry no id and get no response.
	if res.ID == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(res); err != nil {
		rpc.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
