package rpcserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gorilla/rpc/v2/json2"

	"github.com/yndnr/mixrelay-go/internal/core/domain"
)

// swapFields lists the swap parameter members in the order they are checked.
var swapFields = []struct {
	name string
	kind byte // first byte of an acceptable JSON value
}{
	{"onion", '{'},
	{"comsig", '"'},
}

func invalidParams(detail string) *json2.Error {
	return &json2.Error{
		Code:    json2.E_BAD_PARAMS,
		Message: "Invalid params: " + strings.TrimSuffix(detail, ".") + ".",
	}
}

// decodeSwapParams decodes params, a one-element array (or a bare object),
// into req. Every failure is an invalid-params error naming what is wrong.
func decodeSwapParams(params json.RawMessage, req *domain.SwapRequest) error {
	obj, err := singleParam(params)
	if err != nil {
		return err
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(obj, &members); err != nil || members == nil {
		return invalidParams("invalid type: expected struct SwapReq")
	}

	for _, f := range swapFields {
		raw, ok := members[f.name]
		if !ok {
			return invalidParams(fmt.Sprintf("missing field `%s`", f.name))
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != f.kind {
			return invalidParams(fmt.Sprintf("invalid type for field `%s`", f.name))
		}
	}

	var decoded domain.SwapRequest
	if err := json.Unmarshal(obj, &decoded); err != nil {
		return invalidParams(err.Error())
	}
	*req = decoded
	return nil
}

// singleParam extracts the only positional parameter.
func singleParam(params json.RawMessage) (json.RawMessage, error) {
	params = bytes.TrimSpace(params)
	if len(params) == 0 || bytes.Equal(params, []byte("null")) {
		return nil, invalidParams("invalid length 0, expected a tuple of size 1")
	}

	switch params[0] {
	case '{':
		return params, nil
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(params, &list); err != nil {
			return nil, invalidParams(err.Error())
		}
		if len(list) != 1 {
			return nil, invalidParams(fmt.Sprintf("invalid length %d, expected a tuple of size 1", len(list)))
		}
		return list[0], nil
	default:
		return nil, invalidParams("invalid type: expected a tuple of size 1")
	}
}
