package acp

import "encoding/json"

// decodeParams unmarshals raw into a value of type T and returns it, or an
// InvalidParams error if the payload doesn't match; an empty payload yields
// the zero value. Both AgentSideConnection and ClientSideConnection route through
// this before invoking business logic, so a malformed payload always
// produces the same error shape (§4.3).
func decodeParams[T any](raw json.RawMessage) (T, *RPCError) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, NewInvalidParamsError(err)
	}
	return v, nil
}

// decodeResult unmarshals a response payload into the result type a pending
// call expects. Unlike decodeParams, failure here is the caller's problem
// (it surfaces as the error return of the blocking call), not something the
// engine can recover from.
func decodeResult[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, err
	}
	return v, nil
}
