package engine

import (
	"encoding/json"
	"fmt"

	"github.com/testharbor/testharbor/types"
)

// Serialize encodes a test case handle into an opaque token. Together with
// Deserialize it forms a diagnostic round trip verifying that engine-provided
// case identities survive a serialization boundary.
func Serialize(h types.TestCaseHandle) (string, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("serializing test case %s: %w", h.ID, err)
	}
	return string(data), nil
}

// Deserialize decodes a token produced by Serialize back into a handle.
func Deserialize(token string) (types.TestCaseHandle, error) {
	var h types.TestCaseHandle
	if err := json.Unmarshal([]byte(token), &h); err != nil {
		return types.TestCaseHandle{}, fmt.Errorf("deserializing test case token: %w", err)
	}
	return h, nil
}

// RoundTrip serializes and deserializes every handle in place, returning the
// reconstructed set. Filtering must treat the result identically to the input.
func RoundTrip(cases []types.TestCaseHandle) ([]types.TestCaseHandle, error) {
	out := make([]types.TestCaseHandle, 0, len(cases))
	for _, tc := range cases {
		token, err := Serialize(tc)
		if err != nil {
			return nil, err
		}
		back, err := Deserialize(token)
		if err != nil {
			return nil, err
		}
		out = append(out, back)
	}
	return out, nil
}
