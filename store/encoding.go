package store

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// EncodePayload encodes an application record into the CBOR BLOB stored in
// the payload column.
func EncodePayload[T any](data T) ([]byte, error) {
	b, err := cbor.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("store: encode payload: %w", err)
	}
	return b, nil
}

// DecodePayload decodes a BLOB produced by EncodePayload.
func DecodePayload[T any](b []byte) (T, error) {
	var data T
	if len(b) == 0 {
		return data, fmt.Errorf("store: empty payload")
	}
	if err := cbor.Unmarshal(b, &data); err != nil {
		return data, fmt.Errorf("store: decode payload: %w", err)
	}
	return data, nil
}
