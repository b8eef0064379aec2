// Package schema is the binary encoding shared by persisted records, wire snapshots, and message
// envelopes. The underlying format is msgpack and is an implementation detail.
package schema

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/shamaton/msgpack/v3"
)

// Serialize converts a value to bytes.
func Serialize(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "failed to serialize")
	}
	return data, nil
}

// Deserialize converts bytes back into a value. v must be a pointer to the target type.
func Deserialize(data []byte, v any) (err error) {
	defer func() {
		// msgpack.Unmarshal can panic on malformed input instead of returning an error.
		if r := recover(); r != nil {
			err = eris.Wrap(fmt.Errorf("panic: %v", r), "failed to deserialize")
		}
	}()

	if err := msgpack.Unmarshal(data, v); err != nil {
		return eris.Wrap(err, "failed to deserialize")
	}
	return nil
}
