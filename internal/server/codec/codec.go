// Package codec registers a JSON codec for gRPC so services can exchange plain Go structs.
// Clients select it with grpc.CallContentSubtype(codec.Name).
package codec

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// Name is the content-subtype of the codec ("application/grpc+json").
const Name = "json"

func init() {
	encoding.RegisterCodec(JSON{})
}

// JSON marshals gRPC messages with encoding/json.
type JSON struct{}

// Marshal encodes v as JSON.
func (JSON) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal %T: %w", v, err)
	}
	return b, nil
}

// Unmarshal decodes JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("codec: unmarshal %T: %w", v, err)
	}
	return nil
}

// Name returns the registered content-subtype.
func (JSON) Name() string { return Name }
