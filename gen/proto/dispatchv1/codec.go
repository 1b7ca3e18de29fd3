package dispatchv1

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype the Notifier service speaks. Clients opt
// in with CallOption; servers pick the codec from the request's content-type
// once this package is imported.
const CodecName = "json"

// CallOption selects the JSON codec on outgoing Notifier calls.
func CallOption() grpc.CallOption {
	return grpc.CallContentSubtype(CodecName)
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec marshals the wire types of this package with encoding/json,
// satisfying grpc's encoding.Codec without protobuf reflection.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec: failed to marshal %T: %w", v, err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json codec: failed to unmarshal into %T: %w", v, err)
	}
	return nil
}

func (jsonCodec) Name() string { return CodecName }
