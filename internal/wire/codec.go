package wire

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec turns wire values into payload bytes and back.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Codec names accepted by CodecByName.
const (
	NameJSON    = "json"
	NameMsgPack = "msgpack"
)

var (
	// JSON is the default payload encoding.
	JSON Codec = jsonCodec{}
	// MsgPack encodes payloads as MessagePack using the same field names as JSON.
	MsgPack Codec = msgpackCodec{}
)

// CodecByName returns the codec registered under name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case NameJSON, "":
		return JSON, nil
	case NameMsgPack:
		return MsgPack, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q (want %s or %s)", name, NameJSON, NameMsgPack)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string                       { return NameJSON }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type msgpackCodec struct{}

func (msgpackCodec) Name() string                       { return NameMsgPack }
func (msgpackCodec) Marshal(v any) ([]byte, error)      { return msgpack.Marshal(v) }
func (msgpackCodec) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }
