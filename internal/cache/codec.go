package cache

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes and decodes cached values V to the string payloads the
// key-value store holds.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// JSONCodec stores values as JSON.
type JSONCodec[V any] struct{}

func (JSONCodec[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}

// MsgpackCodec stores values as msgpack, cutting payload size for hot
// page entries.
type MsgpackCodec[V any] struct{}

func (MsgpackCodec[V]) Encode(v V) ([]byte, error) { return msgpack.Marshal(v) }

func (MsgpackCodec[V]) Decode(b []byte) (V, error) {
	var v V
	err := msgpack.Unmarshal(b, &v)
	return v, err
}
