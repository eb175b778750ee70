package cache

import "github.com/vmihailenco/msgpack/v5"

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Msgpack is a Codec backed by vmihailenco/msgpack/v5. The zero value is ready to use.
type Msgpack[V any] struct{}

func (Msgpack[V]) Encode(v V) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	err := msgpack.Unmarshal(b, &v)
	return v, err
}

// entry is what a Cache writes to its provider.
type entry struct {
	Gen     uint64 `msgpack:"g"`
	Payload []byte `msgpack:"p"`
}

func encodeEntry(gen uint64, payload []byte) ([]byte, error) {
	return msgpack.Marshal(entry{Gen: gen, Payload: payload})
}

func decodeEntry(b []byte) (entry, error) {
	var e entry
	err := msgpack.Unmarshal(b, &e)
	return e, err
}
