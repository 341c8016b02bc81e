// Package codec encodes run artefacts: JSON for metainfo, meter lines and events,
// YAML for description files, and MessagePack for checkpoints. MessagePack
// honours json struct tags so one set of tags serves every format.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/abhissng/synapse/utils/types"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

type format struct {
	marshal   func(v any) ([]byte, error)
	unmarshal func(data []byte, v any) error
}

var formats = map[types.CodecType]format{
	JSON: {marshal: json.Marshal, unmarshal: json.Unmarshal},
	YAML: {marshal: yaml.Marshal, unmarshal: yaml.Unmarshal},
	MessagePack: {
		marshal: func(v any) ([]byte, error) {
			var buf bytes.Buffer
			enc := msgpack.NewEncoder(&buf)
			enc.SetCustomStructTag(jsonTag)
			err := enc.Encode(v)
			return buf.Bytes(), err
		},
		unmarshal: func(data []byte, v any) error {
			dec := msgpack.NewDecoder(bytes.NewReader(data))
			dec.SetCustomStructTag(jsonTag)
			return dec.Decode(v)
		},
	},
}

func lookup(ct types.CodecType) (format, error) {
	f, ok := formats[ct]
	if !ok {
		return format{}, fmt.Errorf("codec: unsupported format %q", ct)
	}
	return f, nil
}

// Encode serializes v in the given format.
func Encode[T any](v T, ct types.CodecType) ([]byte, error) {
	f, err := lookup(ct)
	if err != nil {
		return nil, err
	}
	data, err := f.marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Decode parses data in the given format into a new T.
func Decode[T any](data []byte, ct types.CodecType) (T, error) {
	var out T
	f, err := lookup(ct)
	if err != nil {
		return out, err
	}
	err = f.unmarshal(data, &out)
	return out, err
}
