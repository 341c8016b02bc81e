package codec

import "github.com/abhissng/synapse/utils/types"

const (
	JSON        types.CodecType = "json"
	YAML        types.CodecType = "yaml"
	MessagePack types.CodecType = "msgpack"

	jsonTag = "json"
)
