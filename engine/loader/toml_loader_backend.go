package loader

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
)

// tomlLoaderBackend decodes pipelines written as an array of [[commands]] tables.
type tomlLoaderBackend struct{}

var _ loaderBackend = &tomlLoaderBackend{}

func newTOMLLoaderBackend() loaderBackend {
	return &tomlLoaderBackend{}
}

func (b *tomlLoaderBackend) Decode(r io.Reader) ([]map[string]any, error) {
	type pipelineToml struct {
		RawCommands []toml.Primitive `toml:"commands"`
	}

	var pipeline pipelineToml
	metadata, err := toml.NewDecoder(r).Decode(&pipeline)
	if err != nil {
		return nil, err
	}

	nodes := make([]map[string]any, 0, len(pipeline.RawCommands))
	for i, primitive := range pipeline.RawCommands {
		var node map[string]any
		if err := metadata.PrimitiveDecode(primitive, &node); err != nil {
			return nil, fmt.Errorf("failed to decode command %d: %w", i, err)
		}
		nodes = append(nodes, normalize(node).(map[string]any))
	}
	return nodes, nil
}
