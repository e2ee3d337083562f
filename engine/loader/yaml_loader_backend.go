package loader

import (
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// yamlLoaderBackend decodes pipelines written as a "commands" sequence of mappings.
type yamlLoaderBackend struct{}

var _ loaderBackend = &yamlLoaderBackend{}

func newYAMLLoaderBackend() loaderBackend {
	return &yamlLoaderBackend{}
}

func (b *yamlLoaderBackend) Decode(r io.Reader) ([]map[string]any, error) {
	var pipeline struct {
		Commands []map[string]any `yaml:"commands"`
	}
	if err := yaml.NewDecoder(r).Decode(&pipeline); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	nodes := make([]map[string]any, 0, len(pipeline.Commands))
	for _, node := range pipeline.Commands {
		nodes = append(nodes, normalize(node).(map[string]any))
	}
	return nodes, nil
}
