package registry

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadSeedFile reads a flat field -> allowed values map from a YAML
// file, e.g.
//
//	city: ["الرياض", "جدة", "الدمام"]
//	industry: [retail, food, travel]
func LoadSeedFile(path string) (*Snapshot, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("read registry seed %s: %w", path, err)
	}
	fields := map[string][]string{}
	if err := k.Unmarshal("", &fields); err != nil {
		return nil, fmt.Errorf("parse registry seed %s: %w", path, err)
	}
	return NewSnapshot(fields), nil
}
