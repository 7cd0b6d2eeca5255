package feeders

import "gopkg.in/yaml.v3"

// YamlFeeder is a feeder that reads YAML files
type YamlFeeder struct {
	Path string
}

// NewYamlFeeder creates a new YamlFeeder that reads from the specified YAML file
func NewYamlFeeder(filePath string) YamlFeeder {
	return YamlFeeder{Path: filePath}
}

func (y YamlFeeder) file() fileFeeder {
	return fileFeeder{path: y.Path, format: "YAML", unmarshal: yaml.Unmarshal}
}

// Feed reads the YAML file into structure
func (y YamlFeeder) Feed(structure any) error {
	return y.file().feed(structure)
}

// FeedKey reads a YAML file and extracts a specific key
func (y YamlFeeder) FeedKey(key string, target any) error {
	return y.file().feedKey(key, target, yaml.Marshal)
}
