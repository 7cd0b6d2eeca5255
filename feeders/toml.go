package feeders

import "github.com/BurntSushi/toml"

// TomlFeeder is a feeder that reads TOML files
type TomlFeeder struct {
	Path string
}

// NewTomlFeeder creates a new TomlFeeder that reads from the specified TOML file
func NewTomlFeeder(filePath string) TomlFeeder {
	return TomlFeeder{Path: filePath}
}

func (t TomlFeeder) file() fileFeeder {
	return fileFeeder{path: t.Path, format: "TOML", unmarshal: toml.Unmarshal}
}

// Feed reads the TOML file into structure
func (t TomlFeeder) Feed(structure any) error {
	return t.file().feed(structure)
}

// FeedKey reads a TOML file and extracts a specific key
func (t TomlFeeder) FeedKey(key string, target any) error {
	return t.file().feedKey(key, target, toml.Marshal)
}
