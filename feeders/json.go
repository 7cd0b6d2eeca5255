package feeders

import "encoding/json"

// JSONFeeder is a feeder that reads JSON files
type JSONFeeder struct {
	Path string
}

// NewJSONFeeder creates a new JSONFeeder that reads from the specified JSON file
func NewJSONFeeder(filePath string) JSONFeeder {
	return JSONFeeder{Path: filePath}
}

func (j JSONFeeder) file() fileFeeder {
	return fileFeeder{path: j.Path, format: "JSON", unmarshal: json.Unmarshal}
}

// Feed reads the JSON file into structure
func (j JSONFeeder) Feed(structure any) error {
	return j.file().feed(structure)
}

// FeedKey reads a JSON file and extracts a specific key
func (j JSONFeeder) FeedKey(key string, target any) error {
	return j.file().feedKey(key, target, json.Marshal)
}
