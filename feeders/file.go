// Package feeders provides configuration feeders for reading data from
// environment variables and JSON, YAML and TOML files.
package feeders

import (
	"fmt"
	"os"
	"reflect"
)

// fileFeeder decodes a whole file into a target using one codec.
type fileFeeder struct {
	path      string
	format    string
	unmarshal func([]byte, any) error
}

func (f fileFeeder) feed(target any) error {
	if v := reflect.ValueOf(target); v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrFeedTargetInvalid
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFileRead, f.path, err)
	}
	if err := f.unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %s file %s: %w", ErrFileDecode, f.format, f.path, err)
	}
	return nil
}

// feedKey decodes the whole file, then re-encodes the value under key and
// decodes it into target. A missing key leaves target untouched.
func (f fileFeeder) feedKey(key string, target any, marshal func(any) ([]byte, error)) error {
	var allData map[string]any
	if err := f.feed(&allData); err != nil {
		return err
	}

	value, exists := allData[key]
	if !exists {
		return nil
	}

	valueBytes, err := marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrKeyRemarshal, key, err)
	}
	if err := f.unmarshal(valueBytes, target); err != nil {
		return fmt.Errorf("%w: %s key %s: %w", ErrFileDecode, f.format, key, err)
	}
	return nil
}
