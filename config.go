package capreg

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/golobby/cast"
)

const (
	// Struct tag keys
	tagDefault  = "default"
	tagRequired = "required"
	tagDesc     = "desc" // Used for generating sample config and documentation
)

// Feeder populates a configuration structure from one source.
// The implementations live in the feeders package.
type Feeder interface {
	Feed(target any) error
}

// RuntimeConfig configures the runtime context handed to every module factory.
type RuntimeConfig struct {
	AppID    string `yaml:"app_id" toml:"app_id" json:"app_id" env:"APP_ID" required:"true" desc:"Host application identifier"`
	DataDir  string `yaml:"data_dir" toml:"data_dir" json:"data_dir" env:"DATA_DIR" default:"./data" desc:"Root directory for module-owned files"`
	Locale   string `yaml:"locale" toml:"locale" json:"locale" env:"LOCALE" default:"en-US" desc:"Locale reported by the constants module"`
	Debug    bool   `yaml:"debug" toml:"debug" json:"debug" env:"DEBUG" desc:"Enable debug logging"`
	Platform string `yaml:"platform" toml:"platform" json:"platform" env:"PLATFORM" default:"go" desc:"Platform name reported by the constants module"`
}

// LoadRuntimeConfig applies each feeder in order, then fills defaults and
// checks required fields.
func LoadRuntimeConfig(feeders ...Feeder) (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{}
	for _, f := range feeders {
		if err := f.Feed(cfg); err != nil {
			return nil, fmt.Errorf("%w: %T: %w", ErrConfigFeederError, f, err)
		}
	}
	if err := ProcessConfigDefaults(cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfigRequired(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProcessConfigDefaults applies default values to a config struct based on struct tags.
// It looks for `default:"value"` tags on struct fields and sets the field value if currently zero/empty.
//
// Example struct tags:
//
//	type Config struct {
//	    Host  string `default:"localhost"`
//	    Port  int    `default:"8080"`
//	}
func ProcessConfigDefaults(cfg any) error {
	v, err := structValue(cfg)
	if err != nil {
		return err
	}
	return processStructDefaults(v)
}

func processStructDefaults(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := processStructDefaults(field); err != nil {
				return err
			}
			continue
		}

		defaultVal, hasDefault := fieldType.Tag.Lookup(tagDefault)
		if !hasDefault || !isZeroValue(field) {
			continue
		}

		if err := setDefaultValue(field, defaultVal); err != nil {
			return fmt.Errorf("failed to set default value for %s: %w", fieldType.Name, err)
		}
	}

	return nil
}

// ValidateConfigRequired checks all struct fields with `required:"true"` tag
// and verifies they are not zero/empty values
func ValidateConfigRequired(cfg any) error {
	v, err := structValue(cfg)
	if err != nil {
		return err
	}

	var missing []string
	validateRequiredFields(v, "", &missing)
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigRequiredFieldMissing, strings.Join(missing, ", "))
	}
	return nil
}

func validateRequiredFields(v reflect.Value, prefix string, missing *[]string) {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		fieldName := fieldType.Name
		if prefix != "" {
			fieldName = prefix + "." + fieldName
		}

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			validateRequiredFields(field, fieldName, missing)
			continue
		}

		if required, ok := fieldType.Tag.Lookup(tagRequired); ok && required == "true" && isZeroValue(field) {
			*missing = append(*missing, fieldName)
		}
	}
}

// ConfigDescriptions returns the `desc` tag of every documented field, keyed
// by the field's yaml name, or by its Go name when it has no yaml tag. A
// field with a default has it appended to the description.
func ConfigDescriptions(cfg any) (map[string]string, error) {
	v, err := structValue(cfg)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		desc, ok := f.Tag.Lookup(tagDesc)
		if !ok {
			continue
		}
		key := f.Name
		if name, _, _ := strings.Cut(f.Tag.Get("yaml"), ","); name != "" && name != "-" {
			key = name
		}
		if def, ok := f.Tag.Lookup(tagDefault); ok {
			desc = fmt.Sprintf("%s (default %q)", desc, def)
		}
		out[key] = desc
	}
	return out, nil
}

func structValue(cfg any) (reflect.Value, error) {
	if cfg == nil {
		return reflect.Value{}, ErrConfigNil
	}
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return reflect.Value{}, ErrConfigNotPointer
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, ErrConfigNotStruct
	}
	return v, nil
}

// isZeroValue determines if a field contains its zero value
func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	default:
		return false
	}
}

// setDefaultValue converts a tag value to the field's type
func setDefaultValue(field reflect.Value, defaultVal string) error {
	switch field.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedTypeForDefault, field.Kind())
	}

	converted, err := cast.FromType(defaultVal, field.Type())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDefaultValueParseError, err)
	}
	field.Set(reflect.ValueOf(converted).Convert(field.Type()))
	return nil
}
