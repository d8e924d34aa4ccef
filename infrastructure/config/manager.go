package config

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Errors for config management
var (
	ErrUnknownKey   = errors.New("unknown config key")
	ErrInvalidValue = errors.New("invalid config value")
)

var durationType = reflect.TypeOf(time.Duration(0))

// Entry is one dotted setting and its current value
type Entry struct {
	Key   string
	Value string
}

// ConfigManager reads and updates individual settings by dotted key
// (for example "speech.backend") and persists the result
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// List returns every setting sorted by key. Secrets are masked.
func (m *ConfigManager) List() []Entry {
	var entries []Entry
	walk(reflect.ValueOf(m.config).Elem(), "", func(key string, v reflect.Value) {
		value := format(v)
		if isSecret(key) && value != "" {
			value = "********"
		}
		entries = append(entries, Entry{Key: key, Value: value})
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// Get returns the current value of a setting
func (m *ConfigManager) Get(key string) (string, error) {
	v, err := lookup(m.config, key)
	if err != nil {
		return "", err
	}
	return format(v), nil
}

// Set updates a setting, validates the whole configuration and saves it.
// The previous value is restored when validation fails.
func (m *ConfigManager) Set(key, value string) error {
	v, err := lookup(m.config, key)
	if err != nil {
		return err
	}

	previous := reflect.New(v.Type()).Elem()
	previous.Set(v)

	if err := assign(v, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%w for %s: %v", ErrInvalidValue, key, err)
	}
	if err := m.config.Validate(); err != nil {
		v.Set(previous)
		return fmt.Errorf("%w for %s: %v", ErrInvalidValue, key, err)
	}

	return Save(m.config, m.configPath)
}

func lookup(cfg *Config, key string) (reflect.Value, error) {
	v := reflect.ValueOf(cfg).Elem()
	for _, part := range strings.Split(strings.ToLower(strings.TrimSpace(key)), ".") {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
		}
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
		}
		v = field
	}
	if v.Kind() == reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%w: %q is a section", ErrUnknownKey, key)
	}
	return v, nil
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tagName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tagName(f reflect.StructField) string {
	tag := f.Tag.Get("yaml")
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	return tag
}

func walk(v reflect.Value, prefix string, fn func(key string, v reflect.Value)) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key := tagName(t.Field(i))
		if prefix != "" {
			key = prefix + "." + key
		}
		field := v.Field(i)
		if field.Kind() == reflect.Struct {
			walk(field, key, fn)
			continue
		}
		fn(key, field)
	}
}

func format(v reflect.Value) string {
	if v.Type() == durationType {
		return time.Duration(v.Int()).String()
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Slice:
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = v.Index(i).String()
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v.Interface())
}

func assign(v reflect.Value, value string) error {
	if v.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		v.SetInt(int64(d))
		return nil
	}
	switch v.Kind() {
	case reflect.String:
		v.SetString(value)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Slice:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		v.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported setting type %s", v.Type())
	}
	return nil
}

func isSecret(key string) bool {
	return strings.HasSuffix(key, "api_key")
}
