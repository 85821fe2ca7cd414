package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// source reads raw values from viper and parses them with explicit errors,
// since viper's typed getters silently return zero values on bad input.
type source struct {
	v *viper.Viper
}

func (s source) str(key, fallback string) string {
	value := strings.TrimSpace(s.v.GetString(key))
	if value == "" {
		return fallback
	}
	return value
}

func (s source) integer(key string, fallback int) (int, error) {
	value := s.str(key, "")
	if value == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func (s source) positiveInt(key string, fallback int) (int, error) {
	out, err := s.integer(key, fallback)
	if err != nil {
		return 0, err
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func (s source) boolean(key string, fallback bool) (bool, error) {
	value := s.str(key, "")
	if value == "" {
		return fallback, nil
	}
	out, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func (s source) duration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(s.str(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out < 0 {
		return 0, fmt.Errorf("%s must be >= 0", key)
	}
	return out, nil
}

func (s source) positiveDuration(key, fallback string) (time.Duration, error) {
	out, err := s.duration(key, fallback)
	if err != nil {
		return 0, err
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

// list accepts a YAML sequence or a comma separated string.
func (s source) list(key string, fallback []string) []string {
	switch raw := s.v.Get(key).(type) {
	case nil:
		return fallback
	case string:
		if strings.TrimSpace(raw) == "" {
			return fallback
		}
		return splitCSV(raw)
	case []string:
		return trimAll(raw)
	case []any:
		items := make([]string, 0, len(raw))
		for _, item := range raw {
			items = append(items, fmt.Sprint(item))
		}
		return trimAll(items)
	default:
		return fallback
	}
}

func splitCSV(v string) []string {
	return trimAll(strings.Split(v, ","))
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
