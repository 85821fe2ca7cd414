package postgres

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports whether err is a unique violation on the named
// constraint or index. An empty name matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != pqUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

func encodeIDs(ids map[string]string) (string, error) {
	if len(ids) == 0 {
		return "{}", nil
	}
	encoded, err := sonic.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func decodeIDs(raw []byte) map[string]string {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	out := make(map[string]string)
	if err := sonic.Unmarshal(raw, &out); err != nil || len(out) == 0 {
		return nil
	}
	return out
}

// mergeIDs adds ids from src that dst does not have yet.
func mergeIDs(dst, src map[string]string) (map[string]string, bool) {
	changed := false
	for provider, externalID := range src {
		if externalID == "" || dst[provider] != "" {
			continue
		}
		if dst == nil {
			dst = make(map[string]string, len(src))
		}
		dst[provider] = externalID
		changed = true
	}
	return dst, changed
}

func cloneIDs(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func encodeJSONMap(value map[string]any) string {
	if len(value) == 0 {
		return "{}"
	}
	encoded, err := sonic.Marshal(value)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}

func decodeJSONMap(raw []byte) map[string]any {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any)
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}

func nullInt64(value *int64) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *value, Valid: true}
}

func int64FromNull(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	v := value.Int64
	return &v
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func intFromNull(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}
