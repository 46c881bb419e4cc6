package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Record は永続化用のフラットなレコードです（フィールド名 → プリミティブ値）
type Record map[string]any

// Entity はリポジトリで扱えるエンティティの共通インターフェースです
type Entity interface {
	EntityID() string
	ToRecord() Record
}

func (r Record) missing(keys ...string) error {
	for _, k := range keys {
		if v, ok := r[k]; !ok || v == nil {
			return fmt.Errorf("missing required field: %s", k)
		}
	}
	return nil
}

func (r Record) str(key string) (string, error) {
	switch v := r[key].(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	default:
		return "", fmt.Errorf("field %s: expected string, got %T", key, v)
	}
}

// optStr は任意の文字列フィールドを返します。空文字は未指定として扱います
func (r Record) optStr(key string, trim bool) (*string, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, err := r.str(key)
	if err != nil {
		return nil, err
	}
	return normalizeOpt(&s, trim), nil
}

// normalizeOpt は任意の文字列を永続化時と同じ形に揃えます
func normalizeOpt(s *string, trim bool) *string {
	if s == nil {
		return nil
	}
	v := *s
	if trim {
		v = strings.TrimSpace(v)
	}
	if v == "" {
		return nil
	}
	return &v
}

func (r Record) integer(key string) (int, error) {
	switch v := r[key].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("field %s: invalid integer %q", key, v.String())
		}
		return integral(key, f)
	case float64:
		return integral(key, v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("field %s: invalid integer %q", key, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("field %s: expected integer, got %T", key, v)
	}
}

func integral(key string, f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) || f >= math.MaxInt || f < math.MinInt {
		return 0, fmt.Errorf("field %s: %v is not an integer", key, f)
	}
	return int(f), nil
}

func (r Record) optInt(key string) (*int, error) {
	if v, ok := r[key]; !ok || v == nil {
		return nil, nil
	}
	n, err := r.integer(key)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r Record) optFloat(key string) (*float64, error) {
	var f float64
	switch v := r[key].(type) {
	case nil:
		return nil, nil
	case float64:
		f = v
	case int:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("field %s: invalid number %q", key, v.String())
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("field %s: invalid number %q", key, v)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("field %s: expected number, got %T", key, v)
	}
	return &f, nil
}

func (r Record) date(key string) (time.Time, error) {
	switch v := r[key].(type) {
	case time.Time:
		return DateOf(v), nil
	case string:
		d, err := ParseDate(v)
		if err != nil {
			return time.Time{}, fmt.Errorf("field %s: invalid date (expected YYYY-MM-DD): %q", key, v)
		}
		return d, nil
	default:
		return time.Time{}, fmt.Errorf("field %s: expected date string, got %T", key, v)
	}
}
