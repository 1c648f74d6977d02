package core

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// A document is the generic nested form of a container: maps with string
// keys, slices, float64 numbers, strings, booleans and nil. Non-finite
// floats are written as the strings "nan", "inf" and "-inf".

// FloatToDocument encodes x, replacing non-finite values by their tokens.
func FloatToDocument(x float64) interface{} {
	switch {
	case math.IsNaN(x):
		return "nan"
	case math.IsInf(x, 1):
		return "inf"
	case math.IsInf(x, -1):
		return "-inf"
	default:
		return x
	}
}

func numberOf(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func toFloat(v interface{}, path string) (float64, error) {
	if x, ok := numberOf(v); ok {
		return x, nil
	}
	if s, ok := v.(string); ok {
		switch s {
		case "nan":
			return math.NaN(), nil
		case "inf":
			return math.Inf(1), nil
		case "-inf":
			return math.Inf(-1), nil
		}
	}
	return 0, docErr(path, "expected a number, got %T", v)
}

func toString(v interface{}, path string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", docErr(path, "expected a string, got %T", v)
	}
	return s, nil
}

func toBool(v interface{}, path string) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, docErr(path, "expected a boolean, got %T", v)
	}
	return b, nil
}

func toArray(v interface{}, path string) ([]interface{}, error) {
	a, ok := v.([]interface{})
	if !ok {
		return nil, docErr(path, "expected an array, got %T", v)
	}
	return a, nil
}

func toMap(v interface{}, path string) (map[string]interface{}, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, docErr(path, "expected an object, got %T", v)
	}
	return m, nil
}

// toObject reads a map whose key set must be exactly keys.
func toObject(v interface{}, path string, keys ...string) (map[string]interface{}, error) {
	m, err := toMap(v, path)
	if err != nil {
		return nil, err
	}
	if len(m) == len(keys) {
		matched := true
		for _, key := range keys {
			if _, ok := m[key]; !ok {
				matched = false
				break
			}
		}
		if matched {
			return m, nil
		}
	}
	found := make([]string, 0, len(m))
	for key := range m {
		found = append(found, key)
	}
	sort.Strings(found)
	return nil, docErr(path, "expected keys [%s], got [%s]",
		strings.Join(keys, " "), strings.Join(found, " "))
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

// ToDocument wraps the fragment of c with its type tag.
func ToDocument(c Container) map[string]interface{} {
	return map[string]interface{}{
		"type": c.Name(),
		"data": c.Fragment(),
	}
}

// FromDocument rebuilds a container from a {"type", "data"} document. The
// result has no quantity or selection bound.
func FromDocument(doc interface{}) (Container, error) {
	return decodeDocument(doc, "")
}

// FromFragment rebuilds a container of the named type from its fragment.
func FromFragment(name string, fragment interface{}) (Container, error) {
	return decodeFragment(name, fragment, "")
}

func decodeDocument(doc interface{}, path string) (Container, error) {
	obj, err := toObject(doc, path, "type", "data")
	if err != nil {
		return nil, err
	}
	name, err := toString(obj["type"], joinPath(path, "type"))
	if err != nil {
		return nil, err
	}
	return decodeFragment(name, obj["data"], joinPath(path, "data"))
}

func decodeFragment(name string, fragment interface{}, path string) (Container, error) {
	decoder, ok := registry[name]
	if !ok {
		return nil, docErr(path, "unknown container type %q", name)
	}
	return decoder(fragment, path)
}

// readType reads the container type named by obj[key], which must be
// registered even when no fragment of that type follows.
func readType(obj map[string]interface{}, key, path string) (string, error) {
	typePath := joinPath(path, key)
	name, err := toString(obj[key], typePath)
	if err != nil {
		return "", err
	}
	if !Registered(name) {
		return "", docErr(typePath, "unknown container type %q", name)
	}
	return name, nil
}

// decodeTyped decodes obj[key] using the type named by obj[key+":type"].
func decodeTyped(obj map[string]interface{}, key, path string) (Container, error) {
	name, err := toString(obj[key+":type"], joinPath(path, key+":type"))
	if err != nil {
		return nil, err
	}
	return decodeFragment(name, obj[key], joinPath(path, key))
}

func readEntries(obj map[string]interface{}, path string) (float64, error) {
	return toFloat(obj["entries"], joinPath(path, "entries"))
}
