package helm

import (
	"fmt"
	"strings"

	"helm.sh/helm/v3/pkg/chartutil"
)

// Values represents helm chart values as a map.
type Values map[string]any

// ReadValuesFile reads a Helm values file.
func ReadValuesFile(path string) (Values, error) {
	v, err := chartutil.ReadValuesFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read values file %s: %w", path, err)
	}
	return Values(v), nil
}

// Merge deep-merges value maps with later maps taking precedence.
// Nested maps are merged key by key; other values are replaced.
func Merge(valueMaps ...Values) Values {
	result := make(Values)
	for _, m := range valueMaps {
		mergeInto(result, m)
	}
	return result
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := asMap(v)
		dstMap, dstIsMap := asMap(dst[k])
		if srcIsMap && dstIsMap {
			merged := make(map[string]any, len(dstMap))
			mergeInto(merged, dstMap)
			mergeInto(merged, srcMap)
			dst[k] = merged
			continue
		}
		if srcIsMap {
			cp := make(map[string]any, len(srcMap))
			mergeInto(cp, srcMap)
			dst[k] = cp
			continue
		}
		dst[k] = v
	}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Values:
		return m, true
	case chartutil.Values:
		return m, true
	default:
		return nil, false
	}
}

// Set assigns value at a dotted path such as "auth.postgresPassword",
// creating intermediate maps.
func (v Values) Set(path string, value any) {
	parts := strings.Split(path, ".")
	cur := map[string]any(v)
	for _, p := range parts[:len(parts)-1] {
		next, ok := asMap(cur[p])
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

// Get returns the value at a dotted path.
func (v Values) Get(path string) (any, bool) {
	parts := strings.Split(path, ".")
	cur := map[string]any(v)
	for i, p := range parts {
		val, ok := cur[p]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return val, true
		}
		if cur, ok = asMap(val); !ok {
			return nil, false
		}
	}
	return nil, false
}
