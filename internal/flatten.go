package internal

import "strconv"

// Flatten collapses a decoded JSON object into a single-level map whose keys
// are dot-joined paths, so rule expressions and field lookups can address
// nested payload values by name. `{"event":{"environment":"prod"}}` becomes
// `{"event.environment":"prod"}`. Arrays are kept whole under their path and
// additionally exposed per element as `path[i]`.
func Flatten(object map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range object {
		flattenValue(out, key, value)
	}
	return out
}

func flattenValue(out map[string]any, path string, value any) {
	switch typed := value.(type) {
	case map[string]any:
		for key, child := range typed {
			flattenValue(out, path+"."+key, child)
		}
	case []any:
		out[path] = typed
		for i, child := range typed {
			flattenValue(out, path+"["+strconv.Itoa(i)+"]", child)
		}
	default:
		out[path] = value
	}
}
