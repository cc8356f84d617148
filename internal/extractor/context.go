package extractor

import "strings"

// ResolveContext gathers best-effort metadata for a matched key from its
// containing object. For each metadata key m it checks the container's own m
// property plus the naming-convention variants "<key>_<m>" and "<key><M>";
// later variants win. The container's own name/title also ride along as
// parentName/parentTitle. Missing metadata yields an empty map, never nil.
func ResolveContext(container map[string]interface{}, key string, metadataKeys []string) map[string]string {
	context := make(map[string]string)
	if container == nil {
		return context
	}

	for _, m := range metadataKeys {
		if v, ok := stringValue(container[m]); ok {
			context[m] = v
		}
		if v, ok := stringValue(container[key+"_"+m]); ok {
			context[m] = v
		}
		if v, ok := stringValue(container[key+capitalize(m)]); ok {
			context[m] = v
		}
	}

	if v, ok := stringValue(container["name"]); ok {
		context["parentName"] = v
	}
	if v, ok := stringValue(container["title"]); ok {
		context["parentTitle"] = v
	}

	return context
}

func stringValue(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
