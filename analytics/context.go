package analytics

// Context values come back from JSONB as interface{}; numbers decode as
// float64. These helpers normalize the lookups the aggregator does.

func ctxString(context map[string]interface{}, key string) string {
	if context == nil {
		return ""
	}
	if s, ok := context[key].(string); ok {
		return s
	}
	return ""
}

func ctxInt(context map[string]interface{}, key string) (int, bool) {
	if context == nil {
		return 0, false
	}
	switch v := context[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func ctxBool(context map[string]interface{}, key string) (bool, bool) {
	if context == nil {
		return false, false
	}
	b, ok := context[key].(bool)
	return b, ok
}
