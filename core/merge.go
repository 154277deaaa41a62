package core

// Fields is an open mapping of payload field names to JSON-serializable
// values.
type Fields map[string]any

// mergeFields returns the union of the given layers, later layers winning
// on key collisions. Inputs are never mutated; the result is a fresh map,
// so adapters can be nested and reused concurrently without interference.
func mergeFields(layers ...Fields) Fields {
	size := 0
	for _, layer := range layers {
		size += len(layer)
	}
	merged := make(Fields, size)
	for _, layer := range layers {
		for key, value := range layer {
			merged[key] = value
		}
	}
	return merged
}

// copyFields returns a shallow copy of fields, or nil for an empty input.
func copyFields(fields Fields) Fields {
	if len(fields) == 0 {
		return nil
	}
	snapshot := make(Fields, len(fields))
	for key, value := range fields {
		snapshot[key] = value
	}
	return snapshot
}
