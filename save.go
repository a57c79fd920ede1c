package salad

// Save converts an in-memory value into a plain tree of maps, lists and
// scalars. Records encode themselves; maps and lists are walked.
func Save(v any, so SaveOptions) (any, error) {
	switch x := v.(type) {
	case *Record:
		return x.Save(so)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			sv, err := Save(item, so.nested())
			if err != nil {
				return nil, err
			}
			out[i] = sv
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			sv, err := Save(item, so.nested())
			if err != nil {
				return nil, err
			}
			out[k] = sv
		}
		return out, nil
	}
	return v, nil
}
