package salad

// ArrayLoader accepts a list whose elements all load with Items. A nested
// list that loads as an array of the same shape is flattened into its
// parent.
type ArrayLoader struct {
	Items Loader
}

func NewArrayLoader(items Loader) *ArrayLoader { return &ArrayLoader{Items: items} }

func (l *ArrayLoader) Load(doc any, sc Scope) (any, error) {
	list, ok := doc.([]any)
	if !ok {
		return nil, sc.fail(CodeInvalidType, map[string]string{"expected": "array", "got": typeName(doc)})
	}
	out := make([]any, 0, len(list))
	var errs []*ValidationError
	for i, item := range list {
		isc := sc.Index(i)
		if nested, ok := item.([]any); ok {
			flat, err := l.Load(nested, isc)
			if err == nil {
				out = append(out, flat.([]any)...)
				continue
			}
			v, ierr := l.Items.Load(item, isc)
			if ierr == nil {
				out = append(out, v)
				continue
			}
			errs = append(errs, isc.fail(CodeNoMatch, nil, asValidation(err, isc), asValidation(ierr, isc)))
			continue
		}
		v, err := l.Items.Load(item, isc)
		if err != nil {
			errs = append(errs, asValidation(err, isc))
			continue
		}
		out = append(out, v)
	}
	if len(errs) > 0 {
		return nil, sc.fail(CodeInvalidItems, nil, errs...)
	}
	return out, nil
}

func (l *ArrayLoader) Save(v any, so SaveOptions) (any, error) {
	list, ok := v.([]any)
	if !ok {
		return Save(v, so)
	}
	out := make([]any, len(list))
	for i, item := range list {
		var err error
		if l.Items.accepts(item) {
			out[i], err = l.Items.Save(item, so.nested())
		} else {
			out[i], err = Save(item, so.nested())
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (l *ArrayLoader) accepts(v any) bool {
	_, ok := v.([]any)
	return ok
}
