package salad

// UnionLoader tries its alternatives in order and keeps the first result
// that loads. Order is significant: a null alternative listed before a
// record makes an absent value null rather than an empty record.
type UnionLoader struct {
	Alternatives []Loader
}

func NewUnionLoader(alts ...Loader) *UnionLoader { return &UnionLoader{Alternatives: alts} }

func (l *UnionLoader) Load(doc any, sc Scope) (any, error) {
	errs := make([]*ValidationError, 0, len(l.Alternatives))
	for i, alt := range l.Alternatives {
		v, err := alt.Load(doc, sc)
		if err == nil {
			return v, nil
		}
		ve := asValidation(err, sc)
		sc.Options.logger().WithField("path", sc.pointer()).Debugf("union alternative %d rejected: %s", i, ve.Code)
		errs = append(errs, ve)
	}
	return nil, sc.fail(CodeNoMatch, nil, errs...)
}

// Save encodes v with the first alternative that could have produced it.
func (l *UnionLoader) Save(v any, so SaveOptions) (any, error) {
	for _, alt := range l.Alternatives {
		if alt.accepts(v) {
			return alt.Save(v, so)
		}
	}
	return Save(v, so)
}

func (l *UnionLoader) accepts(v any) bool {
	for _, alt := range l.Alternatives {
		if alt.accepts(v) {
			return true
		}
	}
	return false
}
