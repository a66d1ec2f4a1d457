package payload

// Flatten collapses a Source into a plain map, one entry per distinct name.
// When a name carries several values the last one wins, except for names
// registered with WithMultiValue, which keep every value in order as []any.
// Text values become strings; file values become *multipart.FileHeader.
func Flatten(src Source, opts ...Option) map[string]any {
	return flatten(src, newConfig(opts))
}

func flatten(src Source, cfg config) map[string]any {
	out := make(map[string]any)
	if src == nil {
		return out
	}
	for _, name := range src.Names() {
		values := src.Values(name)
		if len(values) == 0 {
			continue
		}
		if cfg.isMulti(name) {
			all := make([]any, 0, len(values))
			for _, value := range values {
				all = append(all, cfg.value(value))
			}
			out[name] = all
			continue
		}
		out[name] = cfg.value(values[len(values)-1])
	}
	return out
}

func (cfg config) value(v Value) any {
	if v.IsFile() {
		return v.File
	}
	return cfg.text(v.Text)
}
