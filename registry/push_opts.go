package registry

// PushOption configures a push operation.
type PushOption func(*pushOptions)

type pushOptions struct {
	tags        []string
	annotations map[string]string
}

// WithTags applies additional tags to the pushed manifest.
func WithTags(tags ...string) PushOption {
	return func(o *pushOptions) {
		o.tags = append(o.tags, tags...)
	}
}

// WithAnnotations adds manifest annotations. Keys here override the
// defaults, including the creation timestamp.
func WithAnnotations(annotations map[string]string) PushOption {
	return func(o *pushOptions) {
		if o.annotations == nil {
			o.annotations = make(map[string]string, len(annotations))
		}
		for k, v := range annotations {
			o.annotations[k] = v
		}
	}
}
