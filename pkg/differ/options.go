package differ

// Option is a functional option for configuring a Differ.
type Option func(*differ)

// WithIgnoredFields sets fields to ignore during comparison.
func WithIgnoredFields(fields ...string) Option {
	return func(d *differ) {
		for _, field := range fields {
			d.ignoreFields[field] = true
		}
	}
}

// WithMaxValueLength truncates displayed values; 0 disables truncation.
func WithMaxValueLength(n int) Option {
	return func(d *differ) {
		d.maxValueLen = n
	}
}
