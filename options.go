package streambloom

// Option is a functional option for configuring a new Filter.
type Option func(*filterConfig)

type filterConfig struct {
	scheme HashScheme
}

func defaultFilterConfig() *filterConfig {
	return &filterConfig{
		scheme: HashXXH3,
	}
}

// WithHashScheme selects the base hash function. Default is HashXXH3.
func WithHashScheme(s HashScheme) Option {
	return func(c *filterConfig) {
		c.scheme = s
	}
}
