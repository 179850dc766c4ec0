package cache

// ScopedKeyer prefixes every key of an inner Keyer, isolating one tenant
// or deployment from another when they share a Redis instance.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (the default keyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) DatasetKey(source string) string {
	return k.prefix + k.inner.DatasetKey(source)
}

func (k *ScopedKeyer) ChartKey(datasetHash string, opts ChartKeyOpts) string {
	return k.prefix + k.inner.ChartKey(datasetHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(chartHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(chartHash, opts)
}
