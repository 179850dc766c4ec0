package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/healthviz/pkg/cache"
	"github.com/matzehuels/healthviz/pkg/dataset"
	"github.com/matzehuels/healthviz/pkg/observability"
)

// Load reads the dataset at src. Remote sources go through r.Fetcher, which
// caches raw bytes under the dataset key.
func (r *Runner) Load(ctx context.Context, src string, format dataset.Format) (*dataset.Table, error) {
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, src)
	start := time.Now()

	t, err := dataset.Load(ctx, src, format, r.Fetcher)
	hooks.OnLoadComplete(ctx, src, t.Len(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("loaded dataset", "source", src, "rows", t.Len(), "columns", len(t.Header))
	return t, nil
}

// TableHash returns a content hash of t used to key transform results.
// Rows are maps, which encoding/json writes with sorted keys.
func TableHash(t *dataset.Table) string {
	data, err := json.Marshal(struct {
		Header []string
		Rows   []dataset.Row
	}{t.Header, t.Rows})
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
