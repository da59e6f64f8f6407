package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stack-service/backoffice/pkg/metrics"
)

func TestInstrumentedBackend_PassesThrough(t *testing.T) {
	backend := Instrument(NewMemoryBackend(WithClock(func() time.Time { return fixedNow })), "memory")
	ctx := context.Background()

	_, err := backend.Create(ctx, "instrumented", Document{FieldID: "a", "name": "Ada"}, nil)
	require.NoError(t, err)

	err = backend.RunInTransaction(ctx, func(ctx context.Context) error {
		return backend.Update(ctx, "instrumented", "a", Fields{"name": "Grace"})
	})
	require.NoError(t, err)

	doc, err := backend.Get(ctx, "instrumented", "a")
	require.NoError(t, err)
	assert.Equal(t, "Grace", doc["name"])

	_, err = backend.Get(ctx, "instrumented", "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreErrorsTotal.WithLabelValues("get", "instrumented")))
}
