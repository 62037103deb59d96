package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_SpansAndMetrics(t *testing.T) {
	reg := promclient.NewRegistry()
	recorder := tracetest.NewSpanRecorder()

	obs, err := New("crew-match-test", WithRegisterer(reg), WithSpanProcessor(recorder))
	require.NoError(t, err)
	t.Cleanup(func() { _ = obs.Shutdown(context.Background()) })

	ctx, span := obs.StartSpan(context.Background(), "rank-legs", attribute.Int("legs", 3))
	obs.RecordLegsScored(ctx, "ids", 3)
	obs.RecordJobProcessed(ctx, "rank-legs", "completed")
	obs.RecordJobDuration(ctx, "rank-legs", 15*time.Millisecond, "completed")
	EndSpan(span, errors.New("leg store down"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "rank-legs", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)

	families, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "match_legs_scored") {
			found = true
		}
	}
	assert.True(t, found, "legs scored counter not exported")
}

func TestObservability_NilReceiverIsSafe(t *testing.T) {
	var obs *Observability

	assert.NotPanics(t, func() {
		ctx, span := obs.StartSpan(context.Background(), "noop")
		obs.RecordLegsScored(ctx, "ids", 1)
		obs.RecordJobProcessed(ctx, "t", "completed")
		EndSpan(span, nil)
		assert.NoError(t, obs.Shutdown(ctx))
	})
}
