// SPDX-License-Identifier: AGPL-3.0-only
package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracerDisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), Config{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracerWithEndpoint(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), Config{
		OTLPEndpoint: "http://127.0.0.1:4318",
		Environment:  "test",
	})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
