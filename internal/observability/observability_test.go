package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Logger(t *testing.T) {
	var buf bytes.Buffer
	provider := NewProvider(Config{
		ServiceName: "tri-zvuk",
		Environment: "test",
		LogLevel:    "info",
		LogOutput:   &buf,
	})

	log := provider.Logger("obstest")
	log.Info(context.Background(), "hello", nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tri-zvuk.obstest", entry["service"])
	assert.Equal(t, "obstest", entry["component"])
}

func TestProvider_CachesPerComponent(t *testing.T) {
	provider := NewProvider(Config{
		ServiceName: "tri-zvuk",
		Environment: "test",
		LogLevel:    "info",
	})

	assert.Equal(t, provider.Logger("obscache"), provider.Logger("obscache"))
	assert.Same(t, provider.Metrics("obscache"), provider.Metrics("obscache"))
}
