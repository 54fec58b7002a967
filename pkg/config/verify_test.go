package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAgainstEmbeddedSchema(t *testing.T) {
	newConfig := func() *Config {
		cfg := &Config{}
		setDefaults(cfg)
		return cfg
	}

	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, VerifyAgainstEmbeddedSchema(newConfig()))
	})

	t.Run("enum violations", func(t *testing.T) {
		cfg := newConfig()
		cfg.Headlines.Source = "twitter"
		cfg.Enrichment.Provider = "magic"
		err := VerifyAgainstEmbeddedSchema(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "headlines.source")
		assert.Contains(t, err.Error(), "enrichment.provider")
	})

	t.Run("minimum violation", func(t *testing.T) {
		cfg := newConfig()
		cfg.Enrichment.BatchSize = -1
		err := VerifyAgainstEmbeddedSchema(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "enrichment.batch_size")
	})
}

func TestGenerateSchema(t *testing.T) {
	schema, err := GenerateSchema()
	require.NoError(t, err)
	require.NotNil(t, schema)
	assert.NotEmpty(t, schema.Definitions)
}
