package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hepdata/collider-ingest/internal/kvflag"
)

func TestDefaultIsValidOnceDSNSet(t *testing.T) {
	cfg := Default()
	cfg.DatabaseDSN = "postgres://localhost/test"
	require.NoError(t, cfg.Validate())
}

func TestValidateRequiresDSN(t *testing.T) {
	cfg := Default()
	require.Error(t, cfg.Validate())
}

func TestValidateRequiresDeadLetterTopicWhenEnabled(t *testing.T) {
	cfg := Default()
	cfg.DatabaseDSN = "postgres://localhost/test"
	cfg.DeadLetterEnabled = true
	require.Error(t, cfg.Validate())

	cfg.DeadLetterTopic = "collider-dlq"
	require.NoError(t, cfg.Validate())
}

func TestApplyOverrideSeedBrokers(t *testing.T) {
	cfg := Default()
	cfg.DatabaseDSN = "postgres://localhost/test"
	require.NoError(t, cfg.applyOverride(kvflag.KV{K: "seed_brokers", V: "host1:9092,host2:9092"}))
	require.Equal(t, []string{"host1:9092", "host2:9092"}, cfg.SeedBrokers)
}

func TestApplyOverrideRejectsUnknownKey(t *testing.T) {
	cfg := Default()
	require.Error(t, cfg.applyOverride(kvflag.KV{K: "nonsense", V: "1"}))
}

func TestLoadRejectsMalformedOverridePair(t *testing.T) {
	_, err := Load("", true, []string{"no-equals-sign"})
	require.Error(t, err)
}

func TestLoadAppliesOverridesOverDefaults(t *testing.T) {
	cfg, err := Load("", true, []string{
		"database_dsn=postgres://localhost/test",
		"batch_size=250",
		"energy_threshold_gev=75.5",
	})
	require.NoError(t, err)
	require.Equal(t, 250, cfg.BatchSize)
	require.Equal(t, 75.5, cfg.EnergyThreshold)
}

func TestPipelineConfigProjection(t *testing.T) {
	cfg := Default()
	pc := cfg.PipelineConfig()
	require.Equal(t, cfg.ProducerCount, pc.ProducerCount)
	require.Equal(t, cfg.BatchSize, pc.BatchSize)
}
