package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validYAML = `
machine_id: cryo-01
node_id: bridge-a
broker_host: mqtt.internal
broker_port: 8883
identity_secret_hex: "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
pid_slaves:
  - name: pid_heat1
    slave_id: 1
  - name: pid_heat2
    slave_id: 2
components:
  din:
    expected: true
    required: true
    stale_timeout_ms: 1000
  pid_heat1:
    expected: true
    required: true
    stale_timeout_ms: 1500
`

func TestLoadValidConfig(t *testing.T) {
	path := writeTempConfig(t, validYAML)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cryo-01", cfg.MachineID)
	assert.Equal(t, "bridge-a", cfg.NodeID)
	assert.Len(t, cfg.PidSlaves, 2)
	// Defaults not present in the YAML must survive the merge.
	assert.Equal(t, uint32(1000), cfg.Cadences.HeartbeatPeriodMS)
	assert.Equal(t, uint32(200), cfg.Cadences.PidStatePeriodMS)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRequiresIdentity(t *testing.T) {
	cfg := Default()
	cfg.NodeID = "bridge-a"
	cfg.BrokerHost = "mqtt.internal"
	cfg.PidSlaves = []PidSlaveConfig{{Name: "pid_heat1", SlaveID: 1}}

	assert.ErrorIs(t, cfg.Validate(), ErrMachineIDRequired)
}

func TestValidateRequiresIdentitySecret(t *testing.T) {
	cfg := Default()
	cfg.MachineID, cfg.NodeID, cfg.BrokerHost = "m", "n", "h"
	cfg.PidSlaves = []PidSlaveConfig{{Name: "pid_heat1", SlaveID: 1}}

	assert.ErrorIs(t, cfg.Validate(), ErrIdentitySecretRequired)

	cfg.IdentitySecretHex = "not-hex-and-wrong-size"
	assert.ErrorIs(t, cfg.Validate(), ErrIdentitySecretSize)
}

func TestValidateRequiresAtLeastOnePidSlave(t *testing.T) {
	cfg := Default()
	cfg.MachineID, cfg.NodeID, cfg.BrokerHost = "m", "n", "h"
	cfg.IdentitySecretHex = "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

	assert.ErrorIs(t, cfg.Validate(), ErrNoPidSlaves)
}

func TestValidateRejectsDuplicatePidNames(t *testing.T) {
	cfg := Default()
	cfg.MachineID, cfg.NodeID, cfg.BrokerHost = "m", "n", "h"
	cfg.IdentitySecretHex = "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	cfg.PidSlaves = []PidSlaveConfig{
		{Name: "pid_heat1", SlaveID: 1},
		{Name: "pid_heat1", SlaveID: 2},
	}

	assert.ErrorIs(t, cfg.Validate(), ErrDuplicatePidName)
}

func TestValidateRejectsRequiredWithoutExpected(t *testing.T) {
	cfg := Default()
	cfg.MachineID, cfg.NodeID, cfg.BrokerHost = "m", "n", "h"
	cfg.IdentitySecretHex = "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	cfg.PidSlaves = []PidSlaveConfig{{Name: "pid_heat1", SlaveID: 1}}
	cfg.Components["accel"] = ComponentConfig{Expected: false, Required: true}

	assert.ErrorIs(t, cfg.Validate(), ErrRequiredButNotExpected)
}

func TestComponentForFallsBackToZeroValue(t *testing.T) {
	cfg := Default()
	cc := cfg.ComponentFor("nonexistent")
	assert.False(t, cc.Expected)
	assert.False(t, cc.Required)
}

func TestFlagsApplyOverridesLogLevel(t *testing.T) {
	cfg := Default()
	f := &Flags{LogLevel: "debug"}

	got := f.Apply(cfg)
	assert.Equal(t, "debug", got.LogLevel)
}

func TestFlagsApplyLeavesConfigWhenUnset(t *testing.T) {
	cfg := Default()
	f := &Flags{}

	got := f.Apply(cfg)
	assert.Equal(t, cfg.LogLevel, got.LogLevel)
}
