// Package config implements typed configuration for the bridge daemon:
// a YAML file loaded at startup, with a handful of flag overrides for
// operational knobs. Recognized options are enumerated in §9: identity,
// broker address, the publication and fieldbus-polling cadences, the PID slave roster,
// and per-component expected/required/stale_timeout_ms.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMachineIDRequired is returned when machine_id is empty.
	ErrMachineIDRequired = errors.New("config: machine_id is required")
	// ErrNodeIDRequired is returned when node_id is empty.
	ErrNodeIDRequired = errors.New("config: node_id is required")
	// ErrBrokerHostRequired is returned when broker_host is empty.
	ErrBrokerHostRequired = errors.New("config: broker_host is required")
	// ErrNoPidSlaves is returned when the pid_slaves list is empty.
	ErrNoPidSlaves = errors.New("config: at least one pid slave is required")
	// ErrDuplicatePidName is returned when two pid_slaves entries share a name.
	ErrDuplicatePidName = errors.New("config: duplicate pid slave name")
	// ErrRequiredButNotExpected mirrors the Health Manager invariant from
	// §3: a component cannot be required unless it is also expected.
	ErrRequiredButNotExpected = errors.New("config: component is required but not expected")
	// ErrIdentitySecretRequired is returned when identity_secret_hex is empty.
	ErrIdentitySecretRequired = errors.New("config: identity_secret_hex is required")
	// ErrIdentitySecretSize is returned when identity_secret_hex does not
	// decode to exactly identity.SecretSize bytes.
	ErrIdentitySecretSize = errors.New("config: identity_secret_hex must decode to 32 bytes")
)

// ComponentConfig is the expected/required/stale_timeout_ms triple every
// health.Component is configured with.
type ComponentConfig struct {
	Expected       bool   `yaml:"expected"`
	Required       bool   `yaml:"required"`
	StaleTimeoutMS uint32 `yaml:"stale_timeout_ms"`
}

// PidSlaveConfig binds a logical PID name (e.g. "pid_heat1") to its
// fieldbus slave address.
type PidSlaveConfig struct {
	Name    string `yaml:"name"`
	SlaveID uint8  `yaml:"slave_id"`
}

// Cadences holds the periodic-publication and fieldbus-polling intervals,
// all in milliseconds, per §9.
type Cadences struct {
	HeartbeatPeriodMS   uint32 `yaml:"heartbeat_period_ms"`
	SysHealthPeriodMS   uint32 `yaml:"sys_health_period_ms"`
	HealthStatePeriodMS uint32 `yaml:"health_state_period_ms"`
	PidStatePeriodMS    uint32 `yaml:"pid_state_period_ms"`
	PidParamsPeriodMS   uint32 `yaml:"pid_params_period_ms"`
	IoStatePeriodMS     uint32 `yaml:"io_state_period_ms"`
	FieldbusStatePeriodMS  uint32 `yaml:"fieldbus_state_period_ms"`
	FieldbusParamsPeriodMS uint32 `yaml:"fieldbus_params_period_ms"`
}

// Config is the whole of the bridge's startup configuration.
type Config struct {
	MachineID  string `yaml:"machine_id"`
	NodeID     string `yaml:"node_id"`
	BrokerHost string `yaml:"broker_host"`
	BrokerPort int    `yaml:"broker_port"`

	// IdentitySecretHex is the hex-encoded 32-byte shared secret this
	// node was provisioned with, consumed by internal/identity.Derive.
	IdentitySecretHex string `yaml:"identity_secret_hex"`

	Cadences Cadences `yaml:"cadences"`

	PidSlaves []PidSlaveConfig `yaml:"pid_slaves"`

	// Components maps a health.Component name ("din", "relay", "eth",
	// "accel", or a pid slave's Name) to its expected/required/
	// stale_timeout_ms triple.
	Components map[string]ComponentConfig `yaml:"components"`

	LogLevel string `yaml:"log_level"`

	FieldbusDevice string `yaml:"fieldbus_device"`
	I2CDevice      string `yaml:"i2c_device"`

	// ProtocolLogPath, if set, enables CBOR-framed diagnostic event
	// recording (pkg/protolog) to this file path, independent of the
	// console log.
	ProtocolLogPath string `yaml:"protocol_log_path"`
}

// Default returns the baseline configuration named in §9, before a YAML
// file or flag overrides are applied.
func Default() Config {
	return Config{
		BrokerPort: 8883,
		Cadences: Cadences{
			HeartbeatPeriodMS:      1000,
			SysHealthPeriodMS:      1000,
			HealthStatePeriodMS:    1000,
			PidStatePeriodMS:       200,
			PidParamsPeriodMS:      5000,
			IoStatePeriodMS:        200,
			FieldbusStatePeriodMS:  200,
			FieldbusParamsPeriodMS: 5000,
		},
		Components: map[string]ComponentConfig{
			"din":   {Expected: true, Required: true, StaleTimeoutMS: 1000},
			"relay": {Expected: true, Required: false, StaleTimeoutMS: 1000},
			"eth":   {Expected: true, Required: false, StaleTimeoutMS: 0},
			"accel": {Expected: false, Required: false, StaleTimeoutMS: 1500},
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file at path and merges it onto Default().
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants enumerated in §9 and §3 (the
// required-implies-expected rule shared with health.Manager).
func (c Config) Validate() error {
	if c.MachineID == "" {
		return ErrMachineIDRequired
	}
	if c.NodeID == "" {
		return ErrNodeIDRequired
	}
	if c.BrokerHost == "" {
		return ErrBrokerHostRequired
	}
	if c.IdentitySecretHex == "" {
		return ErrIdentitySecretRequired
	}
	if raw, err := hex.DecodeString(c.IdentitySecretHex); err != nil || len(raw) != 32 {
		return ErrIdentitySecretSize
	}
	if len(c.PidSlaves) == 0 {
		return ErrNoPidSlaves
	}

	seen := make(map[string]bool, len(c.PidSlaves))
	for _, p := range c.PidSlaves {
		if seen[p.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicatePidName, p.Name)
		}
		seen[p.Name] = true
	}

	for name, cc := range c.Components {
		if cc.Required && !cc.Expected {
			return fmt.Errorf("%w: %q", ErrRequiredButNotExpected, name)
		}
	}

	return nil
}

// ComponentFor returns the ComponentConfig for name, falling back to
// expected=false/required=false if the operator never configured it.
func (c Config) ComponentFor(name string) ComponentConfig {
	if cc, ok := c.Components[name]; ok {
		return cc
	}
	return ComponentConfig{}
}
