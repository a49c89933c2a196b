package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
)

// DefaultPort is the default broker TLS port used when no port is configured.
const DefaultPort = 8883

// TLSConfig holds configuration for the bridge's TLS connection to the bus broker.
type TLSConfig struct {
	// Certificate is the client certificate presented to the broker, if the
	// broker requires mutual TLS. Zero value means no client certificate.
	Certificate tls.Certificate

	// HasCertificate indicates whether Certificate is populated.
	HasCertificate bool

	// RootCAs is the pool of trusted CA certificates for verifying the broker.
	// Nil means use the system root pool.
	RootCAs *x509.CertPool

	// ServerName is the expected broker name, used for certificate verification.
	ServerName string

	// MinVersion is the minimum TLS version to negotiate. Zero means
	// tls.VersionTLS12, the package default; the bridge's own broker link
	// (internal/halref/mqttbus) raises this to tls.VersionTLS13.
	MinVersion uint16

	// InsecureSkipVerify disables certificate verification.
	// Only for local development against a self-signed broker - never in production.
	InsecureSkipVerify bool
}

// NewClientTLSConfig builds a *tls.Config for connecting to the bus broker.
func NewClientTLSConfig(cfg *TLSConfig) (*tls.Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("TLSConfig is required")
	}

	minVersion := cfg.MinVersion
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}

	tlsConfig := &tls.Config{
		MinVersion:         minVersion,
		RootCAs:            cfg.RootCAs,
		ServerName:         cfg.ServerName,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.HasCertificate {
		if len(cfg.Certificate.Certificate) == 0 {
			return nil, fmt.Errorf("HasCertificate is set but Certificate is empty")
		}
		tlsConfig.Certificates = []tls.Certificate{cfg.Certificate}
	}

	return tlsConfig, nil
}

// VerifyTLS12Plus checks that a TLS connection negotiated at least TLS 1.2.
func VerifyTLS12Plus(state tls.ConnectionState) error {
	if state.Version < tls.VersionTLS12 {
		return fmt.Errorf("TLS version %x is below the minimum TLS 1.2 (0x0303)", state.Version)
	}
	return nil
}
