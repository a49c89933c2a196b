package transport

import (
	"crypto/tls"
	"testing"
)

func TestNewClientTLSConfigRequiresConfig(t *testing.T) {
	if _, err := NewClientTLSConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNewClientTLSConfigWithoutCertificate(t *testing.T) {
	cfg, err := NewClientTLSConfig(&TLSConfig{ServerName: "broker.local"})
	if err != nil {
		t.Fatalf("NewClientTLSConfig: %v", err)
	}
	if cfg.ServerName != "broker.local" {
		t.Errorf("ServerName = %q, want broker.local", cfg.ServerName)
	}
	if len(cfg.Certificates) != 0 {
		t.Errorf("expected no client certificates, got %d", len(cfg.Certificates))
	}
}

func TestNewClientTLSConfigRejectsEmptyCertWhenFlagged(t *testing.T) {
	_, err := NewClientTLSConfig(&TLSConfig{HasCertificate: true})
	if err == nil {
		t.Fatal("expected error when HasCertificate is true but Certificate is empty")
	}
}

func TestNewClientTLSConfigDefaultsMinVersion(t *testing.T) {
	cfg, err := NewClientTLSConfig(&TLSConfig{})
	if err != nil {
		t.Fatalf("NewClientTLSConfig: %v", err)
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want TLS 1.2 default", cfg.MinVersion)
	}
}

func TestNewClientTLSConfigHonorsExplicitMinVersion(t *testing.T) {
	cfg, err := NewClientTLSConfig(&TLSConfig{MinVersion: tls.VersionTLS13})
	if err != nil {
		t.Fatalf("NewClientTLSConfig: %v", err)
	}
	if cfg.MinVersion != tls.VersionTLS13 {
		t.Errorf("MinVersion = %x, want TLS 1.3", cfg.MinVersion)
	}
}
