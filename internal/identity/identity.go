// Package identity derives the bridge's broker credentials and TLS client
// identity from a single provisioned shared secret, so the bridge never
// connects to the broker anonymously even though full commissioning/
// pairing is out of scope for this spec (see DESIGN.md's dropped
// pkg/commissioning/pkg/pase entries).
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"golang.org/x/crypto/hkdf"
)

// SecretSize is the required length of a provisioned shared secret.
const SecretSize = 32

// ErrInvalidSecret is returned when a provisioned secret is the wrong size.
var ErrInvalidSecret = errors.New("identity: shared secret must be 32 bytes")

// Identity is the bridge's derived broker credential set: a stable client
// id, an opaque auth token suitable for an MQTT password field, and a
// self-signed TLS client certificate for mutual-TLS transports.
type Identity struct {
	ClientID  string
	AuthToken string
	Cert      tls.Certificate
}

// Derive computes an Identity from a provisioned shared secret and the
// bridge's own machine_id/node_id, so two bridges provisioned with
// different secrets (or configured with different ids) never collide.
//
// Every derived value comes from a distinct HKDF "info" label over the
// same secret/salt pair, so rotating the client id scheme or the token
// length in the future cannot cross-contaminate the other derived values.
func Derive(secret []byte, machineID, nodeID string) (Identity, error) {
	if len(secret) != SecretSize {
		return Identity{}, ErrInvalidSecret
	}

	salt := []byte(machineID + "/" + nodeID)

	clientID, err := deriveClientID(secret, salt)
	if err != nil {
		return Identity{}, err
	}

	token, err := deriveAuthToken(secret, salt)
	if err != nil {
		return Identity{}, err
	}

	cert, err := deriveCertificate(secret, salt, clientID)
	if err != nil {
		return Identity{}, err
	}

	return Identity{ClientID: clientID, AuthToken: token, Cert: cert}, nil
}

func deriveClientID(secret, salt []byte) (string, error) {
	r := hkdf.New(sha256.New, secret, salt, []byte("cryo-bridge client_id v1"))
	buf := make([]byte, 8)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("identity: deriving client id: %w", err)
	}
	return "cryo-" + hex.EncodeToString(buf), nil
}

func deriveAuthToken(secret, salt []byte) (string, error) {
	r := hkdf.New(sha256.New, secret, salt, []byte("cryo-bridge auth_token v1"))
	buf := make([]byte, 32)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("identity: deriving auth token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// deriveCertificate builds a deterministic ed25519 key pair (seeded from
// the shared secret, not crypto/rand, so the same secret always yields the
// same client identity across restarts) and a minimal self-signed
// certificate around it, suitable for tls.Config.Certificates.
func deriveCertificate(secret, salt []byte, commonName string) (tls.Certificate, error) {
	r := hkdf.New(sha256.New, secret, salt, []byte("cryo-bridge tls_seed v1"))
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(r, seed); err != nil {
		return tls.Certificate{}, fmt.Errorf("identity: deriving tls seed: %w", err)
	}
	key := ed25519.NewKeyFromSeed(seed)

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("identity: generating serial: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().AddDate(10, 0, 0),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, key.Public(), key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("identity: creating certificate: %w", err)
	}

	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}, nil
}
