package identity

import (
	"bytes"
	"crypto/x509"
	"testing"
)

func testSecret(fill byte) []byte {
	s := make([]byte, SecretSize)
	for i := range s {
		s[i] = fill
	}
	return s
}

func TestDeriveIsDeterministic(t *testing.T) {
	secret := testSecret(0x42)

	a, err := Derive(secret, "cryo-01", "bridge-a")
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	b, err := Derive(secret, "cryo-01", "bridge-a")
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}

	if a.ClientID != b.ClientID {
		t.Errorf("ClientID not deterministic: %q vs %q", a.ClientID, b.ClientID)
	}
	if a.AuthToken != b.AuthToken {
		t.Errorf("AuthToken not deterministic: %q vs %q", a.AuthToken, b.AuthToken)
	}
	if !bytes.Equal(a.Cert.Certificate[0], b.Cert.Certificate[0]) {
		t.Error("Cert not deterministic across Derive calls")
	}
}

func TestDeriveDiffersByNodeID(t *testing.T) {
	secret := testSecret(0x42)

	a, _ := Derive(secret, "cryo-01", "bridge-a")
	b, _ := Derive(secret, "cryo-01", "bridge-b")

	if a.ClientID == b.ClientID {
		t.Error("two different node_ids produced the same ClientID")
	}
	if a.AuthToken == b.AuthToken {
		t.Error("two different node_ids produced the same AuthToken")
	}
}

func TestDeriveDiffersBySecret(t *testing.T) {
	a, _ := Derive(testSecret(0x01), "cryo-01", "bridge-a")
	b, _ := Derive(testSecret(0x02), "cryo-01", "bridge-a")

	if a.AuthToken == b.AuthToken {
		t.Error("two different secrets produced the same AuthToken")
	}
}

func TestDeriveRejectsWrongSecretSize(t *testing.T) {
	_, err := Derive([]byte("too short"), "cryo-01", "bridge-a")
	if err != ErrInvalidSecret {
		t.Fatalf("err = %v, want ErrInvalidSecret", err)
	}
}

func TestDerivedCertificateParsesAndMatchesClientID(t *testing.T) {
	id, err := Derive(testSecret(0x7a), "cryo-01", "bridge-a")
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if len(id.Cert.Certificate) == 0 {
		t.Fatal("Cert.Certificate is empty")
	}
	if id.Cert.PrivateKey == nil {
		t.Fatal("Cert.PrivateKey is nil")
	}

	leaf, err := x509.ParseCertificate(id.Cert.Certificate[0])
	if err != nil {
		t.Fatalf("ParseCertificate: %v", err)
	}
	if leaf.Subject.CommonName != id.ClientID {
		t.Errorf("CommonName = %q, want %q", leaf.Subject.CommonName, id.ClientID)
	}
}
