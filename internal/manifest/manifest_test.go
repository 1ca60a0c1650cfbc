package manifest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "packets.txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestBuildAndSaveRoundTrip(t *testing.T) {
	path := writeTempFile(t, "deadbeef\n")
	m, err := Build([]string{path}, time.Unix(0, 0).UTC())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Items) != 1 || m.Items[0].Path != path {
		t.Fatalf("unexpected items: %+v", m.Items)
	}
	if m.Items[0].Size != int64(len("deadbeef\n")) {
		t.Fatalf("size = %d, want %d", m.Items[0].Size, len("deadbeef\n"))
	}
	if m.ShaAlgo != ShaAlgo {
		t.Fatalf("ShaAlgo = %q", m.ShaAlgo)
	}

	out := filepath.Join(t.TempDir(), "manifest.json")
	if err := m.Save(out); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Items[0].Sha256 != m.Items[0].Sha256 {
		t.Fatalf("loaded sha256 = %q, want %q", loaded.Items[0].Sha256, m.Items[0].Sha256)
	}
}

func TestBuildMissingFile(t *testing.T) {
	if _, err := Build([]string{filepath.Join(t.TempDir(), "missing.txt")}, time.Now()); err == nil {
		t.Fatalf("Build did not error on a missing file")
	}
}

func TestSignAttachesDetachedJWS(t *testing.T) {
	path := writeTempFile(t, "cafe\n")
	m, err := Build([]string{path}, time.Unix(0, 0).UTC())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	if err := m.Sign(keyPEM); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if m.Signature == nil || m.Signature.Signature == "" {
		t.Fatalf("expected a non-empty detached signature, got %+v", m.Signature)
	}
}

func TestPrimaryHashEmptyManifest(t *testing.T) {
	var m Manifest
	if got := m.PrimaryHash(); got != "" {
		t.Fatalf("PrimaryHash() = %q, want empty", got)
	}
}
