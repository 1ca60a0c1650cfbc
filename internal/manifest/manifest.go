// Package manifest produces an integrity manifest of generated output
// files — a SHA-256 digest and size per file, optionally signed with an
// RS256 JWS — the way a fronthaul test lab archives a generated vector
// alongside proof of its provenance.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"example.com/fhgen/internal/common"
	"example.com/fhgen/internal/crypto"
)

// ShaAlgo names the digest algorithm recorded in every Manifest.
const ShaAlgo = "sha256"

// Item is one manifested file.
type Item struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Sha256 string `json:"sha256"`
}

// Manifest lists every output file produced by one generation run,
// optionally signed.
type Manifest struct {
	CreatedAt time.Time   `json:"created_at"`
	ShaAlgo   string      `json:"sha_algo"`
	Items     []Item      `json:"items"`
	Signature *crypto.JWS `json:"signature,omitempty"`
}

// Build hashes each of paths and records its size, in the order given.
func Build(paths []string, createdAt time.Time) (Manifest, error) {
	items := make([]Item, 0, len(paths))
	for _, p := range paths {
		sum, size, err := common.Sha256OfFile(p)
		if err != nil {
			return Manifest{}, fmt.Errorf("manifest: hash %s: %w", p, err)
		}
		items = append(items, Item{Path: p, Size: size, Sha256: sum})
	}
	return Manifest{CreatedAt: createdAt, ShaAlgo: ShaAlgo, Items: items}, nil
}

// Sign computes an RS256 JWS over the manifest's canonical JSON encoding
// (with any prior signature stripped) and attaches it; the JWS carries
// that encoding inline as its payload.
func (m *Manifest) Sign(privateKeyPEM []byte) error {
	m.Signature = nil
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("manifest: marshal for signing: %w", err)
	}
	jws, err := crypto.SignDetachedJWS(payload, privateKeyPEM)
	if err != nil {
		return fmt.Errorf("manifest: sign: %w", err)
	}
	m.Signature = &jws
	return nil
}

// Save writes the manifest as indented JSON to path.
func (m Manifest) Save(path string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: marshal: %w", err)
	}
	return os.WriteFile(path, b, 0644)
}

// PrimaryHash returns the SHA-256 digest of the manifest's first item —
// the one the CLI's --manifest flag encodes into the acceptance report's
// QR code — or the empty string if the manifest has no items.
func (m Manifest) PrimaryHash() string {
	if len(m.Items) == 0 {
		return ""
	}
	return m.Items[0].Sha256
}

// Load reads back a manifest previously written by Save.
func Load(path string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("manifest: unmarshal %s: %w", path, err)
	}
	return m, nil
}
