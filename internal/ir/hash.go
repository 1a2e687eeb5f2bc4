package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainDocument = "rubigo/document/v1"
	DomainContext  = "rubigo/context/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content-addressed identity of a machine
// document. Two documents with the same semantic content (states,
// transitions, guard/action source, context defaults) share a
// fingerprint regardless of key order or authoring metadata.
func (d *Document) Fingerprint() (string, error) {
	canonical, err := MarshalCanonical(d.canonicalMap())
	if err != nil {
		return "", fmt.Errorf("fingerprint document %q: %w", d.Machine.ID, err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}

// ContextHash computes the content hash of a context snapshot.
// Recorded per replay step so stored traces can be diffed cheaply.
func ContextHash(c Context) (string, error) {
	canonical, err := MarshalCanonical(c)
	if err != nil {
		return "", fmt.Errorf("hash context: %w", err)
	}
	return hashWithDomain(DomainContext, canonical), nil
}
