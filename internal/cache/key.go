// file: internal/cache/key.go
// version: 1.0.0
// guid: b2c3d4e5-f6a7-8b9c-0d1e-2f3a4b5c6d7e

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Key derives a deterministic cache key from the stage (service), provider
// (model) and request payload. The payload is round-tripped through JSON so
// object keys serialize sorted: two payloads that differ only in map key
// order produce the same key, while array element order stays significant.
func Key(service, model string, payload any) string {
	raw, err := json.Marshal(payload)
	if err != nil {
		// Unmarshalable payloads still need a stable key.
		raw = []byte(fmt.Sprintf("%+v", payload))
	}

	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		normalized = string(raw)
	}

	envelope := struct {
		Service string `json:"service"`
		Model   string `json:"model"`
		Payload any    `json:"payload"`
	}{Service: service, Model: model, Payload: normalized}

	canonical, err := json.Marshal(envelope)
	if err != nil {
		canonical = []byte(service + "\x00" + model)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
