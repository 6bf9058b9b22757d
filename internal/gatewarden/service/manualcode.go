package service

import (
	"fmt"
	"hash/fnv"
)

// DeriveManualCode maps a subject id to a stable 6-digit code in
// [100000, 999999]. The code is deterministic so guards can validate it
// without fetching a fresh one per visit.
//
// This is a low-entropy convenience channel for when a phone screen is
// cracked or a QR scan fails. It is materially weaker than the QR secret
// hash and is not a security control on its own.
func DeriveManualCode(subjectID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(subjectID))
	return fmt.Sprintf("%06d", h.Sum32()%900000+100000)
}
