package types

import (
	"encoding/json"
	"strings"
)

type Method string

const (
	MethodQRScan     Method = "qr_scan"
	MethodManualCode Method = "manual_code"
)

func (m Method) Valid() bool {
	return m == MethodQRScan || m == MethodManualCode
}

// PresentedCredential is the single shape both entry points reduce to
// before validation: a scanned hash or a manually entered 6-digit code,
// tagged by method. A failed QR parse never falls back to manual-code
// resolution; the two paths stay separate all the way through.
type PresentedCredential struct {
	Method Method
	Hash   string // set when Method == MethodQRScan
	Code   string // set when Method == MethodManualCode
}

// ParseScanPayload turns an untrusted scanner string into a qr_scan
// PresentedCredential. A structured JSON payload contributes its embedded
// hash; anything else is treated as a raw hash verbatim.
func ParseScanPayload(data string) PresentedCredential {
	data = strings.TrimSpace(data)

	var p QRPayload
	if err := json.Unmarshal([]byte(data), &p); err == nil && p.Hash != "" {
		return PresentedCredential{Method: MethodQRScan, Hash: p.Hash}
	}

	return PresentedCredential{Method: MethodQRScan, Hash: data}
}

// PresentedManualCode wraps a guard-entered code as a manual_code
// PresentedCredential.
func PresentedManualCode(code string) PresentedCredential {
	return PresentedCredential{Method: MethodManualCode, Code: strings.TrimSpace(code)}
}
