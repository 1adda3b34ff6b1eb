package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// HeaderFormat indicates how a signature header was interpreted.
type HeaderFormat string

const (
	// FormatStructured means the header carried at least one recognized
	// key (t=, v1=, s=), Stripe-style.
	FormatStructured HeaderFormat = "structured"
	// FormatRaw means the whole header is treated as one bare signature,
	// the format older provider integrations send.
	FormatRaw HeaderFormat = "raw"
)

// Header is the parsed form of a provider signature header. It only
// lives for the duration of a single verification call.
type Header struct {
	TimestampRaw string
	HasTimestamp bool
	Candidates   []string
	Format       HeaderFormat
}

// ParseHeader splits a signature header into its timestamp and signature
// candidates. It never fails: malformed input yields an empty or partial
// structure for the caller to reject.
//
// Recognized forms:
//
//	t=1769900000,v1=abc123            structured
//	t=1769900000,v1=a,v1=b,s=c        structured, multiple candidates
//	abc123                            raw legacy signature
func ParseHeader(raw string) Header {
	h := Header{Format: FormatRaw}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return h
	}

	for _, part := range strings.Split(trimmed, ",") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = cleanValue(value)

		switch key {
		case "t":
			h.TimestampRaw = value
			h.HasTimestamp = true
			h.Format = FormatStructured
		case "v1", "s":
			if value != "" {
				h.Candidates = append(h.Candidates, value)
			}
			h.Format = FormatStructured
		}
	}

	if h.Format == FormatRaw {
		h.Candidates = []string{trimmed}
	}

	return h
}

// Expected is one acceptable signature value: an HMAC-SHA256 digest over
// a given payload, rendered in a given encoding.
type Expected struct {
	Payload  string
	Encoding string
	Value    string
}

// ComputeExpected generates every signature value this service accepts
// for the given secret and body. Historical integrations have signed
// either the raw body or "timestamp.body", and emitted the digest as
// hex, base64, unpadded base64 or unpadded URL-safe base64, so all
// combinations are produced. The secret itself is never returned.
//
// The timestamp enters the HMAC input as the exact raw string from the
// header, unit conversion never applies here.
func ComputeExpected(secret string, rawBody []byte, timestampRaw string, hasTimestamp bool) []Expected {
	payloads := []struct {
		name string
		data []byte
	}{
		{"body", rawBody},
	}
	if hasTimestamp {
		signed := make([]byte, 0, len(timestampRaw)+1+len(rawBody))
		signed = append(signed, timestampRaw...)
		signed = append(signed, '.')
		signed = append(signed, rawBody...)
		payloads = append(payloads, struct {
			name string
			data []byte
		}{"timestamp.body", signed})
	}

	expected := make([]Expected, 0, len(payloads)*4)
	for _, p := range payloads {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(p.data)
		sum := mac.Sum(nil)

		expected = append(expected,
			Expected{p.name, "hex", hex.EncodeToString(sum)},
			Expected{p.name, "base64", base64.StdEncoding.EncodeToString(sum)},
			Expected{p.name, "base64-nopad", base64.RawStdEncoding.EncodeToString(sum)},
			Expected{p.name, "base64-url", base64.RawURLEncoding.EncodeToString(sum)},
		)
	}
	return expected
}

// cleanValue trims whitespace and one layer of wrapping quotes or
// backticks from a header token value.
func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}

// isDigits reports whether s is non-empty and consists only of ASCII
// digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isHex reports whether s is non-empty and consists only of hex digits.
func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
