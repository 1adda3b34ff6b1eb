package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// MinSecretLength is the shortest shared secret the verifier will work
// with. Anything shorter is treated as a deployment mistake, not as a
// forged request.
const MinSecretLength = 16

// DefaultToleranceSeconds is the replay window applied when none is
// configured.
const DefaultToleranceSeconds = 300

// Rejection reasons, used for logging and tests. They deliberately
// distinguish misconfiguration from forged or malformed requests.
const (
	ReasonSecretMisconfigured = "secret_misconfigured"
	ReasonEmptyHeader         = "empty_header"
	ReasonNoCandidates        = "structured_without_signature"
	ReasonBadTimestamp        = "non_numeric_timestamp"
	ReasonReplayWindow        = "timestamp_outside_tolerance"
	ReasonNoMatch             = "signature_mismatch"
)

// millisCutoff: a unix timestamp above this value (year ~2603) can only
// be milliseconds.
const millisCutoff = int64(20_000_000_000)

// Verifier authenticates provider webhook calls against a shared
// secret. It is stateless and safe for concurrent use.
type Verifier struct {
	secret    string
	tolerance int64 // seconds, 0 disables the replay check
	logger    *slog.Logger
	now       func() time.Time
}

// NewVerifier builds a verifier for one provider's webhook secret.
// toleranceSeconds bounds the accepted clock skew for signed
// timestamps; pass 0 to disable replay protection.
func NewVerifier(secret string, toleranceSeconds int, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		secret:    secret,
		tolerance: int64(toleranceSeconds),
		logger:    logger,
		now:       time.Now,
	}
}

// decision is the outcome of the pure verification pass. Logging
// happens afterwards, at the boundary.
type decision struct {
	ok             bool
	reason         string
	delta          int64
	matchedPayload string
	matchedEnc     string
	expectedHint   string
	receivedHint   string
}

// Verify reports whether rawBody was signed by a holder of the shared
// secret. It never panics; every rejection is logged with its reason
// and enough context to diagnose without exposing the secret or a full
// signature.
func (v *Verifier) Verify(rawBody []byte, signatureHeader string) bool {
	d := v.evaluate(rawBody, signatureHeader, v.now().Unix())

	if d.ok {
		v.logger.Debug("webhook signature accepted",
			"payload", d.matchedPayload,
			"encoding", d.matchedEnc,
			"body_len", len(rawBody),
		)
		return true
	}

	attrs := []any{
		"reason", d.reason,
		"body_len", len(rawBody),
		"body_sha256", bodyDigest(rawBody),
		"header_prefix", prefix(signatureHeader, 24),
	}
	switch d.reason {
	case ReasonSecretMisconfigured:
		v.logger.Error("webhook secret misconfigured", attrs...)
	case ReasonReplayWindow:
		attrs = append(attrs, "delta_seconds", d.delta, "tolerance_seconds", v.tolerance)
		v.logger.Warn("webhook signature rejected", attrs...)
	case ReasonNoMatch:
		attrs = append(attrs, "expected_prefix", d.expectedHint, "received_prefix", d.receivedHint)
		v.logger.Warn("webhook signature rejected", attrs...)
	default:
		v.logger.Warn("webhook signature rejected", attrs...)
	}
	return false
}

// evaluate runs the whole check without side effects. nowUnix is passed
// in so the replay window is testable.
func (v *Verifier) evaluate(rawBody []byte, signatureHeader string, nowUnix int64) decision {
	if len(v.secret) < MinSecretLength {
		return decision{reason: ReasonSecretMisconfigured}
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return decision{reason: ReasonEmptyHeader}
	}

	header := ParseHeader(signatureHeader)

	// A header that looks structured but carries no usable signature is
	// never downgraded to a bare raw signature.
	if header.Format == FormatStructured && len(header.Candidates) == 0 {
		return decision{reason: ReasonNoCandidates}
	}

	if header.HasTimestamp {
		if !isDigits(header.TimestampRaw) {
			return decision{reason: ReasonBadTimestamp}
		}
		if v.tolerance > 0 {
			tsSeconds, err := timestampSeconds(header.TimestampRaw)
			if err != nil {
				return decision{reason: ReasonBadTimestamp}
			}
			delta := nowUnix - tsSeconds
			if delta < 0 {
				delta = -delta
			}
			if delta > v.tolerance {
				return decision{reason: ReasonReplayWindow, delta: delta}
			}
		}
	}

	// The HMAC input always uses the unmodified timestamp string; the
	// seconds conversion above is for the tolerance check only.
	expected := ComputeExpected(v.secret, rawBody, header.TimestampRaw, header.HasTimestamp)

	var firstReceived string
	for _, candidate := range header.Candidates {
		cleaned := cleanCandidate(candidate)
		if cleaned == "" {
			continue
		}
		if firstReceived == "" {
			firstReceived = cleaned
		}
		for _, exp := range expected {
			if hmac.Equal([]byte(cleaned), []byte(exp.Value)) {
				return decision{ok: true, matchedPayload: exp.Payload, matchedEnc: exp.Encoding}
			}
		}
	}

	d := decision{reason: ReasonNoMatch, receivedHint: prefix(firstReceived, 8)}
	if len(expected) > 0 {
		d.expectedHint = prefix(expected[0].Value, 8)
	}
	return d
}

// cleanCandidate normalizes a received signature value: strips an
// accidental v1= prefix and surrounding quotes/whitespace, and
// lowercases hex digests so case differences don't defeat the
// comparison.
func cleanCandidate(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "v1=")
	s = cleanValue(s)
	if isHex(s) {
		s = strings.ToLower(s)
	}
	return s
}

// timestampSeconds converts a raw header timestamp to unix seconds for
// the tolerance check. 13+ digit values, or values past any plausible
// seconds range, are read as milliseconds.
func timestampSeconds(raw string) (int64, error) {
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if len(raw) >= 13 || value > millisCutoff {
		return value / 1000, nil
	}
	return value, nil
}

func bodyDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:6])
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
