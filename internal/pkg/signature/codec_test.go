package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader_Structured(t *testing.T) {
	t.Parallel()

	h := ParseHeader("t=1769900000,v1=abc123")

	assert.Equal(t, FormatStructured, h.Format)
	assert.True(t, h.HasTimestamp)
	assert.Equal(t, "1769900000", h.TimestampRaw)
	assert.Equal(t, []string{"abc123"}, h.Candidates)
}

func TestParseHeader_MultipleCandidates(t *testing.T) {
	t.Parallel()

	h := ParseHeader("t=1769900000,v1=first,v1=second,s=third")

	assert.Equal(t, FormatStructured, h.Format)
	assert.Equal(t, []string{"first", "second", "third"}, h.Candidates)
}

func TestParseHeader_QuotedAndSpacedValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		ts     string
		cands  []string
	}{
		{"double quotes", `t="1769900000", v1="abc"`, "1769900000", []string{"abc"}},
		{"backticks", "t=`1769900000`,v1=`abc`", "1769900000", []string{"abc"}},
		{"single quotes", "t='1769900000',v1='abc'", "1769900000", []string{"abc"}},
		{"surrounding spaces", "  t = 1769900000 , v1 = abc  ", "1769900000", []string{"abc"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := ParseHeader(tt.header)
			assert.Equal(t, FormatStructured, h.Format)
			assert.Equal(t, tt.ts, h.TimestampRaw)
			assert.Equal(t, tt.cands, h.Candidates)
		})
	}
}

func TestParseHeader_RawLegacySignature(t *testing.T) {
	t.Parallel()

	h := ParseHeader("  deadbeefcafe  ")

	assert.Equal(t, FormatRaw, h.Format)
	assert.False(t, h.HasTimestamp)
	assert.Equal(t, []string{"deadbeefcafe"}, h.Candidates)
}

func TestParseHeader_StructuredWithoutSignature(t *testing.T) {
	t.Parallel()

	// Looks structured but carries nothing usable; must not fall back to
	// raw interpretation.
	h := ParseHeader("t=1769900000")

	assert.Equal(t, FormatStructured, h.Format)
	assert.True(t, h.HasTimestamp)
	assert.Empty(t, h.Candidates)
}

func TestParseHeader_Empty(t *testing.T) {
	t.Parallel()

	h := ParseHeader("   ")

	assert.Equal(t, FormatRaw, h.Format)
	assert.Empty(t, h.Candidates)
	assert.False(t, h.HasTimestamp)
}

func TestParseHeader_UnknownKeysIgnored(t *testing.T) {
	t.Parallel()

	h := ParseHeader("t=1769900000,v0=old,v1=abc")

	assert.Equal(t, FormatStructured, h.Format)
	assert.Equal(t, []string{"abc"}, h.Candidates)
}

func TestComputeExpected_AllEncodings(t *testing.T) {
	t.Parallel()

	secret := "whsec_test_secret_1234567890"
	body := []byte(`{"id":"evt_1"}`)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	sum := mac.Sum(nil)

	expected := ComputeExpected(secret, body, "", false)
	require.Len(t, expected, 4)

	values := make(map[string]string)
	for _, e := range expected {
		assert.Equal(t, "body", e.Payload)
		values[e.Encoding] = e.Value
	}

	assert.Equal(t, hex.EncodeToString(sum), values["hex"])
	assert.Equal(t, base64.StdEncoding.EncodeToString(sum), values["base64"])
	assert.Equal(t, base64.RawStdEncoding.EncodeToString(sum), values["base64-nopad"])
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(sum), values["base64-url"])
}

func TestComputeExpected_TimestampPayloadUsesRawString(t *testing.T) {
	t.Parallel()

	secret := "whsec_test_secret_1234567890"
	body := []byte(`{"id":"evt_1"}`)
	ts := "1769900000000" // milliseconds; must enter the HMAC unmodified

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + string(body)))
	want := hex.EncodeToString(mac.Sum(nil))

	expected := ComputeExpected(secret, body, ts, true)
	require.Len(t, expected, 8)

	var found bool
	for _, e := range expected {
		if e.Payload == "timestamp.body" && e.Encoding == "hex" {
			assert.Equal(t, want, e.Value)
			found = true
		}
	}
	assert.True(t, found, "timestamp.body hex candidate missing")
}

func TestComputeExpected_NeverContainsSecret(t *testing.T) {
	t.Parallel()

	secret := "whsec_test_secret_1234567890"
	for _, e := range ComputeExpected(secret, []byte("body"), "123", true) {
		assert.NotContains(t, e.Value, secret)
	}
}
