package netsuite

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSigner() *Signer {
	cfg := &Config{
		AccountID:      "1234567_SB1",
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		TokenID:        "tk",
		TokenSecret:    "ts",
	}
	return NewSigner(cfg)
}

func fixedSigner(nonce string, ts int64) *Signer {
	s := testSigner()
	s.nonce = func() string { return nonce }
	s.now = func() time.Time { return time.Unix(ts, 0) }
	return s
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestSigner_BaseString(t *testing.T) {
	s := fixedSigner("abc123", 1700000000)
	u := mustParse(t, "https://1234567-sb1.suitetalk.api.netsuite.com/services/rest/record/v1/purchaseOrder?limit=100&offset=200")

	oauthParams := map[string]string{
		"oauth_consumer_key":     "ck",
		"oauth_token":            "tk",
		"oauth_signature_method": "HMAC-SHA256",
		"oauth_timestamp":        "1700000000",
		"oauth_nonce":            "abc123",
		"oauth_version":          "1.0",
	}

	base := s.baseString("GET", u, oauthParams)

	parts := strings.SplitN(base, "&", 3)
	require.Len(t, parts, 3)
	assert.Equal(t, "GET", parts[0])
	assert.Equal(t,
		percentEncode("https://1234567-sb1.suitetalk.api.netsuite.com/services/rest/record/v1/purchaseOrder"),
		parts[1])

	// Parameters are sorted and the query string is signed with the oauth set.
	params, err := url.QueryUnescape(parts[2])
	require.NoError(t, err)
	assert.Equal(t,
		"limit=100&oauth_consumer_key=ck&oauth_nonce=abc123&oauth_signature_method=HMAC-SHA256&oauth_timestamp=1700000000&oauth_token=tk&oauth_version=1.0&offset=200",
		params)
}

func TestSigner_Authorization(t *testing.T) {
	s := fixedSigner("abc123", 1700000000)
	u := mustParse(t, "https://1234567-sb1.suitetalk.api.netsuite.com/services/rest/record/v1/vendor")

	header := s.Authorization("GET", u)

	assert.True(t, strings.HasPrefix(header, `OAuth realm="1234567_SB1"`))
	assert.Contains(t, header, `oauth_consumer_key="ck"`)
	assert.Contains(t, header, `oauth_token="tk"`)
	assert.Contains(t, header, `oauth_signature_method="HMAC-SHA256"`)
	assert.Contains(t, header, `oauth_timestamp="1700000000"`)
	assert.Contains(t, header, `oauth_nonce="abc123"`)
	assert.Contains(t, header, `oauth_version="1.0"`)
	assert.Contains(t, header, `oauth_signature="`)

	// Secrets never appear in the header.
	assert.NotContains(t, header, "cs")
	assert.NotContains(t, header, `"ts"`)
}

func TestSigner_Deterministic(t *testing.T) {
	u := mustParse(t, "https://1234567-sb1.suitetalk.api.netsuite.com/services/rest/record/v1/vendor?limit=10")

	first := fixedSigner("nonce-1", 1700000000).Authorization("GET", u)
	second := fixedSigner("nonce-1", 1700000000).Authorization("GET", u)
	assert.Equal(t, first, second)

	// A different nonce or timestamp must change the signature.
	differentNonce := fixedSigner("nonce-2", 1700000000).Authorization("GET", u)
	assert.NotEqual(t, first, differentNonce)
	differentTime := fixedSigner("nonce-1", 1700000060).Authorization("GET", u)
	assert.NotEqual(t, first, differentTime)
}

func TestSigner_FreshNoncePerCall(t *testing.T) {
	s := testSigner()
	u := mustParse(t, "https://1234567-sb1.suitetalk.api.netsuite.com/services/rest/record/v1/vendor")

	first := s.Authorization("GET", u)
	second := s.Authorization("GET", u)
	assert.NotEqual(t, first, second)
}

func TestPercentEncode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"abcXYZ019-._~", "abcXYZ019-._~"},
		{"a b", "a%20b"},
		{"a+b", "a%2Bb"},
		{"a/b", "a%2Fb"},
		{"a=b&c", "a%3Db%26c"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, percentEncode(tt.input))
		})
	}
}

func TestRandomNonce(t *testing.T) {
	first := randomNonce()
	second := randomNonce()

	assert.Len(t, first, 32)
	assert.NotEqual(t, first, second)
}
