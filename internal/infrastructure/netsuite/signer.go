package netsuite

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Signer produces token-based auth Authorization headers for NetSuite REST
// requests. The signature covers the HTTP method, the normalized URL and the
// full sorted parameter set, keyed by consumer secret and token secret.
type Signer struct {
	consumerKey    string
	consumerSecret string
	tokenID        string
	tokenSecret    string
	realm          string

	// Overridable for deterministic tests.
	nonce func() string
	now   func() time.Time
}

// NewSigner creates a signer from the account configuration.
func NewSigner(cfg *Config) *Signer {
	return &Signer{
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		tokenID:        cfg.TokenID,
		tokenSecret:    cfg.TokenSecret,
		realm:          strings.ToUpper(cfg.AccountID),
		nonce:          randomNonce,
		now:            time.Now,
	}
}

// Authorization builds the OAuth header value for one request attempt. Each
// call draws a fresh nonce and timestamp, so retries must call it again
// rather than resend the previous header.
func (s *Signer) Authorization(method string, requestURL *url.URL) string {
	nonce := s.nonce()
	timestamp := strconv.FormatInt(s.now().Unix(), 10)

	oauthParams := map[string]string{
		"oauth_consumer_key":     s.consumerKey,
		"oauth_token":            s.tokenID,
		"oauth_signature_method": "HMAC-SHA256",
		"oauth_timestamp":        timestamp,
		"oauth_nonce":            nonce,
		"oauth_version":          "1.0",
	}

	signature := s.sign(method, requestURL, oauthParams)

	// Header parameters in canonical order, realm first.
	var b strings.Builder
	b.WriteString(`OAuth realm="`)
	b.WriteString(percentEncode(s.realm))
	b.WriteString(`"`)

	headerKeys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		headerKeys = append(headerKeys, k)
	}
	sort.Strings(headerKeys)
	for _, k := range headerKeys {
		b.WriteString(`, `)
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(percentEncode(oauthParams[k]))
		b.WriteString(`"`)
	}
	b.WriteString(`, oauth_signature="`)
	b.WriteString(percentEncode(signature))
	b.WriteString(`"`)

	return b.String()
}

// sign computes the base64 HMAC-SHA256 signature over the canonical base
// string.
func (s *Signer) sign(method string, requestURL *url.URL, oauthParams map[string]string) string {
	baseString := s.baseString(method, requestURL, oauthParams)
	key := percentEncode(s.consumerSecret) + "&" + percentEncode(s.tokenSecret)

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(baseString))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// baseString builds METHOD&encoded(baseURL)&encoded(sorted params). Query
// string parameters and oauth parameters are signed together.
func (s *Signer) baseString(method string, requestURL *url.URL, oauthParams map[string]string) string {
	// Normalized URL: scheme://host/path without query or fragment.
	baseURL := strings.ToLower(requestURL.Scheme) + "://" + strings.ToLower(requestURL.Host) + requestURL.EscapedPath()

	type pair struct{ key, value string }
	var pairs []pair
	for k, values := range requestURL.Query() {
		for _, v := range values {
			pairs = append(pairs, pair{percentEncode(k), percentEncode(v)})
		}
	}
	for k, v := range oauthParams {
		pairs = append(pairs, pair{percentEncode(k), percentEncode(v)})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key != pairs[j].key {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].value < pairs[j].value
	})

	var params strings.Builder
	for i, p := range pairs {
		if i > 0 {
			params.WriteByte('&')
		}
		params.WriteString(p.key)
		params.WriteByte('=')
		params.WriteString(p.value)
	}

	return strings.ToUpper(method) + "&" + percentEncode(baseURL) + "&" + percentEncode(params.String())
}

// percentEncode implements RFC 5849 section 3.6 encoding: unreserved
// characters pass through, everything else becomes uppercase %XX.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
			c == '-' || c == '.' || c == '_' || c == '~' {
			b.WriteByte(c)
		} else {
			b.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}
	return b.String()
}

// randomNonce returns 16 random bytes hex encoded.
func randomNonce() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic(fmt.Sprintf("netsuite: nonce generation failed: %v", err))
	}
	return hex.EncodeToString(buf)
}
