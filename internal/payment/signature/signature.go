// Package signature reproduces the gateway's MD5 request and notification hashes.
// Outbound hashes cover merchant, order, amount and currency; inbound hashes
// additionally cover the status code. The two must not be interchanged.
package signature

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/railzwaylabs/wastebill/internal/payment/domain"
	"github.com/shopspring/decimal"
)

// FormatAmount renders amount with exactly two decimals and no grouping.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// OutboundHash signs a checkout request.
func OutboundHash(merchantID, orderID string, amount decimal.Decimal, currency, secret string) string {
	return upperMD5(merchantID + orderID + FormatAmount(amount) + currency + hashedSecret(secret))
}

// InboundHash is the digest the gateway sends as md5sig. Amount is used verbatim.
func InboundHash(n domain.Notification, secret string) string {
	return upperMD5(n.MerchantID + n.OrderID + n.Amount + n.Currency + n.StatusCode + hashedSecret(secret))
}

// VerifyInbound reports whether n carries a valid md5sig for secret.
func VerifyInbound(n domain.Notification, secret string) bool {
	if n.Signature == "" || secret == "" {
		return false
	}
	expected := InboundHash(n, secret)
	got := strings.ToUpper(strings.TrimSpace(n.Signature))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

// SecretDigest is a short sha256 fingerprint of secret, safe to log. It is
// unrelated to the MD5 key material used in signatures.
func SecretDigest(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])[:12]
}

func hashedSecret(secret string) string {
	return upperMD5(secret)
}

func upperMD5(s string) string {
	sum := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
