// Package gateway implements the payment provider's signed-URL protocol:
// outbound redirect URLs signed with HMAC-SHA512 over the sorted query
// parameters, and verification of the signed callback the provider delivers
// after the tenant completes (or abandons) payment.
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kataloghq/rentcycle/internal/domain"
)

// Callback/request parameter names, fixed by the provider protocol.
const (
	paramMerchant     = "gw_Merchant"
	paramAmount       = "gw_Amount"
	paramTxnRef       = "gw_TxnRef"
	paramOrderInfo    = "gw_OrderInfo"
	paramClientIP     = "gw_IpAddr"
	paramCreateDate   = "gw_CreateDate"
	paramReturnURL    = "gw_ReturnUrl"
	paramResponseCode = "gw_ResponseCode"
	paramSecureHash   = "gw_SecureHash"
)

// codeSuccess is the provider's response code for an accepted payment.
const codeSuccess = "00"

const createDateFormat = "20060102150405"

// Config holds the merchant credentials and endpoints for the provider.
type Config struct {
	// MerchantCode identifies this merchant to the provider.
	MerchantCode string
	// Secret is the shared HMAC key. Never logged, never serialized.
	Secret string
	// PayURL is the provider endpoint the tenant is redirected to.
	PayURL string
	// ReturnURL is the callback address the provider redirects back to.
	ReturnURL string
}

// Client implements domain.PaymentGateway for the signed-URL provider.
type Client struct {
	cfg Config
	now func() time.Time
}

// Compile-time check: Client implements domain.PaymentGateway.
var _ domain.PaymentGateway = (*Client)(nil)

// New creates a gateway client with the given merchant configuration.
func New(cfg Config) *Client {
	return &Client{cfg: cfg, now: time.Now}
}

// BuildRedirectURL constructs the signed provider URL for a payment order.
// The signature covers every parameter, so any later tampering with amount
// or reference invalidates the request.
func (c *Client) BuildRedirectURL(ctx context.Context, order domain.PaymentOrder) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set(paramMerchant, c.cfg.MerchantCode)
	params.Set(paramAmount, strconv.FormatInt(order.Amount, 10))
	params.Set(paramTxnRef, order.Ref)
	params.Set(paramOrderInfo, order.Info)
	params.Set(paramClientIP, order.ClientIP)
	params.Set(paramCreateDate, c.now().UTC().Format(createDateFormat))
	params.Set(paramReturnURL, c.cfg.ReturnURL)

	signed := signedQuery(params, c.cfg.Secret)

	return c.cfg.PayURL + "?" + signed, nil
}

// VerifyCallback re-derives the signature over all non-signature parameters
// and compares it in constant time against the one the provider sent. Only
// after the signature checks out are any fields parsed and trusted.
func (c *Client) VerifyCallback(params url.Values) (domain.Callback, error) {
	got := params.Get(paramSecureHash)
	if got == "" {
		return domain.Callback{}, &domain.VerificationError{Reason: "missing signature"}
	}

	unsigned := url.Values{}
	for k, vs := range params {
		if k == paramSecureHash {
			continue
		}
		for _, v := range vs {
			unsigned.Add(k, v)
		}
	}

	want := sign(canonicalQuery(unsigned), c.cfg.Secret)
	if !hmac.Equal([]byte(strings.ToLower(got)), []byte(want)) {
		return domain.Callback{}, &domain.VerificationError{Reason: "signature mismatch"}
	}

	ref := params.Get(paramTxnRef)
	if ref == "" {
		return domain.Callback{}, &domain.VerificationError{Reason: "missing transaction reference"}
	}

	amount, err := strconv.ParseInt(params.Get(paramAmount), 10, 64)
	if err != nil {
		return domain.Callback{}, &domain.VerificationError{Reason: "malformed amount"}
	}

	code := params.Get(paramResponseCode)

	return domain.Callback{
		Ref:          ref,
		Amount:       amount,
		Success:      code == codeSuccess,
		ResponseCode: code,
	}, nil
}

// canonicalQuery serializes params sorted by key with URL-encoded values,
// the canonical form both sides sign.
func canonicalQuery(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params.Get(k)))
	}
	return b.String()
}

// signedQuery returns the canonical query with the signature appended.
func signedQuery(params url.Values, secret string) string {
	canonical := canonicalQuery(params)
	return canonical + "&" + paramSecureHash + "=" + sign(canonical, secret)
}

func sign(payload, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	fmt.Fprint(mac, payload)
	return hex.EncodeToString(mac.Sum(nil))
}
