package gateway

import "net/url"

// SignForTest exposes the callback signing primitive so tests can forge
// provider-side deliveries.
func SignForTest(params url.Values, secret string) string {
	return sign(canonicalQuery(params), secret)
}
