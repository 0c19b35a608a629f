package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Response is the part of an HTTP response the detectors look at.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Detector examines a response to determine whether the site blocked or
// challenged the request instead of serving the page.
type Detector func(res *Response) (detected bool, source string)

// DefaultDetectors returns the detectors applied to every download.
func DefaultDetectors() []Detector {
	return []Detector{
		detectLinkedIn,
		detectCloudflare,
		detectRateLimit,
	}
}

// Analyze runs res through detectors in order and returns the first hit.
func Analyze(res *Response, detectors []Detector) (bool, string) {
	if res == nil {
		return false, ""
	}
	for _, d := range detectors {
		if detected, source := d(res); detected {
			return true, source
		}
	}
	return false, ""
}

// detectLinkedIn catches LinkedIn's non-standard 999 status and the
// authwall page served to anonymous clients it does not trust.
func detectLinkedIn(res *Response) (bool, string) {
	if res.StatusCode == 999 {
		return true, "LinkedIn"
	}
	if strings.Contains(res.Headers.Get("Location"), "/authwall") {
		return true, "LinkedIn"
	}
	if bytes.Contains(res.Body, []byte("authwall")) && bytes.Contains(res.Body, []byte("Sign in")) &&
		!bytes.Contains(res.Body, []byte("result-card")) && !bytes.Contains(res.Body, []byte("description__text")) {
		return true, "LinkedIn"
	}
	return false, ""
}

// detectCloudflare looks for common Cloudflare challenge/block signatures.
func detectCloudflare(res *Response) (bool, string) {
	if res.StatusCode != http.StatusForbidden && res.StatusCode != http.StatusServiceUnavailable {
		return false, ""
	}
	if strings.Contains(strings.ToLower(res.Headers.Get("Server")), "cloudflare") {
		return true, "Cloudflare"
	}
	for _, sig := range [][]byte{
		[]byte("cf-browser-verification"),
		[]byte("cf-turnstile"),
		[]byte("Attention Required! | Cloudflare"),
	} {
		if bytes.Contains(res.Body, sig) {
			return true, "Cloudflare"
		}
	}
	return false, ""
}

func detectRateLimit(res *Response) (bool, string) {
	if res.StatusCode == http.StatusTooManyRequests {
		return true, "RateLimit"
	}
	return false, ""
}
