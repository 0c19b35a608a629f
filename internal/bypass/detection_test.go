package bypass

import (
	"net/http"
	"testing"
)

func TestDetectLinkedIn(t *testing.T) {
	tests := []struct {
		name string
		res  *Response
		want bool
	}{
		{
			name: "status 999",
			res:  &Response{StatusCode: 999, Headers: http.Header{}},
			want: true,
		},
		{
			name: "authwall redirect",
			res: &Response{
				StatusCode: http.StatusFound,
				Headers:    http.Header{"Location": {"https://www.linkedin.com/authwall?trk=foo"}},
			},
			want: true,
		},
		{
			name: "authwall body",
			res: &Response{
				StatusCode: http.StatusOK,
				Headers:    http.Header{},
				Body:       []byte(`<html><form action="/authwall">Sign in to view</form></html>`),
			},
			want: true,
		},
		{
			name: "results page mentioning sign in",
			res: &Response{
				StatusCode: http.StatusOK,
				Headers:    http.Header{},
				Body:       []byte(`<a href="/authwall">Sign in</a><h3 class="result-card__title">Go Dev</h3>`),
			},
			want: false,
		},
		{
			name: "plain page",
			res:  &Response{StatusCode: http.StatusOK, Headers: http.Header{}, Body: []byte("ok")},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detected, src := detectLinkedIn(tt.res)
			if detected != tt.want {
				t.Errorf("expected detected=%v, got %v", tt.want, detected)
			}
			if detected && src != "LinkedIn" {
				t.Errorf("expected source LinkedIn, got %s", src)
			}
		})
	}
}

func TestDetectCloudflare(t *testing.T) {
	res := &Response{
		StatusCode: 200,
		Headers:    http.Header{"Server": {"cloudflare"}},
		Body:       []byte("OK"),
	}
	if detected, _ := detectCloudflare(res); detected {
		t.Errorf("expected not detected on 200")
	}

	res = &Response{
		StatusCode: 403,
		Headers:    http.Header{"Server": {"cloudflare"}},
	}
	if detected, src := detectCloudflare(res); !detected || src != "Cloudflare" {
		t.Errorf("expected Cloudflare detection by header")
	}

	res = &Response{
		StatusCode: 503,
		Headers:    http.Header{},
		Body:       []byte("<html>... cf-turnstile ...</html>"),
	}
	if detected, src := detectCloudflare(res); !detected || src != "Cloudflare" {
		t.Errorf("expected Cloudflare detection by body")
	}
}

func TestAnalyze(t *testing.T) {
	detected, src := Analyze(&Response{StatusCode: http.StatusTooManyRequests, Headers: http.Header{}}, DefaultDetectors())
	if !detected || src != "RateLimit" {
		t.Errorf("expected RateLimit, got %v %q", detected, src)
	}

	detected, src = Analyze(&Response{StatusCode: http.StatusOK, Headers: http.Header{}}, DefaultDetectors())
	if detected || src != "" {
		t.Errorf("expected no detection, got %v %q", detected, src)
	}

	if detected, _ := Analyze(nil, DefaultDetectors()); detected {
		t.Errorf("expected nil response to be ignored")
	}
}
