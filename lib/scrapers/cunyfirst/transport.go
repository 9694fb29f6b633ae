package cunyfirst

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"seatwatch/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// total attempts for a transient transport failure
const maxTransportAttempts = 3

type transportOptions struct {
	insecureSkipVerify bool
	browserEmulation   bool
}

// transport issues portal requests with session cookies applied per
// call. It never follows redirects: the login chain branches on
// intermediate redirect targets, so callers read Location themselves.
type transport struct {
	http *resty.Client
}

func newTransport(opts transportOptions) *transport {
	client := resty.New()
	client.SetRedirectPolicy(resty.NoRedirectPolicy())
	client.SetTimeout(time.Second * 30)

	client.SetRetryCount(maxTransportAttempts - 1)
	client.SetRetryWaitTime(time.Millisecond * 500)
	client.SetRetryMaxWaitTime(time.Second * 8)
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		if errors.Is(err, resty.ErrAutoRedirectDisabled) {
			return false
		}
		return err != nil || res.StatusCode() >= 500
	})

	if opts.insecureSkipVerify {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	if opts.browserEmulation {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	telemetry.InstrumentResty(client, "scrapers/cunyfirst/http")

	return &transport{http: client}
}

func (t *transport) get(ctx context.Context, s *Session, url string, params map[string]string) (*resty.Response, error) {
	req := t.http.R().
		SetContext(ctx).
		SetHeaders(s.Headers()).
		SetCookies(s.Cookies())
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	res, err := req.Get(url)
	return t.finish(res, url, err)
}

func (t *transport) postForm(ctx context.Context, s *Session, url string, form map[string]string) (*resty.Response, error) {
	res, err := t.http.R().
		SetContext(ctx).
		SetHeaders(s.Headers()).
		SetCookies(s.Cookies()).
		SetFormData(form).
		Post(url)
	return t.finish(res, url, err)
}

func (t *transport) finish(res *resty.Response, url string, err error) (*resty.Response, error) {
	if err != nil && !errors.Is(err, resty.ErrAutoRedirectDisabled) {
		return nil, &TransportError{URL: url, Err: err}
	}
	if res.StatusCode() >= 500 {
		// still transient after exhausting retries
		return nil, &TransportError{URL: url, Err: fmt.Errorf("status %d", res.StatusCode())}
	}
	if res.StatusCode() >= 400 {
		return nil, &StatusError{StatusCode: res.StatusCode(), URL: url}
	}
	return res, nil
}
