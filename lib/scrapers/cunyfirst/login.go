package cunyfirst

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// loginStep enumerates the states of the SSO handshake. The chain
// advances strictly in order and either runs to stepApiCookiesObtained
// or aborts.
type loginStep int

const (
	stepInit loginStep = iota
	stepRedirectInitiated
	stepSsoReached
	stepCredentialsSubmitted
	stepPostAuthRedirected
	stepMainReaccessed
	stepApiCookiesObtained
)

func (s loginStep) String() string {
	switch s {
	case stepInit:
		return "Init"
	case stepRedirectInitiated:
		return "RedirectInitiated"
	case stepSsoReached:
		return "SsoReached"
	case stepCredentialsSubmitted:
		return "CredentialsSubmitted"
	case stepPostAuthRedirected:
		return "PostAuthRedirected"
	case stepMainReaccessed:
		return "MainReaccessed"
	case stepApiCookiesObtained:
		return "ApiCookiesObtained"
	}
	return "Unknown"
}

// Login walks the SSO redirect chain and populates the API session.
// A client that already holds API cookies is left untouched unless
// `force` is set (used after a detected session expiry).
//
// A nil return does not guarantee authentication: when the portal
// reports itself down the chain is abandoned without error and
// Authenticated() stays false.
func (c *Client) Login(ctx context.Context, force bool) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	if c.api != nil && !force {
		return nil
	}
	c.api = nil

	// the first visit hands out the session-id cookies the data API
	// expects alongside its own cookie set later on
	bootstrap, err := c.transport.get(ctx, c.session, c.endpoints.Main, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to bootstrap session id")
		return fmt.Errorf("bootstrap session id: %w", err)
	}

	session := c.session
	step := stepInit
	var location string

	for step != stepApiCookiesObtained {
		switch step {
		case stepInit:
			res, err := c.transport.get(ctx, session, c.endpoints.Main, nil)
			if err != nil {
				return abortLogin(span, step, err)
			}
			session.Merge(res.Cookies())
			location = res.Header().Get("Location")
			if location == c.endpoints.PortalDown {
				slog.ErrorContext(ctx, "the portal is down right now, skipping login")
				span.SetStatus(codes.Error, "portal down")
				return nil
			}
			if location == "" {
				return abortLogin(span, step, errMissingLocation)
			}
			step = stepRedirectInitiated

		case stepRedirectInitiated:
			res, err := c.transport.get(ctx, session, location, nil)
			if err != nil {
				return abortLogin(span, step, err)
			}
			session.Merge(res.Cookies())
			step = stepSsoReached

		case stepSsoReached:
			res, err := c.transport.postForm(ctx, session, c.endpoints.Auth, map[string]string{
				"username": c.username,
				"password": c.password,
			})
			if err != nil {
				return abortLogin(span, step, err)
			}
			session.Merge(res.Cookies())
			location = res.Header().Get("Location")
			if location == "" {
				return abortLogin(span, step, errMissingLocation)
			}
			step = stepCredentialsSubmitted

		case stepCredentialsSubmitted:
			res, err := c.transport.get(ctx, session, location, nil)
			if err != nil {
				return abortLogin(span, step, err)
			}
			// the portal reissues session identity after
			// authentication, prior cookies are dead weight
			session.Replace(res.Cookies())
			step = stepPostAuthRedirected

		case stepPostAuthRedirected:
			res, err := c.transport.get(ctx, session, c.endpoints.Main, nil)
			if err != nil {
				return abortLogin(span, step, err)
			}
			session.Merge(res.Cookies())
			step = stepMainReaccessed

		case stepMainReaccessed:
			// the trailing marker makes the portal hand out the
			// cookie set scoped to the data API
			res, err := c.transport.get(ctx, session, c.endpoints.Main+"&", nil)
			if err != nil {
				return abortLogin(span, step, err)
			}
			session.Merge(res.Cookies())

			api := NewSession(defaultHeaders())
			api.Replace(res.Cookies())
			api.Merge(bootstrap.Cookies())

			// refreshing the criteria page completes the API cookie
			// set with the schedule builder's own session cookie
			refresh, err := c.transport.get(ctx, api, c.endpoints.Criteria, nil)
			if err != nil {
				return abortLogin(span, step, err)
			}
			api.Merge(refresh.Cookies())

			c.api = api
			step = stepApiCookiesObtained
		}

		slog.DebugContext(ctx, "login step complete", "step", step.String())
	}

	return nil
}

func abortLogin(span trace.Span, step loginStep, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, fmt.Sprintf("login aborted at %s", step))
	return fmt.Errorf("login step %s: %w", step, err)
}
