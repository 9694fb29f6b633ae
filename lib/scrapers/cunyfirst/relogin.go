package cunyfirst

import (
	"context"
	"errors"
	"log/slog"
)

// attempts for an operation that can observe a lapsed session: the
// original call plus one retry behind a forced re-login
const maxSessionAttempts = 2

// withRelogin runs op, and if it reports an expired session, forces a
// fresh login and retries once. A second expiry is surfaced to the
// caller.
func withRelogin[T any](ctx context.Context, c *Client, op func(context.Context) (T, error)) (T, error) {
	var out T
	var err error
	for attempt := 0; attempt < maxSessionAttempts; attempt++ {
		out, err = op(ctx)
		if !errors.Is(err, ErrSessionExpired) {
			return out, err
		}
		if attempt == maxSessionAttempts-1 {
			break
		}
		slog.WarnContext(ctx, "session expired, forcing a fresh login")
		if loginErr := c.Login(ctx, true); loginErr != nil {
			var zero T
			return zero, loginErr
		}
		if !c.Authenticated() {
			// portal down, retrying is pointless
			return out, err
		}
	}
	return out, err
}
