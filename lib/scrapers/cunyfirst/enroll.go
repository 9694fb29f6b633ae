package cunyfirst

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// enrollment states known to the portal:
//
//	T = in term, not yet acted on
//	E = enrolled
const (
	stateInTerm   = "T"
	stateEnrolled = "E"
)

// EnrollmentStatus reports whether the account is already enrolled in
// the given course for the term.
func (c *Client) EnrollmentStatus(ctx context.Context, term, courseNumber string) (bool, error) {
	return withRelogin(ctx, c, func(ctx context.Context) (bool, error) {
		return c.enrollmentStatus(ctx, term, courseNumber)
	})
}

func (c *Client) enrollmentStatus(ctx context.Context, term, courseNumber string) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:enrollmentStatus")
	defer span.End()

	sess, err := c.apiSession()
	if err != nil {
		return false, err
	}

	res, err := c.transport.get(ctx, sess, c.endpoints.EnrollmentState, map[string]string{
		"term": term,
	})
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	if err := checkSessionBody(res); err != nil {
		return false, err
	}

	var state struct {
		Cnfs []struct {
			CnKey string `json:"cnKey"`
		} `json:"cnfs"`
	}
	if err := json.Unmarshal(res.Body(), &state); err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("decode enrollment state: %w", err)
	}

	for _, course := range state.Cnfs {
		if course.CnKey == courseNumber {
			return true, nil
		}
	}
	return false, nil
}

// AttemptEnroll issues the prepare and perform call pair that moves a
// selection from "in term" to "enrolled". The portal has no structured
// success signal, so anything ambiguous counts as failure.
func (c *Client) AttemptEnroll(ctx context.Context, term, selectionKey, selectionVa string) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:AttemptEnroll")
	defer span.End()

	sess, err := c.apiSession()
	if err != nil {
		return false, err
	}

	// establishes the transition intent the perform call acts on
	_, err = c.transport.get(ctx, sess, c.endpoints.EnrollOptions, map[string]string{
		"statea": stateInTerm,
		"keya":   selectionKey,
		"stateb": stateEnrolled,
		"keyb":   selectionKey,
	})
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	// batching more sections would continue as statea1/keya1/vaa1
	res, err := c.transport.get(ctx, sess, c.endpoints.PerformAction, map[string]string{
		"statea0":      stateInTerm,
		"keya0":        selectionKey,
		"vaa0":         selectionVa,
		"stateb0":      stateEnrolled,
		"keyb0":        selectionKey,
		"vab0":         selectionVa,
		"schoolTermId": term,
	})
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	if !res.IsSuccess() || strings.Contains(res.String(), "Failed") {
		slog.WarnContext(ctx, "could not confirm enrollment",
			"selection", selectionKey, "status", res.StatusCode())
		return false, nil
	}

	slog.InfoContext(ctx, "enrollment confirmed", "selection", selectionKey)
	return true, nil
}
