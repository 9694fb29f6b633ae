package cunyfirst

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnrollmentStatus(t *testing.T) {
	portal := newFakePortal(t)
	portal.enrolledBody = `{"cnfs":[{"cnKey":"CSCI 101"},{"cnKey":"MATH 201"}]}`
	client := newTestClient(t, portal)
	ctx := context.Background()

	require.NoError(t, client.Login(ctx, false))

	enrolled, err := client.EnrollmentStatus(ctx, testTermId, "CSCI 101")
	require.NoError(t, err)
	require.True(t, enrolled)

	enrolled, err = client.EnrollmentStatus(ctx, testTermId, "PHYS 301")
	require.NoError(t, err)
	require.False(t, enrolled)
}

func TestEnrollmentStatusMalformedResponse(t *testing.T) {
	portal := newFakePortal(t)
	portal.enrolledBody = "<not json>"
	client := newTestClient(t, portal)
	ctx := context.Background()

	require.NoError(t, client.Login(ctx, false))

	_, err := client.EnrollmentStatus(ctx, testTermId, "CSCI 101")
	require.ErrorContains(t, err, "decode enrollment state")
}

func TestAttemptEnroll(t *testing.T) {
	portal := newFakePortal(t)
	client := newTestClient(t, portal)
	ctx := context.Background()

	require.NoError(t, client.Login(ctx, false))

	ok, err := client.AttemptEnroll(ctx, testTermId, "sel-22222", "LAG01")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, portal.enrollOptionHits)
	require.Equal(t, 1, portal.performActionHits)
}

func TestAttemptEnrollReportsFailure(t *testing.T) {
	portal := newFakePortal(t)
	portal.performBody = "Failed: seat taken"
	client := newTestClient(t, portal)
	ctx := context.Background()

	require.NoError(t, client.Login(ctx, false))

	ok, err := client.AttemptEnroll(ctx, testTermId, "sel-22222", "LAG01")
	require.NoError(t, err)
	require.False(t, ok)
}
