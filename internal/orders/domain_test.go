package orders

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllowedNextStatuses(t *testing.T) {
	cases := map[OrderStatus][]OrderStatus{
		StatusPending:   {StatusPending, StatusConfirmed},
		StatusConfirmed: {StatusConfirmed, StatusShipped},
		StatusShipped:   {StatusShipped, StatusDelivered},
		StatusDelivered: nil,
		StatusCancelled: nil,
	}
	for current, want := range cases {
		require.Equal(t, want, AllowedNextStatuses(current), "from %s", current)
	}
}

func TestCanTransitionForwardOnly(t *testing.T) {
	require.True(t, CanTransition(StatusPending, StatusConfirmed))
	require.True(t, CanTransition(StatusConfirmed, StatusShipped))
	require.True(t, CanTransition(StatusShipped, StatusDelivered))

	require.False(t, CanTransition(StatusPending, StatusShipped))
	require.False(t, CanTransition(StatusConfirmed, StatusPending))
	require.False(t, CanTransition(StatusDelivered, StatusShipped))
}

func TestCanTransitionAllowsNoOp(t *testing.T) {
	for _, s := range []OrderStatus{StatusPending, StatusConfirmed, StatusShipped} {
		require.True(t, CanTransition(s, s))
	}
	// Terminal statuses refuse even the refresh.
	require.False(t, CanTransition(StatusDelivered, StatusDelivered))
	require.False(t, CanTransition(StatusCancelled, StatusCancelled))
}

// CANCELLED must never appear as a direct target; it is reserved for
// approved cancel requests.
func TestCancelledUnreachableByDirectTransition(t *testing.T) {
	for _, from := range []OrderStatus{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered} {
		require.False(t, CanTransition(from, StatusCancelled), "from %s", from)
	}
	for _, current := range []OrderStatus{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered} {
		require.NotContains(t, AllowedNextStatuses(current), StatusCancelled, "from %s", current)
	}
}

func TestTerminal(t *testing.T) {
	require.True(t, StatusDelivered.Terminal())
	require.True(t, StatusCancelled.Terminal())
	require.False(t, StatusPending.Terminal())
	require.False(t, StatusConfirmed.Terminal())
	require.False(t, StatusShipped.Terminal())
}
