package domain

// TimelineStatus is the lifecycle status of a single timeline item.
type TimelineStatus string

const (
	StatusAwaitingPrevious  TimelineStatus = "awaitingPrevious"
	StatusAwaitingSignature TimelineStatus = "awaitingSignature"
	StatusSubmittedToSafe   TimelineStatus = "submittedToSafe"
	StatusPending           TimelineStatus = "pending"
	StatusFinalizing        TimelineStatus = "finalizing"
	StatusConfirmed         TimelineStatus = "confirmed"
	StatusFailed            TimelineStatus = "failed"
	StatusCancelled         TimelineStatus = "cancelled"
	StatusRejected          TimelineStatus = "rejected"
	StatusRetrying          TimelineStatus = "retrying"
)

// AllTimelineStatuses lists every status in lifecycle order.
func AllTimelineStatuses() []TimelineStatus {
	return []TimelineStatus{
		StatusAwaitingPrevious,
		StatusAwaitingSignature,
		StatusSubmittedToSafe,
		StatusPending,
		StatusFinalizing,
		StatusConfirmed,
		StatusFailed,
		StatusCancelled,
		StatusRejected,
		StatusRetrying,
	}
}

// IsTerminalSuccess reports whether the item reached on-chain or multisig hand-off success.
// The finalizing label only ever decorates a confirmed item.
func (s TimelineStatus) IsTerminalSuccess() bool {
	switch s {
	case StatusConfirmed, StatusFinalizing, StatusSubmittedToSafe:
		return true
	case StatusAwaitingPrevious, StatusAwaitingSignature, StatusPending,
		StatusFailed, StatusCancelled, StatusRejected, StatusRetrying:
		return false
	}
	return false
}

// IsFailure reports whether the item stopped the attempt and can be retried.
func (s TimelineStatus) IsFailure() bool {
	switch s {
	case StatusFailed, StatusRejected, StatusCancelled:
		return true
	case StatusAwaitingPrevious, StatusAwaitingSignature, StatusSubmittedToSafe,
		StatusPending, StatusFinalizing, StatusConfirmed, StatusRetrying:
		return false
	}
	return false
}

// MarksFailedIndex reports whether an item in this status implicates the
// attempt's failed transaction index.
func (s TimelineStatus) MarksFailedIndex() bool {
	switch s {
	case StatusFailed, StatusRejected, StatusRetrying:
		return true
	case StatusAwaitingPrevious, StatusAwaitingSignature, StatusSubmittedToSafe,
		StatusPending, StatusFinalizing, StatusConfirmed, StatusCancelled:
		return false
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s TimelineStatus) Valid() bool {
	switch s {
	case StatusAwaitingPrevious, StatusAwaitingSignature, StatusSubmittedToSafe,
		StatusPending, StatusFinalizing, StatusConfirmed, StatusFailed,
		StatusCancelled, StatusRejected, StatusRetrying:
		return true
	}
	return false
}

// TimelineItem is the display and retry record for one transaction of a batch.
type TimelineItem struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Status      TimelineStatus `json:"status"`
	ExplorerURL string         `json:"explorerUrl,omitempty"`
}
