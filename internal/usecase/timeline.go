package usecase

import (
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/trebuchet-org/txflow/internal/domain"
)

const (
	msgAwaitingPrevious = "Waiting for previous transaction"
	msgAwaitingEOA      = "Confirm the transaction in your wallet"
	msgAwaitingSafe     = "Sign the proposal for your Safe"
	msgRetrying         = "Preparing to retry"
	msgPending          = "Waiting for confirmation"
	msgConfirmed        = "Transaction confirmed"
	msgFinalizing       = "Finalizing"
	msgSubmittedToSafe  = "Submitted to Safe for approval"
	msgRejected         = "Transaction rejected"
	msgFailed           = "Transaction failed"
	msgCancelled        = "Transaction cancelled"
)

// State is an immutable snapshot of a timeline and its attempt state
type State struct {
	Items []domain.TimelineItem
	// FailedTxIndex is -1 unless an item is failed, rejected or retrying
	FailedTxIndex int
	Err           error
	ShowError     bool
	Retrying      bool
	Completed     bool
	Initialized   bool
}

// CanContinue reports whether the flow's continue action is enabled
func (s State) CanContinue() bool {
	return s.Completed
}

// CanRetry reports whether a retry action should be offered
func (s State) CanRetry() bool {
	return !s.Completed && !s.Retrying && s.Err != nil && IsRetryable(s.Err)
}

// ItemPatch holds the fields merged into a timeline item. Zero fields are left untouched.
type ItemPatch struct {
	Status      domain.TimelineStatus
	Message     string
	ExplorerURL string
}

// Timeline owns the ordered timeline items of one attempt family.
// All writes go through its lock and publish a fresh snapshot to observers.
type Timeline struct {
	mu          sync.Mutex
	items       []domain.TimelineItem
	initialized bool
	err         error
	showError   bool
	retrying    bool
	completed   bool
	observers   []TimelineObserver
	newID       func() string
}

// NewTimeline creates an empty timeline
func NewTimeline(observers ...TimelineObserver) *Timeline {
	return &Timeline{
		observers: observers,
		newID:     uuid.NewString,
	}
}

// Subscribe registers an observer and sends it the current snapshot
func (t *Timeline) Subscribe(o TimelineObserver) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
	o.OnTimeline(t.snapshot())
}

// Initialize builds one item per wrapper. It returns false and leaves the
// items untouched once the timeline has been initialized.
func (t *Timeline) Initialize(wrappers []domain.TransactionWrapper, safeMode bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.initialized {
		return false
	}

	firstMessage := msgAwaitingEOA
	if safeMode {
		firstMessage = msgAwaitingSafe
	}

	t.items = lo.Map(wrappers, func(w domain.TransactionWrapper, i int) domain.TimelineItem {
		item := domain.TimelineItem{
			ID:      t.newID(),
			Title:   w.Title,
			Status:  domain.StatusAwaitingPrevious,
			Message: msgAwaitingPrevious,
		}
		if i == 0 {
			item.Status = domain.StatusAwaitingSignature
			item.Message = firstMessage
		}
		return item
	})
	t.initialized = true
	t.publish()
	return true
}

// Initialized reports whether the attempt family has a fixed item list
func (t *Timeline) Initialized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initialized
}

// Len returns the number of items
func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

// ItemID returns the stable id of the item at index
func (t *Timeline) ItemID(index int) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.items) {
		return "", false
	}
	return t.items[index].ID, true
}

// Update merges patch into the item with the given id. Unknown ids are
// ignored. Transitions out of a terminal success state are rejected with
// an ErrInvariant error.
func (t *Timeline) Update(id string, patch ItemPatch) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := slices.IndexFunc(t.items, func(it domain.TimelineItem) bool { return it.ID == id })
	if idx < 0 {
		return nil
	}
	item := &t.items[idx]
	if patch.Status != "" {
		if !canTransition(item.Status, patch.Status) {
			return invariantf("timeline item %q cannot move from %s to %s", item.Title, item.Status, patch.Status)
		}
		item.Status = patch.Status
	}
	if patch.Message != "" {
		item.Message = patch.Message
	}
	if patch.ExplorerURL != "" {
		item.ExplorerURL = patch.ExplorerURL
	}
	t.publish()
	return nil
}

// Reset prepares the timeline for a resumed attempt at retryIndex.
// Confirmed items keep their status and data.
func (t *Timeline) Reset(retryIndex int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.err = nil
	t.showError = false
	t.completed = false
	for i := range t.items {
		item := &t.items[i]
		if item.Status.IsTerminalSuccess() {
			continue
		}
		item.ExplorerURL = ""
		if i == retryIndex {
			item.Status = domain.StatusRetrying
			item.Message = msgRetrying
			continue
		}
		item.Status = domain.StatusAwaitingPrevious
		item.Message = msgAwaitingPrevious
	}
	t.publish()
}

// Fail records a per-item failure and stores err as the attempt error.
// status must be failed, rejected or cancelled.
func (t *Timeline) Fail(index int, status domain.TimelineStatus, err error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !status.IsFailure() {
		return invariantf("status %s is not a failure status", status)
	}
	if index < 0 || index >= len(t.items) {
		return invariantf("failed index %d out of range [0,%d)", index, len(t.items))
	}
	item := &t.items[index]
	if !canTransition(item.Status, status) {
		return invariantf("timeline item %q cannot move from %s to %s", item.Title, item.Status, status)
	}
	item.Status = status
	item.Message = failureMessage(status)
	t.err = err
	t.publish()
	return nil
}

// FailAttempt stores an attempt-level error that implicates no item
func (t *Timeline) FailAttempt(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = err
	t.publish()
}

// SetRetrying toggles the retry-in-progress flag
func (t *Timeline) SetRetrying(retrying bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.retrying = retrying
	t.publish()
}

// SetCompleted marks the flow as completed and clears the retry flag
func (t *Timeline) SetCompleted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.retrying = false
	t.completed = true
	t.publish()
}

// SetShowError toggles visibility of the raw error panel
func (t *Timeline) SetShowError(show bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.showError = show
	t.publish()
}

// State returns the current snapshot
func (t *Timeline) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

func (t *Timeline) snapshot() State {
	return State{
		Items:         slices.Clone(t.items),
		FailedTxIndex: failedIndex(t.items),
		Err:           t.err,
		ShowError:     t.showError,
		Retrying:      t.retrying,
		Completed:     t.completed,
		Initialized:   t.initialized,
	}
}

func (t *Timeline) publish() {
	if len(t.observers) == 0 {
		return
	}
	state := t.snapshot()
	for _, o := range t.observers {
		o.OnTimeline(state)
	}
}

// failedIndex returns the first item implicating the failed transaction index, or -1
func failedIndex(items []domain.TimelineItem) int {
	return slices.IndexFunc(items, func(it domain.TimelineItem) bool {
		return it.Status.MarksFailedIndex()
	})
}

// canTransition reports whether an item may move from one status to another
// through Update or Fail. Retrying is only ever entered through Reset.
func canTransition(from, to domain.TimelineStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case domain.StatusConfirmed:
		return to == domain.StatusFinalizing
	case domain.StatusFinalizing:
		return to == domain.StatusConfirmed
	case domain.StatusSubmittedToSafe:
		return false
	case domain.StatusAwaitingPrevious, domain.StatusAwaitingSignature, domain.StatusPending,
		domain.StatusFailed, domain.StatusCancelled, domain.StatusRejected, domain.StatusRetrying:
	}

	switch to {
	case domain.StatusFinalizing, domain.StatusRetrying:
		return false
	case domain.StatusAwaitingPrevious, domain.StatusAwaitingSignature, domain.StatusSubmittedToSafe,
		domain.StatusPending, domain.StatusConfirmed, domain.StatusFailed,
		domain.StatusCancelled, domain.StatusRejected:
		return to.Valid()
	}
	return false
}

func failureMessage(status domain.TimelineStatus) string {
	switch status {
	case domain.StatusRejected:
		return msgRejected
	case domain.StatusCancelled:
		return msgCancelled
	case domain.StatusFailed:
		return msgFailed
	case domain.StatusAwaitingPrevious, domain.StatusAwaitingSignature, domain.StatusSubmittedToSafe,
		domain.StatusPending, domain.StatusFinalizing, domain.StatusConfirmed, domain.StatusRetrying:
	}
	return string(status)
}
