package mcpserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"cardgrid/internal/service"
)

// Approval events sent to the frontend.
const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
)

// PendingAction represents a destructive operation awaiting user approval.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CardID      string `json:"cardId,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

// ApprovalQueue holds destructive MCP tool calls until the user answers them
// in the frontend. With autoApprove set every request passes immediately.
type ApprovalQueue struct {
	mu          sync.Mutex
	pending     map[string]chan bool
	ctx         context.Context
	emitter     service.EventEmitter
	timeout     time.Duration
	autoApprove bool
}

func NewApprovalQueue(ctx context.Context, emitter service.EventEmitter) *ApprovalQueue {
	return &ApprovalQueue{
		pending: make(map[string]chan bool),
		ctx:     ctx,
		emitter: emitter,
		timeout: 120 * time.Second,
	}
}

// Request asks the user to approve tool and blocks until they answer, the
// request times out or ctx is done. The error says why it did not pass.
func (q *ApprovalQueue) Request(ctx context.Context, tool, description, cardID string) error {
	if q.autoApprove {
		return nil
	}
	id := uuid.New().String()
	ch := make(chan bool, 1)

	q.mu.Lock()
	q.pending[id] = ch
	q.mu.Unlock()
	defer q.cleanup(id)

	q.emitter.Emit(q.ctx, EventApprovalRequired, PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		CardID:      cardID,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	})

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case approved := <-ch:
		if !approved {
			return fmt.Errorf("action rejected by user: %s", tool)
		}
		return nil
	case <-timer.C:
		q.emitter.Emit(q.ctx, EventApprovalDismissed, map[string]string{"id": id})
		return fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
	case <-ctx.Done():
		q.emitter.Emit(q.ctx, EventApprovalDismissed, map[string]string{"id": id})
		return ctx.Err()
	case <-q.ctx.Done():
		return fmt.Errorf("approval queue closed: %w", q.ctx.Err())
	}
}

// Pending returns the number of requests waiting for an answer.
func (q *ApprovalQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Approve marks a pending action as approved.
func (q *ApprovalQueue) Approve(actionID string) {
	q.answer(actionID, true)
}

// Reject marks a pending action as rejected.
func (q *ApprovalQueue) Reject(actionID string) {
	q.answer(actionID, false)
}

func (q *ApprovalQueue) answer(actionID string, approved bool) {
	q.mu.Lock()
	ch, ok := q.pending[actionID]
	q.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- approved:
	default:
	}
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
