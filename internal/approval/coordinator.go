package approval

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout is the gate's default pending-to-TimedOut duration (§4.F:
// "default 60 s, configurable").
const DefaultTimeout = 60 * time.Second

// Notifier receives lifecycle notifications (approval requested, approval
// resolved) for operator-facing observability only — it is never the audit
// trail. §8's "Single decision record: every facade call emits exactly one
// DecisionRecord" means gate lifecycle events must not also land in
// internal/audit.Sink, so Notifier implementations log (see NewSlogNotifier)
// rather than append decision records.
type Notifier interface {
	NotifyApproval(ctx context.Context, req Request, res *Resolution)
}

// Coordinator owns every Pending gate and resolves them by message passing
// — no shared mutable lock is held across a suspension point (§5 "Approval
// gate state is owned by a single coordinator and accessed through message
// passing"). Grounded on internal/approvals/manager.go's
// Manager, narrowed to drop its "api" remote-approval mode (out of scope per
// §1's Non-goals on remote transport) and its Emitter fanout hook
// (folded into the single Notifier here, since Cherub has one operator-log
// stream, not a pub/sub broker to many subscribers).
type Coordinator struct {
	timeout time.Duration
	notify  Notifier

	mu      sync.Mutex
	pending map[string]*waiting

	promptMu sync.Mutex
}

type waiting struct {
	req Request
	ch  chan Resolution
}

// NewCoordinator constructs a Coordinator. timeout <= 0 uses DefaultTimeout.
func NewCoordinator(timeout time.Duration, notify Notifier) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Coordinator{
		timeout: timeout,
		notify:  notify,
		pending: make(map[string]*waiting),
	}
}

// Pending lists every gate still awaiting resolution, for an operator-facing
// "approve list" CLI command. Never reachable from agent-facing code.
func (c *Coordinator) Pending() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Request, 0, len(c.pending))
	now := time.Now().UTC()
	for _, w := range c.pending {
		if w.req.ExpiresAt.Before(now) {
			continue
		}
		out = append(out, w.req)
	}
	return out
}

// Resolve delivers an operator's approve/deny decision for the gate
// identified by id. Returns false if no such gate is pending (already
// resolved, timed out, or never existed).
func (c *Coordinator) Resolve(id string, approved bool, reason string) bool {
	c.mu.Lock()
	w, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()
	if !ok {
		return false
	}

	state := Denied
	if approved {
		state = Approved
	}
	res := Resolution{State: state, Reason: reason, Approved: approved, At: time.Now().UTC()}
	select {
	case w.ch <- res:
	default:
	}
	return true
}

// Open opens a new gate for req and blocks until it resolves — by operator
// signal (Resolve), by context cancellation (resolves to Denied, §5
// "Cancellation... resolves the gate to Denied, indistinguishable from
// explicit denial"), or by the gate's own timer elapsing (resolves to
// TimedOut). Multiple concurrent Pending gates are supported; each call to
// Open owns its own.
func (c *Coordinator) Open(ctx context.Context, tool, action, argument string) Resolution {
	now := time.Now().UTC()
	req := Request{
		ID:        "approval-" + uuid.NewString(),
		Tool:      tool,
		Action:    action,
		Argument:  argument,
		CreatedAt: now,
		ExpiresAt: now.Add(c.timeout),
	}

	w := &waiting{req: req, ch: make(chan Resolution, 1)}

	c.mu.Lock()
	c.pending[req.ID] = w
	c.mu.Unlock()

	c.notifyRequested(ctx, req)

	go c.promptTTY(req)

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case res := <-w.ch:
		c.notifyResolved(ctx, req, res)
		return res
	case <-ctx.Done():
		c.Resolve(req.ID, false, "context canceled")
		res := Resolution{State: Denied, Reason: "context canceled", Approved: false, At: time.Now().UTC()}
		c.notifyResolved(ctx, req, res)
		return res
	case <-timer.C:
		c.Resolve(req.ID, false, "approval timeout")
		res := Resolution{State: TimedOut, Reason: "approval timeout", Approved: false, At: time.Now().UTC()}
		c.notifyResolved(ctx, req, res)
		return res
	}
}

func (c *Coordinator) notifyRequested(ctx context.Context, req Request) {
	if c.notify == nil {
		return
	}
	c.notify.NotifyApproval(ctx, req, nil)
}

func (c *Coordinator) notifyResolved(ctx context.Context, req Request, res Resolution) {
	if c.notify == nil {
		return
	}
	c.notify.NotifyApproval(ctx, req, &res)
}

// promptTTY asks a local operator to approve or deny req via /dev/tty,
// gated by an addition challenge that a scripted agent cannot solve from the
// content stream alone. Grounded on internal/approvals/manager.go's
// promptTTY, narrowed to describe only the
// proposal (tool, action, argument) — never a rule name or tier, per §4.F.
func (c *Coordinator) promptTTY(req Request) {
	c.promptMu.Lock()
	defer c.promptMu.Unlock()

	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return
	}
	defer f.Close()

	a, b := challenge()
	fmt.Fprintf(f, "\n=== APPROVAL REQUIRED ===\n")
	fmt.Fprintf(f, "ID: %s\nTool: %s\nAction: %s\nArgument: %s\n", req.ID, req.Tool, req.Action, req.Argument)
	fmt.Fprintf(f, "To continue, solve: %d + %d = ?\n> ", a, b)

	reader := bufio.NewReader(f)
	answerLine, _ := reader.ReadString('\n')
	if strings.TrimSpace(answerLine) != fmt.Sprintf("%d", a+b) {
		c.Resolve(req.ID, false, "challenge failed")
		return
	}

	fmt.Fprintf(f, "Approve? type 'yes' to approve: ")
	choice, _ := reader.ReadString('\n')
	choice = strings.TrimSpace(strings.ToLower(choice))
	if choice == "yes" || choice == "y" {
		c.Resolve(req.ID, true, "local tty")
		return
	}
	c.Resolve(req.ID, false, "denied")
}

func challenge() (int, int) {
	var buf [8]byte
	_, _ = rand.Read(buf[:])
	n := binary.LittleEndian.Uint64(buf[:])
	a := int(n%50) + 10
	b := int((n/50)%50) + 10
	return a, b
}
