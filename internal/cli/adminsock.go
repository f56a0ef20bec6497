package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"

	"github.com/kenn-williamson/cherub/internal/approval"
)

// adminRequest/adminResponse define cherub serve's local admin protocol: a
// single JSON object per line over a Unix domain socket. This stays inside
// §1's "approvals are local-operator only" boundary — a Unix socket is
// filesystem-scoped IPC between processes on the same host, never a
// network-exposed API, so it does not reopen the remote-approval-transport
// Non-goal gRPC/HTTP approvals API falls under.
type adminRequest struct {
	Op       string `json:"op"`
	ID       string `json:"id,omitempty"`
	Approved bool   `json:"approved,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type adminResponse struct {
	OK       bool                `json:"ok"`
	Error    string              `json:"error,omitempty"`
	Pending  []approval.Request  `json:"pending,omitempty"`
}

func defaultAdminSocketPath() string {
	if v := os.Getenv("CHERUB_ADMIN_SOCK"); v != "" {
		return v
	}
	return "/tmp/cherub-admin.sock"
}

// serveAdmin accepts admin connections on l until the listener is
// closed (by the caller cancelling the serve loop), dispatching each
// connection's requests against coord.
func serveAdmin(l net.Listener, coord *approval.Coordinator) {
	for {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		go handleAdminConn(conn, coord)
	}
}

func handleAdminConn(conn net.Conn, coord *approval.Coordinator) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	enc := json.NewEncoder(conn)
	for scanner.Scan() {
		var req adminRequest
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			_ = enc.Encode(adminResponse{OK: false, Error: err.Error()})
			continue
		}
		switch req.Op {
		case "list":
			_ = enc.Encode(adminResponse{OK: true, Pending: coord.Pending()})
		case "resolve":
			ok := coord.Resolve(req.ID, req.Approved, req.Reason)
			if !ok {
				_ = enc.Encode(adminResponse{OK: false, Error: fmt.Sprintf("no pending approval with id %q", req.ID)})
				continue
			}
			_ = enc.Encode(adminResponse{OK: true})
		default:
			_ = enc.Encode(adminResponse{OK: false, Error: fmt.Sprintf("unknown op %q", req.Op)})
		}
	}
}

// adminCall dials sockPath, sends req, and decodes a single response.
func adminCall(sockPath string, req adminRequest) (*adminResponse, error) {
	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("connect to cherub serve admin socket %s: %w", sockPath, err)
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, err
	}
	var resp adminResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("%s", resp.Error)
	}
	return &resp, nil
}
