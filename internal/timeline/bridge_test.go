package timeline_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"talkclip/internal/ipc"
	"talkclip/internal/logging"
	"talkclip/internal/timeline"
)

// Automation serves a fake tool the way the bridge agent would.
type Automation struct {
	mu      sync.Mutex
	tool    *tool
	handles map[string]*node
}

func (a *Automation) handle(n *node) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	h := fmt.Sprintf("el-%p", n)
	a.handles[h] = n
	return h
}

func (a *Automation) lookup(h string) (*node, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n, ok := a.handles[h]
	if !ok {
		return nil, fmt.Errorf("stale handle %s", h)
	}
	return n, nil
}

func (a *Automation) FindProcess(args timeline.FindProcessArgs, reply *timeline.HandleReply) error {
	if args.Name == processName {
		reply.Found, reply.Handle = true, "proc-1"
	}
	return nil
}

func (a *Automation) InputIdle(args timeline.HandleArgs, reply *timeline.IdleReply) error {
	reply.Idle = args.Handle == "proc-1"
	return nil
}

func (a *Automation) MainWindow(args timeline.HandleArgs, reply *timeline.HandleReply) error {
	reply.Found, reply.Handle = true, a.handle(a.tool.main)
	return nil
}

func (a *Automation) TopLevelWindow(args timeline.FindArgs, reply *timeline.HandleReply) error {
	for _, w := range a.tool.proc.topLevel {
		if w.matches(args.Conditions) {
			reply.Found, reply.Handle = true, a.handle(w)
		}
	}
	return nil
}

func (a *Automation) FindChild(args timeline.FindArgs, reply *timeline.HandleReply) error {
	n, err := a.lookup(args.Handle)
	if err != nil {
		return err
	}
	if c := n.child(args.Conditions); c != nil {
		reply.Found, reply.Handle = true, a.handle(c)
	}
	return nil
}

func (a *Automation) FindChildren(args timeline.FindArgs, reply *timeline.HandlesReply) error {
	n, err := a.lookup(args.Handle)
	if err != nil {
		return err
	}
	for _, c := range n.children {
		if c.matches(args.Conditions) {
			reply.Handles = append(reply.Handles, a.handle(c))
		}
	}
	return nil
}

func (a *Automation) SetValue(args timeline.SetValueArgs, _ *timeline.Empty) error {
	n, err := a.lookup(args.Handle)
	if err != nil {
		return err
	}
	return n.SetValue(context.Background(), args.Value)
}

func (a *Automation) Expand(args timeline.HandleArgs, _ *timeline.Empty) error {
	return a.act(args.Handle, "expand")
}

func (a *Automation) Collapse(args timeline.HandleArgs, _ *timeline.Empty) error {
	return a.act(args.Handle, "collapse")
}

func (a *Automation) Select(args timeline.HandleArgs, _ *timeline.Empty) error {
	return a.act(args.Handle, "select")
}

func (a *Automation) Invoke(args timeline.HandleArgs, _ *timeline.Empty) error {
	return a.act(args.Handle, "invoke")
}

func (a *Automation) act(h, call string) error {
	n, err := a.lookup(h)
	if err != nil {
		return err
	}
	return n.record(call)
}

func startBridge(t *testing.T, tl *tool) *timeline.Bridge {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "automation.sock")
	svc := &Automation{tool: tl, handles: map[string]*node{}}
	srv, err := ipc.NewServer(context.Background(), socket, "Automation", svc, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)
	bridge := timeline.NewBridge(socket)
	t.Cleanup(func() { _ = bridge.Close() })
	return bridge
}

func TestBridgeDrivesTool(t *testing.T) {
	tl := newTool()
	bridge := startBridge(t, tl)
	got := newDriver().Register(context.Background(), timeline.NewSession(bridge, processName), fullRequest())
	if got != "" {
		t.Fatalf("expected no warning, got %q", got)
	}
	if tl.speech.Value() != "/out/clip.wav" {
		t.Fatalf("speech field not set over the bridge: %q", tl.speech.Value())
	}
	if calls := tl.items[0].Calls(); len(calls) != 1 || calls[0] != "select" {
		t.Fatalf("expected selection over the bridge, got %v", calls)
	}
	if calls := tl.add.Calls(); len(calls) != 1 {
		t.Fatalf("expected add over the bridge, got %v", calls)
	}
}

func TestBridgeUndockedWindow(t *testing.T) {
	tl := newTool()
	tl.undock()
	bridge := startBridge(t, tl)
	s := timeline.NewSession(bridge, processName)
	if err := s.Attach(context.Background()); err != nil {
		t.Fatalf("attach: %v", err)
	}
}

func TestBridgeUnknownProcess(t *testing.T) {
	bridge := startBridge(t, newTool())
	err := timeline.NewSession(bridge, "other.exe").Attach(context.Background())
	if !errors.Is(err, timeline.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestBridgeRemoteErrorIsWarning(t *testing.T) {
	tl := newTool()
	tl.add.fail["invoke"] = errors.New("button disabled")
	bridge := startBridge(t, tl)
	got := newDriver().Register(context.Background(), timeline.NewSession(bridge, processName), fullRequest())
	if got != "Could not press the add button in the timeline." {
		t.Fatalf("unexpected warning %q", got)
	}
}

func TestBridgeAbsentMeansNotRunning(t *testing.T) {
	bridge := timeline.NewBridge(filepath.Join(t.TempDir(), "absent.sock"))
	err := timeline.NewSession(bridge, processName).Attach(context.Background())
	if !errors.Is(err, timeline.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}
