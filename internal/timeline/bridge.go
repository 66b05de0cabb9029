package timeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"talkclip/internal/ipc"
)

// Wire types of the accessibility bridge agent. Processes and elements are
// opaque handles minted by the agent.
type (
	FindProcessArgs struct {
		Name string
	}
	HandleArgs struct {
		Handle string
	}
	FindArgs struct {
		Handle     string
		Conditions []Condition
	}
	SetValueArgs struct {
		Handle string
		Value  string
	}
	IdleReply struct {
		Idle bool
	}
	HandleReply struct {
		Found  bool
		Handle string
	}
	HandlesReply struct {
		Handles []string
	}
	Empty struct{}
)

// Bridge is a Desktop backed by the bridge agent's JSON-RPC socket. The
// connection is dialed on first use and dropped after a transport error.
type Bridge struct {
	Socket string

	mu     sync.Mutex
	client *ipc.Client
}

// NewBridge returns a Bridge for the socket at path.
func NewBridge(path string) *Bridge {
	return &Bridge{Socket: path}
}

// Close releases the connection, if any.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == nil {
		return nil
	}
	err := b.client.Close()
	b.client = nil
	return err
}

func (b *Bridge) call(ctx context.Context, method string, args, reply any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == nil {
		client, err := ipc.Dial(ctx, b.Socket)
		if err != nil {
			if ipc.IsUnavailable(err) {
				return fmt.Errorf("%w: bridge unavailable: %v", ErrProcessNotFound, err)
			}
			return err
		}
		b.client = client
	}
	err := b.client.Call(ctx, "Automation."+method, args, reply)
	if err != nil && !ipc.IsRemote(err) {
		_ = b.client.Close()
		b.client = nil
	}
	return err
}

func (b *Bridge) find(ctx context.Context, method string, args any) (string, error) {
	var reply HandleReply
	if err := b.call(ctx, method, args, &reply); err != nil {
		return "", err
	}
	if !reply.Found {
		return "", ErrElementNotFound
	}
	return reply.Handle, nil
}

// FindProcess implements Desktop.
func (b *Bridge) FindProcess(ctx context.Context, name string) (Process, error) {
	handle, err := b.find(ctx, "FindProcess", FindProcessArgs{Name: name})
	if errors.Is(err, ErrElementNotFound) {
		return nil, ErrProcessNotFound
	}
	if err != nil {
		return nil, err
	}
	return bridgeProcess{b: b, handle: handle}, nil
}

type bridgeProcess struct {
	b      *Bridge
	handle string
}

func (p bridgeProcess) InputIdle(ctx context.Context) (bool, error) {
	var reply IdleReply
	if err := p.b.call(ctx, "InputIdle", HandleArgs{Handle: p.handle}, &reply); err != nil {
		return false, err
	}
	return reply.Idle, nil
}

func (p bridgeProcess) MainWindow(ctx context.Context) (Element, error) {
	handle, err := p.b.find(ctx, "MainWindow", HandleArgs{Handle: p.handle})
	if err != nil {
		return nil, err
	}
	return bridgeElement{b: p.b, handle: handle}, nil
}

func (p bridgeProcess) TopLevelWindow(ctx context.Context, conds ...Condition) (Element, error) {
	handle, err := p.b.find(ctx, "TopLevelWindow", FindArgs{Handle: p.handle, Conditions: conds})
	if err != nil {
		return nil, err
	}
	return bridgeElement{b: p.b, handle: handle}, nil
}

type bridgeElement struct {
	b      *Bridge
	handle string
}

func (e bridgeElement) FindChild(ctx context.Context, conds ...Condition) (Element, error) {
	handle, err := e.b.find(ctx, "FindChild", FindArgs{Handle: e.handle, Conditions: conds})
	if err != nil {
		return nil, err
	}
	return bridgeElement{b: e.b, handle: handle}, nil
}

func (e bridgeElement) FindChildren(ctx context.Context, conds ...Condition) ([]Element, error) {
	var reply HandlesReply
	if err := e.b.call(ctx, "FindChildren", FindArgs{Handle: e.handle, Conditions: conds}, &reply); err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(reply.Handles))
	for _, h := range reply.Handles {
		out = append(out, bridgeElement{b: e.b, handle: h})
	}
	return out, nil
}

func (e bridgeElement) SetValue(ctx context.Context, value string) error {
	return e.b.call(ctx, "SetValue", SetValueArgs{Handle: e.handle, Value: value}, &Empty{})
}

func (e bridgeElement) Expand(ctx context.Context) error   { return e.action(ctx, "Expand") }
func (e bridgeElement) Collapse(ctx context.Context) error { return e.action(ctx, "Collapse") }
func (e bridgeElement) Select(ctx context.Context) error   { return e.action(ctx, "Select") }
func (e bridgeElement) Invoke(ctx context.Context) error   { return e.action(ctx, "Invoke") }

func (e bridgeElement) action(ctx context.Context, method string) error {
	return e.b.call(ctx, method, HandleArgs{Handle: e.handle}, &Empty{})
}
