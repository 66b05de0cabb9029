package timeline_test

import (
	"context"
	"strings"
	"sync"

	"talkclip/internal/timeline"
)

type node struct {
	mu       *sync.Mutex
	props    map[timeline.Property]string
	children []*node
	value    string
	calls    []string
	fail     map[string]error
}

func el(props ...string) *node {
	n := &node{mu: &sync.Mutex{}, props: map[timeline.Property]string{}, fail: map[string]error{}}
	for i := 0; i+1 < len(props); i += 2 {
		n.props[timeline.Property(props[i])] = props[i+1]
	}
	return n
}

func (n *node) add(children ...*node) *node {
	n.children = append(n.children, children...)
	return n
}

func (n *node) matches(conds []timeline.Condition) bool {
	for _, c := range conds {
		got, ok := n.props[c.Property]
		if !ok {
			return false
		}
		if c.Prefix && !strings.HasPrefix(got, c.Value) {
			return false
		}
		if !c.Prefix && got != c.Value {
			return false
		}
	}
	return true
}

func (n *node) record(call string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, call)
	return n.fail[call]
}

func (n *node) Calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

func (n *node) Value() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.value
}

func (n *node) child(conds []timeline.Condition) *node {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.children {
		if c.matches(conds) {
			return c
		}
	}
	return nil
}

func (n *node) FindChild(_ context.Context, conds ...timeline.Condition) (timeline.Element, error) {
	if c := n.child(conds); c != nil {
		return c, nil
	}
	return nil, timeline.ErrElementNotFound
}

func (n *node) FindChildren(_ context.Context, conds ...timeline.Condition) ([]timeline.Element, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []timeline.Element
	for _, c := range n.children {
		if c.matches(conds) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (n *node) SetValue(_ context.Context, value string) error {
	if err := n.record("set"); err != nil {
		return err
	}
	n.mu.Lock()
	n.value = value
	n.mu.Unlock()
	return nil
}

func (n *node) Expand(context.Context) error   { return n.record("expand") }
func (n *node) Collapse(context.Context) error { return n.record("collapse") }
func (n *node) Select(context.Context) error   { return n.record("select") }
func (n *node) Invoke(context.Context) error   { return n.record("invoke") }

type fakeProcess struct {
	idle     bool
	idleErr  error
	idleHits int
	main     *node
	topLevel []*node
}

func (p *fakeProcess) InputIdle(context.Context) (bool, error) {
	p.idleHits++
	return p.idle, p.idleErr
}

func (p *fakeProcess) MainWindow(context.Context) (timeline.Element, error) {
	if p.main == nil {
		return nil, timeline.ErrElementNotFound
	}
	return p.main, nil
}

func (p *fakeProcess) TopLevelWindow(_ context.Context, conds ...timeline.Condition) (timeline.Element, error) {
	for _, w := range p.topLevel {
		if w.matches(conds) {
			return w, nil
		}
	}
	return nil, timeline.ErrElementNotFound
}

type fakeDesktop struct {
	proc   *fakeProcess
	err    error
	finds  int
	onFind func(n int)
}

func (d *fakeDesktop) FindProcess(_ context.Context, name string) (timeline.Process, error) {
	d.finds++
	if d.onFind != nil {
		d.onFind(d.finds)
	}
	if d.err != nil {
		return nil, d.err
	}
	if d.proc == nil {
		return nil, timeline.ErrProcessNotFound
	}
	return d.proc, nil
}

// tool is a running timeline tool with its window docked in the main window.
type tool struct {
	proc    *fakeProcess
	main    *node
	window  *node
	control *node
	speech  *node
	combo   *node
	items   []*node
	add     *node
}

func newTool() *tool {
	t := &tool{
		main:    el("name", "YukkuriMovieMaker"),
		window:  el("control_type", "window", "name", "タイムライン - project"),
		control: el("class_name", "TimelineControl"),
		speech:  el("automation_id", "SerifuTB"),
		combo:   el("automation_id", "CharactersCB"),
		add:     el("name", "追加"),
	}
	for _, name := range []string{"れいむ", "まりさ"} {
		item := el("control_type", "list_item")
		t.combo.add(item)
		item.add(el("name", name))
		t.items = append(t.items, item)
	}
	t.main.add(t.window)
	t.window.add(t.control)
	t.control.add(t.speech, t.combo, t.add)
	t.proc = &fakeProcess{idle: true, main: t.main}
	return t
}

func (t *tool) desktop() *fakeDesktop {
	return &fakeDesktop{proc: t.proc}
}

// undock moves the timeline window out of the main window.
func (t *tool) undock() {
	t.main.children = nil
	t.proc.topLevel = []*node{t.window}
}
