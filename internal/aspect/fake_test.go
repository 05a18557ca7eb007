package aspect

import "errors"

var errNoWindow = errors.New("window not found")

type fakeSub struct {
	ws     *fakeWindows
	closed int
}

func (s *fakeSub) Close() error {
	s.closed++
	s.ws.fn = nil
	return nil
}

// fakeWindows is a single-window WindowSystem. Queued gestures are delivered
// one per DrainMessage, like hook callbacks dispatched by PeekMessage.
type fakeWindows struct {
	info     Info
	rect     Rect
	xoff     int32
	yoff     int32
	findErr  error
	subErr   error
	frameErr error

	fn      func(Gesture)
	sub     *fakeSub
	subPID  uint32
	pending []Gesture
	drains  int
	moves   []Rect
}

func newFakeWindows(rect Rect) *fakeWindows {
	return &fakeWindows{
		info: Info{Handle: 0x1234, ClassName: "C:/Games/demo.exe", Title: "Demo", PID: 42, Visible: true},
		rect: rect,
		xoff: 16,
		yoff: 39,
	}
}

func (f *fakeWindows) FindWindow(q Query) (Handle, error) {
	if f.findErr != nil {
		return 0, f.findErr
	}
	if !q.Matches(f.info) {
		return 0, errNoWindow
	}
	return f.info.Handle, nil
}

func (f *fakeWindows) ProcessID(h Handle) uint32 {
	if h != f.info.Handle {
		return 0
	}
	return f.info.PID
}

func (f *fakeWindows) WindowRect(h Handle) (Rect, error) {
	if h != f.info.Handle {
		return Rect{}, errNoWindow
	}
	return f.rect, nil
}

func (f *fakeWindows) MoveWindow(h Handle, r Rect) error {
	if h != f.info.Handle {
		return errNoWindow
	}
	f.moves = append(f.moves, r)
	f.rect = r
	return nil
}

func (f *fakeWindows) FrameOffset(style FrameStyle) (int32, int32, error) {
	if f.frameErr != nil {
		return 0, 0, f.frameErr
	}
	return f.xoff, f.yoff, nil
}

func (f *fakeWindows) Subscribe(pid uint32, fn func(Gesture)) (Subscription, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	f.fn = fn
	f.subPID = pid
	f.sub = &fakeSub{ws: f}
	return f.sub, nil
}

func (f *fakeWindows) DrainMessage() bool {
	f.drains++
	if len(f.pending) == 0 {
		return false
	}
	g := f.pending[0]
	f.pending = f.pending[1:]
	if f.fn != nil {
		f.fn(g)
	}
	return true
}

func (f *fakeWindows) post(g ...Gesture) {
	f.pending = append(f.pending, g...)
}

func demoQuery() Query {
	return Query{ClassName: `C:\Games\demo.exe`, Title: "Demo"}
}
