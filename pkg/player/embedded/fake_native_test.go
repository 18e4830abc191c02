package embedded

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// descriptorNode mimics a native null-terminated descriptor list.
type descriptorNode struct {
	id   int32
	name *string
	next *descriptorNode
}

func newDescriptorChain(ids []int32, names []*string) *descriptorNode {
	var head *descriptorNode
	for i := len(ids) - 1; i >= 0; i-- {
		head = &descriptorNode{id: ids[i], name: names[i], next: head}
	}
	return head
}

type fakeDescriptorList struct {
	head     *descriptorNode
	cur      *descriptorNode
	started  bool
	released *int
}

func (l *fakeDescriptorList) Next() bool {
	if !l.started {
		l.started = true
		l.cur = l.head
	} else if l.cur != nil {
		l.cur = l.cur.next
	}
	return l.cur != nil
}

func (l *fakeDescriptorList) Current() (int32, string, bool) {
	if l.cur.name == nil {
		return l.cur.id, "", false
	}
	return l.cur.id, *l.cur.name, true
}

func (l *fakeDescriptorList) Release() {
	*l.released++
}

type fakeMedia struct {
	link     string
	released int
}

func (m *fakeMedia) Release() error {
	m.released++
	return nil
}

type fakeNative struct {
	mu sync.Mutex

	calls []string

	failNewMedia bool
	failPlay     bool
	panicOnStop  bool

	failDescriptors bool

	media    *fakeMedia
	allMedia []*fakeMedia

	playing bool
	paused  bool

	nsObject uintptr
	xWindow  uint32
	hwnd     uintptr

	audio          *descriptorNode
	subtitles      *descriptorNode
	audioID        int32
	subtitleID     int32
	listsReleased  int
	released       bool
	concurrentUsed int
	inUse          bool
}

var _ NativePlayer = (*fakeNative)(nil)

func (n *fakeNative) enter(name string) func() {
	n.mu.Lock()
	if n.inUse {
		n.concurrentUsed++
	}
	n.inUse = true
	n.calls = append(n.calls, name)
	n.mu.Unlock()
	return func() {
		n.mu.Lock()
		n.inUse = false
		n.mu.Unlock()
	}
}

func (n *fakeNative) NewMedia(link string) (NativeMedia, error) {
	defer n.enter("NewMedia")()
	if n.failNewMedia {
		return nil, fmt.Errorf("cannot resolve '%s'", link)
	}
	m := &fakeMedia{link: link}
	n.allMedia = append(n.allMedia, m)
	return m, nil
}

func (n *fakeNative) SetMedia(media NativeMedia) error {
	defer n.enter("SetMedia")()
	n.media = media.(*fakeMedia)
	return nil
}

func (n *fakeNative) SetNSObject(view uintptr) error {
	defer n.enter("SetNSObject")()
	n.nsObject = view
	return nil
}

func (n *fakeNative) SetXWindow(window uint32) error {
	defer n.enter("SetXWindow")()
	n.xWindow = window
	return nil
}

func (n *fakeNative) SetHWND(hwnd uintptr) error {
	defer n.enter("SetHWND")()
	n.hwnd = hwnd
	return nil
}

func (n *fakeNative) Play() error {
	defer n.enter("Play")()
	if n.failPlay {
		return fmt.Errorf("libvlc play failed")
	}
	n.playing, n.paused = true, false
	return nil
}

func (n *fakeNative) Stop() error {
	defer n.enter("Stop")()
	if n.panicOnStop {
		panic("native crash")
	}
	n.playing, n.paused = false, false
	return nil
}

func (n *fakeNative) IsPlaying() bool {
	defer n.enter("IsPlaying")()
	return n.playing && !n.paused
}

func (n *fakeNative) SetPause(pause bool) error {
	defer n.enter("SetPause")()
	if n.playing {
		n.paused = pause
	}
	return nil
}

func (n *fakeNative) AudioTrackDescriptors() (TrackDescriptorList, error) {
	defer n.enter("AudioTrackDescriptors")()
	if n.failDescriptors {
		return nil, errors.New("no track descriptors")
	}
	return &fakeDescriptorList{head: n.audio, released: &n.listsReleased}, nil
}

func (n *fakeNative) AudioTrackID() (int32, error) {
	defer n.enter("AudioTrackID")()
	return n.audioID, nil
}

func (n *fakeNative) SetAudioTrack(id int32) error {
	defer n.enter("SetAudioTrack")()
	n.audioID = id
	return nil
}

func (n *fakeNative) SubtitleTrackDescriptors() (TrackDescriptorList, error) {
	defer n.enter("SubtitleTrackDescriptors")()
	if n.failDescriptors {
		return nil, errors.New("no track descriptors")
	}
	return &fakeDescriptorList{head: n.subtitles, released: &n.listsReleased}, nil
}

func (n *fakeNative) SubtitleTrackID() (int32, error) {
	defer n.enter("SubtitleTrackID")()
	return n.subtitleID, nil
}

func (n *fakeNative) SetSubtitleTrack(id int32) error {
	defer n.enter("SetSubtitleTrack")()
	n.subtitleID = id
	return nil
}

func (n *fakeNative) Release() error {
	defer n.enter("Release")()
	n.released = true
	return nil
}

func newFakeEngine(n *fakeNative) (*Engine, error) {
	return New(context.Background(), func(ctx context.Context) (NativePlayer, error) {
		return n, nil
	})
}

func strPtr(s string) *string {
	return &s
}
