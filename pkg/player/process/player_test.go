package process

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/elixirclient/pkg/player/types"
)

type fakeProcess struct {
	pid     int
	events  *[]string
	killErr error
	killed  int
}

func (p *fakeProcess) Pid() int {
	return p.pid
}

func (p *fakeProcess) Kill() error {
	p.killed++
	*p.events = append(*p.events, fmt.Sprintf("kill:%d", p.pid))
	return p.killErr
}

type fakeSpawner struct {
	locker   sync.Mutex
	events   []string
	procs    []*fakeProcess
	lastArgs []string
	lastPath string
	fail     bool
}

func (s *fakeSpawner) Start(ctx context.Context, path string, args []string) (Process, error) {
	s.locker.Lock()
	defer s.locker.Unlock()
	if s.fail {
		return nil, errors.New("exec format error")
	}
	proc := &fakeProcess{pid: len(s.procs) + 100, events: &s.events}
	s.procs = append(s.procs, proc)
	s.events = append(s.events, fmt.Sprintf("spawn:%d", proc.pid))
	s.lastPath, s.lastArgs = path, args
	return proc, nil
}

func lookPathIn(available ...string) func(string) (string, error) {
	return func(file string) (string, error) {
		for _, name := range available {
			if name == file {
				return "/usr/bin/" + file, nil
			}
		}
		return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
	}
}

func newTestPlayer(s *fakeSpawner, available ...string) *Player {
	p := New()
	p.LookPath = lookPathIn(available...)
	p.Start = s.Start
	return p
}

func TestLocateBinary(t *testing.T) {
	p := newTestPlayer(&fakeSpawner{}, "cvlc", "vlc")
	path, err := p.LocateBinary()
	require.NoError(t, err)
	require.Equal(t, "/usr/bin/vlc", path)
	require.True(t, p.IsAvailable())

	p = newTestPlayer(&fakeSpawner{}, "cvlc")
	path, err = p.LocateBinary()
	require.NoError(t, err)
	require.Equal(t, "/usr/bin/cvlc", path)

	p = newTestPlayer(&fakeSpawner{})
	_, err = p.LocateBinary()
	require.ErrorIs(t, err, types.ErrBinaryNotFound)
	require.False(t, p.IsAvailable())
}

func TestPlayReplacesProcess(t *testing.T) {
	ctx := context.Background()
	s := &fakeSpawner{}
	p := newTestPlayer(s, "vlc")

	require.NoError(t, p.Play(ctx, "http://host.local:8080/a.mkv"))
	require.Equal(t, "/usr/bin/vlc", s.lastPath)
	require.Equal(t, []string{"--play-and-exit", "--no-video-title-show", "http://host.local:8080/a.mkv"}, s.lastArgs)

	// a failing kill does not prevent the replacement
	s.procs[0].killErr = errors.New("process already finished")
	require.NoError(t, p.Play(ctx, "http://host.local:8080/b.mkv"))

	require.Equal(t, []string{"spawn:100", "kill:100", "spawn:101"}, s.events)
	require.Same(t, s.procs[1], p.Process)

	require.NoError(t, p.Stop(ctx))
	require.Nil(t, p.Process)
	require.Equal(t, 1, s.procs[1].killed)

	// no-op when nothing is tracked
	require.NoError(t, p.Stop(ctx))
	require.Equal(t, 1, s.procs[1].killed)
}

func TestPlayErrors(t *testing.T) {
	ctx := context.Background()

	s := &fakeSpawner{}
	p := newTestPlayer(s)
	require.ErrorIs(t, p.Play(ctx, "http://example"), types.ErrBinaryNotFound)
	require.Empty(t, s.events)

	s = &fakeSpawner{}
	p = newTestPlayer(s, "vlc")
	require.NoError(t, p.Play(ctx, "http://example/1"))
	s.fail = true
	require.Error(t, p.Play(ctx, "http://example/2"))
	assert.Equal(t, 1, s.procs[0].killed)
	assert.Nil(t, p.Process)
}

func TestExtraArgs(t *testing.T) {
	p := New(types.OptionExternalExtraArgs{"--fullscreen"}, types.OptionExternalBinaries{"mpv"})
	require.Equal(t, []string{"mpv"}, p.Binaries)
	require.Equal(t, []string{"--play-and-exit", "--no-video-title-show", "--fullscreen", "x"}, p.Args("x"))
}

func TestStartExec(t *testing.T) {
	truePath, err := exec.LookPath("true")
	if err != nil {
		t.Skip("no 'true' executable in PATH")
	}
	ctx := context.Background()

	p := New(types.OptionExternalBinaries{"true"})
	path, err := p.LocateBinary()
	require.NoError(t, err)
	require.Equal(t, truePath, path)

	require.NoError(t, p.Play(ctx, "http://example/1"))
	require.NotNil(t, p.Process)
	require.NotZero(t, p.Process.Pid())
	require.NoError(t, p.Play(ctx, "http://example/2"))
	require.NoError(t, p.Stop(ctx))
	require.Nil(t, p.Process)
}
