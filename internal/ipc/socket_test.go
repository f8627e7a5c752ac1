package ipc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/cardscan/internal/capture"
	"github.com/rbright/cardscan/internal/fsm"
)

// crashedScanSocket leaves a socket file behind with nobody accepting on it,
// the way a killed scan session does.
func crashedScanSocket(t *testing.T, path string) {
	t.Helper()

	listener, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	require.NoError(t, err)
	listener.SetUnlinkOnClose(false)
	require.NoError(t, listener.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func serveSnapshot(t *testing.T, listener net.Listener, state capture.State) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, listener, HandlerFunc(func(_ context.Context, req Request) Response {
			if req.Command != CommandStatus {
				return Response{OK: true, State: string(state.Workflow), Message: "ignored", Snapshot: &state}
			}
			return Response{OK: true, State: string(state.Workflow), Message: "status", Snapshot: &state}
		}))
	}()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
}

func TestAcquireTakesOverCrashedScanSocket(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), SocketName)
	crashedScanSocket(t, socketPath)

	var rescued atomic.Int32
	listener, err := Acquire(context.Background(), socketPath, 50*time.Millisecond, 2, func(context.Context) error {
		rescued.Add(1)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int32(1), rescued.Load())

	info, err := os.Stat(socketPath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	serveSnapshot(t, listener, capture.State{Lens: capture.LensBack, Workflow: fsm.StateIdle, CameraReady: true})

	resp, err := Send(context.Background(), socketPath, CommandStatus, 200*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "idle", resp.State)
	require.NotNil(t, resp.Snapshot)
	require.True(t, resp.Snapshot.CameraReady)
}

func TestAcquireTakesOverLeftoverFile(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), SocketName)
	require.NoError(t, os.WriteFile(socketPath, []byte("stale"), 0o600))

	listener, err := Acquire(context.Background(), socketPath, 50*time.Millisecond, 1, nil)
	require.NoError(t, err)
	require.NoError(t, listener.Close())
}

func TestAcquireLeavesLiveScanAlone(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), SocketName)
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	serveSnapshot(t, listener, capture.State{Lens: capture.LensFront, Workflow: fsm.StateCapturing, CaptureID: "cap-3"})

	var rescued atomic.Int32
	_, err = Acquire(context.Background(), socketPath, 80*time.Millisecond, 1, func(context.Context) error {
		rescued.Add(1)
		return nil
	})
	require.ErrorIs(t, err, ErrAlreadyRunning)
	require.Zero(t, rescued.Load())

	resp, err := Send(context.Background(), socketPath, CommandStatus, 200*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "capturing", resp.State)
	require.Equal(t, "cap-3", resp.Snapshot.CaptureID)
}

func TestAcquireKeepsSocketOfHungScan(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), SocketName)
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	acceptDone := make(chan struct{})
	go func() {
		defer close(acceptDone)
		for {
			conn, acceptErr := listener.Accept()
			if acceptErr != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				time.Sleep(250 * time.Millisecond)
			}(conn)
		}
	}()

	var rescued atomic.Int32
	_, err = Acquire(context.Background(), socketPath, 30*time.Millisecond, 0, func(context.Context) error {
		rescued.Add(1)
		return nil
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAlreadyRunning)
	require.Contains(t, err.Error(), "probe existing socket")
	require.Zero(t, rescued.Load())

	_, statErr := os.Stat(socketPath)
	require.NoError(t, statErr)
	require.NoError(t, listener.Close())
	<-acceptDone
}

func TestRuntimeSocketPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", "  "+dir+"  ")
	path, err := RuntimeSocketPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "cardscan.sock"), path)

	t.Setenv("XDG_RUNTIME_DIR", "")
	_, err = RuntimeSocketPath()
	require.Error(t, err)
}
