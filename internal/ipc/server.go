package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"
	"time"

	"log/slog"

	"signbridge/internal/api"
	"signbridge/internal/daemon"
	"signbridge/internal/logging"
	"signbridge/internal/logs"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Signbridge", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun signbridge stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return logging.NewComponentLogger(s.logger, "ipc")
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.LedgerDBPath = status.LedgerDBPath
	resp.LockPath = status.LockFilePath
	resp.Languages = s.daemon.Languages()
	if status.ActiveRun != nil {
		view := api.FromRun(*status.ActiveRun)
		resp.ActiveRun = &view
	}
	return nil
}

func (s *service) RunList(req RunListRequest, resp *RunListResponse) error {
	runs, err := s.daemon.ListRuns(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Runs = api.FromRuns(runs)
	return nil
}

func (s *service) RunDescribe(req RunDescribeRequest, resp *RunDescribeResponse) error {
	if strings.TrimSpace(req.ID) == "" {
		return errors.New("run id is required")
	}
	run, err := s.daemon.GetRun(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Run = api.FromRun(run)
	return nil
}

func (s *service) RunCancel(req RunCancelRequest, resp *RunCancelResponse) error {
	s.log().Debug("run cancel requested", logging.String(logging.FieldRunID, req.ID))
	run, err := s.daemon.CancelRun(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Run = api.FromRun(run)
	s.log().Info("run cancelled via IPC",
		logging.String(logging.FieldEventType, "run_cancel"),
		logging.String(logging.FieldRunID, req.ID))
	return nil
}

func (s *service) RunRetry(req RunRetryRequest, resp *RunRetryResponse) error {
	s.log().Debug("run retry requested", logging.String(logging.FieldRunID, req.ID))
	run, err := s.daemon.RetryRun(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Run = api.FromRun(run)
	s.log().Info("run retried via IPC",
		logging.String(logging.FieldEventType, "run_retry"),
		logging.String(logging.FieldRunID, req.ID))
	return nil
}

func (s *service) RunClear(req RunClearRequest, resp *RunClearResponse) error {
	s.log().Debug("run clear requested")
	var (
		removed int64
		err     error
	)
	if req.FinishedOnly {
		removed, err = s.daemon.ClearFinished(s.ctx)
	} else {
		removed, err = s.daemon.ClearRuns(s.ctx)
	}
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("runs cleared",
		logging.String(logging.FieldEventType, "run_clear"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	opts := logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
	}
	if req.WaitMillis > 0 {
		opts.Wait = time.Duration(req.WaitMillis) * time.Millisecond
	}
	result, err := s.daemon.TailLog(s.ctx, opts)
	if err != nil {
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	resp.LogPath = s.daemon.LogPath()
	return nil
}
