// Package ws exposes the history manager over a WebSocket connection: one
// JSON command per message in, one JSON Reply per message out. It follows
// the teacher's upgrader/reader-loop/writer-goroutine split, simplified to
// a single reply-per-request exchange since time-travel commands have no
// fan-out broadcast like the game protocol's OBS stream.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"timetravel/internal/history"
	"timetravel/internal/protocol"
)

// Server answers undo/redo/goto/state commands against a single shared
// history.Manager. Commands are serialised through cmds so concurrent
// connections never race on the manager's cursor.
type Server struct {
	history *history.Manager
	log     *log.Logger

	upgrader websocket.Upgrader

	cmds chan func()
}

func NewServer(h *history.Manager, logger *log.Logger) *Server {
	s := &Server{
		history: h,
		log:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  32 * 1024,
			WriteBufferSize: 32 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		cmds: make(chan func(), 256),
	}
	go s.runCommandLoop()
	return s
}

func (s *Server) runCommandLoop() {
	for fn := range s.cmds {
		fn()
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		out := make(chan protocol.Reply, 8)

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case reply, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					b, _ := json.Marshal(reply)
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}

			base, err := protocol.DecodeBase(msg)
			if err != nil {
				out <- protocol.Reply{Accepted: false, Code: protocol.ErrBadRequest, Message: "malformed command"}
				continue
			}

			done := make(chan protocol.Reply, 1)
			s.cmds <- func() {
				done <- s.dispatch(base.Op, msg)
			}
			out <- <-done
		}
		close(out)
	}
}

func (s *Server) dispatch(op string, raw []byte) protocol.Reply {
	switch op {
	case protocol.OpUndo:
		return s.handleUndo()
	case protocol.OpRedo:
		return s.handleRedo()
	case protocol.OpGoto:
		var cmd protocol.GotoCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			return protocol.Reply{Op: op, Accepted: false, Code: protocol.ErrBadRequest, Message: err.Error()}
		}
		return s.handleGoto(cmd.Tick)
	case protocol.OpState:
		return s.stateReply(op, true, "")
	default:
		return protocol.Reply{Op: op, Accepted: false, Code: protocol.ErrBadRequest, Message: "unknown op"}
	}
}

func (s *Server) handleUndo() protocol.Reply {
	if _, err := s.history.Undo(); err != nil {
		return protocol.Reply{Op: protocol.OpUndo, Accepted: false, Code: protocol.ErrHistoryAtStart, Message: err.Error(),
			CanUndo: s.history.CanUndo(), CanRedo: s.history.CanRedo()}
	}
	return s.stateReply(protocol.OpUndo, true, "")
}

func (s *Server) handleRedo() protocol.Reply {
	if _, err := s.history.Redo(); err != nil {
		return protocol.Reply{Op: protocol.OpRedo, Accepted: false, Code: protocol.ErrHistoryAtEnd, Message: err.Error(),
			CanUndo: s.history.CanUndo(), CanRedo: s.history.CanRedo()}
	}
	return s.stateReply(protocol.OpRedo, true, "")
}

// handleGoto walks Undo or Redo repeatedly until the manager's current
// FrameCount equals tick, or until the walk runs off an end of the ring.
func (s *Server) handleGoto(tick uint64) protocol.Reply {
	for s.history.Current().FrameCount > tick {
		if _, err := s.history.Undo(); err != nil {
			return protocol.Reply{Op: protocol.OpGoto, Accepted: false, Code: protocol.ErrTickNotFound, Message: err.Error(),
				CanUndo: s.history.CanUndo(), CanRedo: s.history.CanRedo()}
		}
	}
	for s.history.Current().FrameCount < tick {
		if _, err := s.history.Redo(); err != nil {
			return protocol.Reply{Op: protocol.OpGoto, Accepted: false, Code: protocol.ErrTickNotFound, Message: err.Error(),
				CanUndo: s.history.CanUndo(), CanRedo: s.history.CanRedo()}
		}
	}
	return s.stateReply(protocol.OpGoto, true, "")
}

func (s *Server) stateReply(op string, accepted bool, code string) protocol.Reply {
	cur := s.history.Current()
	return protocol.Reply{
		Op:       op,
		Accepted: accepted,
		Code:     code,
		Tick:     cur.FrameCount,
		Digest:   cur.Digest(),
		CanUndo:  s.history.CanUndo(),
		CanRedo:  s.history.CanRedo(),
	}
}
