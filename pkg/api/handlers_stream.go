package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dd0wney/cluso-storymap/pkg/entitygraph"
	"github.com/dd0wney/cluso-storymap/pkg/logging"
	"github.com/dd0wney/cluso-storymap/pkg/pubsub"
	"github.com/dd0wney/cluso-storymap/pkg/validation"
	"github.com/dd0wney/cluso-storymap/pkg/visualization"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	streamWriteWait  = 5 * time.Second
	maxStreamMessage = maxLayoutBody
)

type storyRunner = visualization.Runner[entitygraph.Node, entitygraph.Link]

// streamSession is one WebSocket client with its own simulation. The
// session id doubles as the simulation id and the hub topic.
type streamSession struct {
	id     string
	server *Server
	conn   *websocket.Conn
	logger logging.Logger

	// gorilla connections allow one concurrent writer
	writeMu sync.Mutex

	mu    sync.RWMutex
	graph *entitygraph.Graph
	vp    visualization.Viewport
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.respondError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}
	s.streams.Add(1)
	s.mu.Unlock()
	defer s.streams.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client
		s.logger.Debug("websocket upgrade failed", logging.Error(err))
		return
	}

	sess := &streamSession{
		id:     uuid.NewString(),
		server: s,
		conn:   conn,
		graph:  &entitygraph.Graph{},
	}
	sess.logger = s.logger.With(logging.SimulationID(sess.id))

	s.active.Add(1)
	s.metrics.StreamOpened()
	defer func() {
		s.active.Add(-1)
		s.metrics.StreamClosed()
	}()

	sess.logger.Info("stream opened", logging.String("remote", r.RemoteAddr))
	sess.run(r.Context())
	sess.logger.Info("stream closed")
}

// run owns the session until the client goes away or the server closes
func (sess *streamSession) run(reqCtx context.Context) {
	s := sess.server
	ctx, cancel := context.WithCancel(s.baseCtx)
	stop := context.AfterFunc(reqCtx, cancel)
	defer stop()
	defer cancel()
	defer sess.conn.Close()

	sub, err := s.hub.Subscribe(ctx, sess.id)
	if err != nil {
		sess.logger.Warn("subscribe failed", logging.Error(err))
		return
	}
	defer s.hub.Forget(sess.id)

	sim := visualization.NewSimulation[entitygraph.Node, entitygraph.Link](s.layoutCfg, visualization.Options{
		ID:        sess.id,
		Publisher: visualization.NewHubPublisher(s.hub, sess.id),
		Observer:  s.metrics,
		Logger:    s.logger,
	})
	runner := visualization.NewRunner(ctx, sim, s.cfg.FrameInterval)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		sess.writeLoop(ctx, sub)
	}()

	sess.readLoop(runner)

	cancel()
	runner.Close()
	sub.Unsubscribe()
	<-writerDone
}

func (sess *streamSession) readLoop(runner *storyRunner) {
	sess.conn.SetReadLimit(maxStreamMessage)
	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				sess.logger.Debug("stream read failed", logging.Error(err))
			}
			return
		}

		var msg StreamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			err = fmt.Errorf("%w: %v", validation.ErrInvalidRequest, err)
			if sess.send(StreamError{Error: err.Error()}) != nil {
				return
			}
			continue
		}
		if err := sess.apply(runner, &msg); err != nil {
			if sess.send(StreamError{Error: err.Error()}) != nil {
				return
			}
		}
	}
}

// apply validates msg and restarts the layout with it
func (sess *streamSession) apply(runner *storyRunner, msg *StreamMessage) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	g := sess.graph
	if msg.Graph != nil {
		if err := validation.ValidateGraph(msg.Graph, sess.server.cfg.MaxNodes); err != nil {
			return err
		}
		g = msg.Graph
	}
	if err := validation.ValidateViewport(msg.Width, msg.Height); err != nil {
		return err
	}

	sess.graph = g
	sess.vp = visualization.Viewport{Width: msg.Width, Height: msg.Height}
	state := runner.Load(g.Nodes, g.Links, sess.vp)

	sess.logger.Debug("stream reloaded",
		logging.NodeCount(len(g.Nodes)),
		logging.Viewport(sess.vp.Width, sess.vp.Height),
		logging.String("state", state.String()))
	return nil
}

func (sess *streamSession) writeLoop(ctx context.Context, sub *pubsub.Subscription[visualization.Snapshot]) {
	for {
		select {
		case <-ctx.Done():
			sess.closeWith(websocket.CloseGoingAway, "stream ended")
			return
		case snap, ok := <-sub.Channel():
			if !ok {
				sess.closeWith(websocket.CloseGoingAway, "stream ended")
				return
			}
			snap = sess.coalesce(sub, snap)
			if err := sess.send(sess.render(snap)); err != nil {
				sess.logger.Debug("stream write failed", logging.Error(err))
				sess.conn.Close()
				return
			}
		}
	}
}

// coalesce skips to the newest queued snapshot. The final snapshot of a
// run is always the newest, so it is never skipped.
func (sess *streamSession) coalesce(sub *pubsub.Subscription[visualization.Snapshot], snap visualization.Snapshot) visualization.Snapshot {
	for {
		select {
		case next, ok := <-sub.Channel():
			if !ok {
				return snap
			}
			sess.server.metrics.StreamDropped()
			snap = next
		default:
			return snap
		}
	}
}

func (sess *streamSession) render(snap visualization.Snapshot) visualization.Document {
	sess.mu.RLock()
	defer sess.mu.RUnlock()
	return render(sess.graph, sess.vp, snap)
}

func (sess *streamSession) send(v any) error {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	sess.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return sess.conn.WriteJSON(v)
}

func (sess *streamSession) closeWith(code int, reason string) {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	msg := websocket.FormatCloseMessage(code, reason)
	sess.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	sess.conn.Close()
}
