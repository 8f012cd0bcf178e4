package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	. "github.com/saiputravu/fenrir/internal/common"
	"github.com/saiputravu/fenrir/internal/engine"

	"github.com/google/uuid"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = time.Second
)

var (
	ErrImproperConversion = errors.New("improper type conversion")
	ErrClientDoesNotExist = errors.New("client does not exist")
)

// clientSession is a connected TCP session tracked by address.
type clientSession struct {
	conn net.Conn
}

// clientMessage links a parsed message to the client that sent it.
type clientMessage struct {
	clientAddress string
	message       Message
}

// Server is a TCP order-entry front-end driving an in-process *engine.Engine. It
// satisfies engine.EventSink so it can be installed directly as the engine's reporter:
// trade executions and rejections are written back to whichever connection owns the
// order they concern, looked up by order_id. Acceptance is acknowledged by dispatch;
// cancel and amend events only update the order_id -> connection tracking and send
// nothing to the client.
type Server struct {
	engine *engine.Engine

	address string
	port    int
	pool    workerPool
	cancel  context.CancelFunc

	sessionsLock sync.Mutex
	sessions     map[string]clientSession // address -> session
	ownerOf      map[string]string        // order_id -> address

	clientMessages chan clientMessage
}

func New(address string, port int, eng *engine.Engine) *Server {
	return &Server{
		engine:         eng,
		address:        address,
		port:           port,
		pool:           newWorkerPool(defaultNWorkers),
		sessions:       make(map[string]clientSession),
		ownerOf:        make(map[string]string),
		clientMessages: make(chan clientMessage, 1),
	}
}

var _ engine.EventSink = (*Server)(nil)

func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Server) Run(ctx context.Context) {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("unable to start listener")
		return
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})

	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Msg("server running")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("error accepting client")
				continue
			}

			log.Info().Str("address", conn.RemoteAddr().String()).Msg("new client connected")
			s.addClientSession(conn)
			s.pool.AddTask(conn)
		}
	}
}

// sessionHandler drains parsed messages produced by the worker pool and dispatches
// each into the engine, writing the resulting report back to the originating
// connection.
func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case cm := <-s.clientMessages:
			s.dispatch(cm)
		}
	}
}

func (s *Server) dispatch(cm clientMessage) {
	switch m := cm.message.(type) {
	case NewOrderMessage:
		order := m.ToOrder(uuid.New().String())
		s.rememberOwner(order.OrderID, cm.clientAddress)
		if _, err := s.engine.Place(order); err != nil {
			s.writeError(cm.clientAddress, order.OrderID, err)
			return
		}
		s.writeAck(cm.clientAddress, order)
	case CancelOrderMessage:
		if _, err := s.engine.Cancel(m.OrderID); err != nil {
			s.writeError(cm.clientAddress, m.OrderID, err)
		}
	case AmendOrderMessage:
		if _, err := s.engine.Amend(m.OrderID, m.NewPrice, m.NewQuantity); err != nil {
			s.writeError(cm.clientAddress, m.OrderID, err)
		}
	case BaseMessage:
		if m.TypeOf == LogBook {
			s.writeAllOrders(cm.clientAddress)
		}
	default:
		log.Warn().Str("address", cm.clientAddress).Msg("unhandled message type")
	}
}

// --- engine.EventSink -----------------------------------------------------------

// OrderAccepted is delivered synchronously by the engine; this server doesn't need to
// act on it beyond what dispatch already did with the ack, so it is a no-op here.
func (s *Server) OrderAccepted(Order) {}

func (s *Server) OrderRejected(order Order, reason error) {
	s.writeError(s.addressFor(order.OrderID), order.OrderID, reason)
	s.forgetOwner(order.OrderID)
}

func (s *Server) OrderCancelled(order Order) {
	s.forgetOwner(order.OrderID)
}

func (s *Server) OrderAmended(previous, current Order) {
	address := s.addressFor(previous.OrderID)
	s.forgetOwner(previous.OrderID)
	s.rememberOwner(current.OrderID, address)
}

func (s *Server) TradeExecuted(trade Trade) {
	buyerReport, sellerReport, err := reportForTrade(trade)
	if err != nil {
		log.Error().Err(err).Msg("failed to serialize trade report")
		return
	}
	s.writeTo(s.addressFor(trade.BuyOrderID), buyerReport)
	s.writeTo(s.addressFor(trade.SellOrderID), sellerReport)
}

// --- wire I/O ---------------------------------------------------------------------

func (s *Server) writeAck(address string, order Order) {
	buf, err := reportForAck(order)
	if err != nil {
		log.Error().Err(err).Msg("failed to serialize ack report")
		return
	}
	s.writeTo(address, buf)
}

func (s *Server) writeError(address, orderID string, reason error) {
	buf, err := reportForError(orderID, reason)
	if err != nil {
		log.Error().Err(err).Msg("failed to serialize error report")
		return
	}
	s.writeTo(address, buf)
}

func (s *Server) writeAllOrders(address string) {
	for _, order := range s.engine.AllOrders() {
		s.writeAck(address, order)
	}
}

func (s *Server) writeTo(address string, payload []byte) {
	if address == "" {
		return
	}
	s.sessionsLock.Lock()
	client, ok := s.sessions[address]
	s.sessionsLock.Unlock()
	if !ok {
		return
	}

	if _, err := client.conn.Write(payload); err != nil {
		log.Error().Err(err).Str("address", address).Msg("unable to write report")
		s.deleteClientSession(address)
	}
}

// handleConnection is a worker-pool task: it reads and parses exactly one message off
// conn, hands it to sessionHandler, then requeues the same connection so the next
// message it sends is picked up by some (possibly different) worker.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Debug().Str("address", conn.RemoteAddr().String()).Err(err).Msg("failed setting read deadline")
	}

	buffer := make([]byte, maxRecvSize)
	select {
	case <-t.Dying():
		return nil
	default:
		n, err := conn.Read(buffer)
		if err != nil {
			s.deleteClientSession(conn.RemoteAddr().String())
			_ = conn.Close()
			return nil
		}

		message, err := parseMessage(buffer[:n])
		if err != nil {
			log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("error parsing message")
			s.pool.AddTask(conn)
			return nil
		}

		s.clientMessages <- clientMessage{
			clientAddress: conn.RemoteAddr().String(),
			message:       message,
		}
		s.pool.AddTask(conn)
	}
	return nil
}

func (s *Server) addClientSession(conn net.Conn) {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()
	s.sessions[conn.RemoteAddr().String()] = clientSession{conn: conn}
}

func (s *Server) deleteClientSession(address string) {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()
	delete(s.sessions, address)
}

func (s *Server) rememberOwner(orderID, address string) {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()
	s.ownerOf[orderID] = address
}

func (s *Server) forgetOwner(orderID string) {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()
	delete(s.ownerOf, orderID)
}

func (s *Server) addressFor(orderID string) string {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()
	return s.ownerOf[orderID]
}
