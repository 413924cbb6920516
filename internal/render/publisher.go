package render

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// PublisherConfig holds configuration for the placement gRPC server.
type PublisherConfig struct {
	// ListenAddr is the address Start listens on (e.g. "localhost:50061").
	ListenAddr string

	// MaxClients caps concurrent streams. Zero means unlimited.
	MaxClients int

	// QueueSize is the depth of the broadcast queue and of each client
	// queue.
	QueueSize int
}

// DefaultPublisherConfig returns a default configuration.
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		ListenAddr: "localhost:50061",
		MaxClients: 8,
		QueueSize:  32,
	}
}

// Publisher streams every Output it is asked to draw to connected remote
// renderers. Draw never blocks the frame loop: when a queue is full the
// output is dropped and counted.
type Publisher struct {
	config   PublisherConfig
	server   *grpc.Server
	listener net.Listener

	outCh     chan *Output
	clients   map[string]*publisherClient
	clientsMu sync.RWMutex

	published   atomic.Uint64
	dropped     atomic.Uint64
	clientCount atomic.Int32

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

type publisherClient struct {
	id      string
	variant string
	ch      chan *Output
}

// NewPublisher creates a stopped Publisher.
func NewPublisher(cfg PublisherConfig) *Publisher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultPublisherConfig().QueueSize
	}
	return &Publisher{
		config:  cfg,
		outCh:   make(chan *Output, cfg.QueueSize),
		clients: make(map[string]*publisherClient),
		stopCh:  make(chan struct{}),
	}
}

// Start listens on the configured address and serves in the background.
func (p *Publisher) Start() error {
	lis, err := net.Listen("tcp", p.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	if err := p.Serve(lis); err != nil {
		lis.Close()
		return err
	}
	return nil
}

// Serve starts the gRPC server on lis in the background.
func (p *Publisher) Serve(lis net.Listener) error {
	if p.running.Swap(true) {
		return fmt.Errorf("publisher already running")
	}
	p.listener = lis
	p.server = grpc.NewServer()
	RegisterPlacementServer(p.server, p)

	p.wg.Add(2)
	go p.broadcastLoop()
	go func() {
		defer p.wg.Done()
		opsf("placement stream listening on %s", lis.Addr())
		if err := p.server.Serve(lis); err != nil && p.running.Load() {
			opsf("gRPC server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the listening address, or nil before Start.
func (p *Publisher) Addr() net.Addr {
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}

// Stop closes all streams and waits for the server to exit.
func (p *Publisher) Stop() {
	if !p.running.Swap(false) {
		return
	}
	close(p.stopCh)
	if p.server != nil {
		p.server.Stop()
	}
	p.wg.Wait()
	opsf("placement stream stopped (published=%d dropped=%d)", p.published.Load(), p.dropped.Load())
}

// Draw implements Sink.
func (p *Publisher) Draw(out *Output) error {
	if !p.running.Load() || out == nil {
		return nil
	}
	select {
	case p.outCh <- out.Clone():
		p.published.Add(1)
	default:
		n := p.dropped.Add(1)
		diagf("dropped output seq=%d, broadcast queue full (total dropped: %d)", out.Seq, n)
	}
	return nil
}

func (p *Publisher) broadcastLoop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case out := <-p.outCh:
			p.clientsMu.RLock()
			for _, c := range p.clients {
				if c.variant != "" && c.variant != out.VariantID {
					continue
				}
				select {
				case c.ch <- out:
				default:
					p.dropped.Add(1)
				}
			}
			p.clientsMu.RUnlock()
		}
	}
}

func (p *Publisher) addClient(variant string) (*publisherClient, error) {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()
	if p.config.MaxClients > 0 && len(p.clients) >= p.config.MaxClients {
		return nil, status.Errorf(codes.ResourceExhausted, "placement stream full (%d clients)", p.config.MaxClients)
	}
	c := &publisherClient{
		id:      uuid.NewString(),
		variant: variant,
		ch:      make(chan *Output, p.config.QueueSize),
	}
	p.clients[c.id] = c
	n := p.clientCount.Add(1)
	opsf("renderer connected: %s (total: %d)", c.id, n)
	return c, nil
}

func (p *Publisher) removeClient(id string) {
	p.clientsMu.Lock()
	_, ok := p.clients[id]
	delete(p.clients, id)
	p.clientsMu.Unlock()
	if ok {
		n := p.clientCount.Add(-1)
		opsf("renderer disconnected: %s (remaining: %d)", id, n)
	}
}

// StreamPlacements implements PlacementServer. The request may carry a
// "variant" string to receive only outputs for that variant.
func (p *Publisher) StreamPlacements(req *structpb.Struct, stream grpc.ServerStream) error {
	variant := req.GetFields()["variant"].GetStringValue()
	c, err := p.addClient(variant)
	if err != nil {
		return err
	}
	defer p.removeClient(c.id)

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case out := <-c.ch:
			msg, err := EncodeOutput(out)
			if err != nil {
				return status.Errorf(codes.Internal, "encode output: %v", err)
			}
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		}
	}
}

// PublisherStats contains publisher statistics.
type PublisherStats struct {
	Published uint64 `json:"published"`
	Dropped   uint64 `json:"dropped"`
	Clients   int32  `json:"clients"`
	Running   bool   `json:"running"`
}

// Stats returns current publisher statistics.
func (p *Publisher) Stats() PublisherStats {
	return PublisherStats{
		Published: p.published.Load(),
		Dropped:   p.dropped.Load(),
		Clients:   p.clientCount.Load(),
		Running:   p.running.Load(),
	}
}

// Subscription is a client-side placement stream.
type Subscription struct {
	stream grpc.ClientStream
}

// Subscribe opens a placement stream on cc. An empty variant receives
// every output.
func Subscribe(ctx context.Context, cc grpc.ClientConnInterface, variant string) (*Subscription, error) {
	stream, err := cc.NewStream(ctx, &placementServiceDesc.Streams[0], streamPlacementsMethod)
	if err != nil {
		return nil, err
	}
	req, err := structpb.NewStruct(map[string]interface{}{"variant": variant})
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &Subscription{stream: stream}, nil
}

// Recv blocks until the next output arrives.
func (s *Subscription) Recv() (*Output, error) {
	msg := new(structpb.Struct)
	if err := s.stream.RecvMsg(msg); err != nil {
		return nil, err
	}
	return DecodeOutput(msg)
}
