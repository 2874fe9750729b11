// Package workerbus implements the external worker pool of §5.2: the
// orchestrator MAY offload Ed25519 sub-proof generation to workers
// communicating over a subject-based message bus, tracking outstanding
// requests by signature_index and folding replies into the growing
// recursive proof in index order.
//
// Adapted from btcq-org-qbtc/bifrost/p2p/pubsub.go's PubSubService: the same
// libp2p-pubsub gossip-topic plumbing (NewGossipSub, topic.Join,
// sub.Next(ctx), topic.Publish), zerolog logging, and
// sync.WaitGroup/stopchan lifecycle, adapted from that example's raw
// protobuf gossip contract to this package's JSON request/reply shape.
package workerbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/rs/zerolog"
)

// Request is the JSON payload published for one outstanding Ed25519
// sub-proof request (§5.2).
type Request struct {
	Message         []byte `json:"message"`
	Approval        []byte `json:"approval"` // 64 bytes
	ValidatorPubkey []byte `json:"validator_pubkey"` // 32 bytes
	SignatureIndex  uint32 `json:"signature_index"`
}

// Reply is the JSON payload a worker publishes back for a Request.
type Reply struct {
	ProofBytes       []byte `json:"proof_bytes"`
	VerifierDataBytes []byte `json:"verifier_data_bytes"`
	SignatureIndex   uint32 `json:"signature_index"`
}

// Bus is the orchestrator side of the worker pool: it publishes Requests on
// a topic and collects Replies, buffering them by signature_index so the
// caller can fold them into the recursive aggregate in deterministic index
// order regardless of arrival order.
//
// §9 explicitly flags the source's fold-in-arrival-order behaviour as a
// likely bug ("the orchestrator MUST buffer arriving proofs in an
// index-keyed map and fold them into the recursive aggregate in index
// order"); Bus enforces that by construction — Drain never returns a reply
// out of index order.
type Bus struct {
	pubsub *pubsub.PubSub
	topic  *pubsub.Topic
	logger zerolog.Logger

	mu       sync.Mutex
	replies  map[uint32]Reply
	expected map[uint32]bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New joins topicName on the given libp2p host.
func New(ctx context.Context, h host.Host, topicName string, logger zerolog.Logger) (*Bus, error) {
	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("workerbus: new gossipsub: %w", err)
	}
	topic, err := ps.Join(topicName)
	if err != nil {
		return nil, fmt.Errorf("workerbus: join topic %q: %w", topicName, err)
	}
	return &Bus{
		pubsub:   ps,
		topic:    topic,
		logger:   logger.With().Str("component", "workerbus").Logger(),
		replies:  make(map[uint32]Reply),
		expected: make(map[uint32]bool),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start subscribes to the topic and begins collecting replies in the
// background.
func (b *Bus) Start() error {
	sub, err := b.topic.Subscribe()
	if err != nil {
		return fmt.Errorf("workerbus: subscribe: %w", err)
	}
	b.wg.Add(1)
	go b.collect(sub)
	return nil
}

func (b *Bus) collect(sub *pubsub.Subscription) {
	defer b.wg.Done()
	for {
		select {
		case <-b.stopCh:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		msg, err := sub.Next(ctx)
		cancel()
		if err != nil {
			b.logger.Debug().Err(err).Msg("subscription next returned error")
			continue
		}

		var reply Reply
		if err := json.Unmarshal(msg.GetData(), &reply); err != nil {
			b.logger.Warn().Err(err).Msg("discarding malformed reply")
			continue
		}

		b.mu.Lock()
		if b.expected[reply.SignatureIndex] {
			// Replies for unknown indices are discarded (§5.2); only a
			// still-outstanding request accepts its reply.
			b.replies[reply.SignatureIndex] = reply
			delete(b.expected, reply.SignatureIndex)
		} else {
			b.logger.Debug().Uint32("signature_index", reply.SignatureIndex).Msg("discarding reply for unknown/already-filled index")
		}
		b.mu.Unlock()
	}
}

// Request publishes a batch of sub-proof requests and marks their indices
// as outstanding.
func (b *Bus) Request(ctx context.Context, reqs []Request) error {
	b.mu.Lock()
	for _, r := range reqs {
		b.expected[r.SignatureIndex] = true
	}
	b.mu.Unlock()

	for _, r := range reqs {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("workerbus: marshal request %d: %w", r.SignatureIndex, err)
		}
		if err := b.topic.Publish(ctx, payload); err != nil {
			return fmt.Errorf("workerbus: publish request %d: %w", r.SignatureIndex, err)
		}
	}
	return nil
}

// Drain blocks until a reply has arrived for every index in 0..n-1 (the
// request count), then returns them in that index order. There is no
// prescribed timeout (§5.2): a missing reply stalls the aggregate. Callers
// that want a deadline should derive ctx accordingly; ctx.Err() is surfaced
// as an orchestration error per §7.
func (b *Bus) Drain(ctx context.Context, n int) ([]Reply, error) {
	out := make([]Reply, n)
	for {
		b.mu.Lock()
		complete := true
		for i := 0; i < n; i++ {
			r, ok := b.replies[uint32(i)]
			if !ok {
				complete = false
				break
			}
			out[i] = r
		}
		b.mu.Unlock()
		if complete {
			return out, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("workerbus: drain aborted: %w", ctx.Err())
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// Stop tears down the subscription goroutine and closes the topic.
func (b *Bus) Stop() error {
	close(b.stopCh)
	b.wg.Wait()
	if b.topic != nil {
		return b.topic.Close()
	}
	return nil
}
