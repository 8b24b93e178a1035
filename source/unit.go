package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"google.golang.org/protobuf/proto"

	"github.com/alexandra-wolf/gazet/internal/runtime"
	gzerrors "github.com/alexandra-wolf/gazet/internal/runtime/errors"
	metadatapkg "github.com/alexandra-wolf/gazet/internal/runtime/metadata"
)

// Start option keys units read from a blueprint's start_opts. Everything else
// in start_opts is passed through untouched.
const (
	// StartOptTopics lists the topics the subscriber consumes. Required.
	StartOptTopics = "topics"
	// StartOptBatchSize caps how many messages are collected per batch.
	StartOptBatchSize = "batch_size"
	// StartOptFlushInterval bounds how long a partial batch may wait before
	// being dispatched.
	StartOptFlushInterval = "flush_interval"
)

// Unit batching defaults, used when neither the unit nor the blueprint's
// start_opts say otherwise.
const (
	DefaultBatchSize     = 10
	DefaultFlushInterval = 250 * time.Millisecond
)

// Unit is a message source backed by a registered transport system. It
// satisfies the runtime Source contract: it names the owning app for
// blueprint resolution and turns resolved blueprints into supervisable
// subscriber processes. One unit owns one transport connection, shared by its
// subscriber processes and publish helpers.
type Unit struct {
	name          string
	app           string
	endpoints     Endpoints
	registry      *Registry
	logger        watermill.LoggerAdapter
	middlewares   []runtime.Middleware
	hooks         *runtime.DispatchHooks
	metrics       *runtime.DispatchMetrics
	batchSize     int
	flushInterval time.Duration
	noDefaultMW   bool

	mu     sync.Mutex
	tr     Transport
	built  bool
	closed bool
}

// UnitOption customises a Unit.
type UnitOption func(*Unit)

// WithApp sets the owning application. Blueprints without an explicit app
// resolve it from here.
func WithApp(app string) UnitOption {
	return func(u *Unit) {
		u.app = app
	}
}

// WithEndpoints sets the transport system and its endpoint values.
func WithEndpoints(ep Endpoints) UnitOption {
	return func(u *Unit) {
		u.endpoints = ep
	}
}

// WithRegistry replaces the transport registry consulted when connecting.
func WithRegistry(reg *Registry) UnitOption {
	return func(u *Unit) {
		if reg != nil {
			u.registry = reg
		}
	}
}

// WithLogger sets the unit's logger. The default is silent.
func WithLogger(logger watermill.LoggerAdapter) UnitOption {
	return func(u *Unit) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// WithMiddleware appends batch middleware applied around every subscriber
// this unit runs. The first middleware is outermost.
func WithMiddleware(mw ...runtime.Middleware) UnitOption {
	return func(u *Unit) {
		u.middlewares = append(u.middlewares, mw...)
	}
}

// WithHooks fires the given dispatch hooks around every batch.
func WithHooks(hooks runtime.DispatchHooks) UnitOption {
	return func(u *Unit) {
		u.hooks = &hooks
	}
}

// WithMetrics records every dispatched batch to m. The collectors are
// registered when the first subscriber process starts.
func WithMetrics(m *runtime.DispatchMetrics) UnitOption {
	return func(u *Unit) {
		u.metrics = m
	}
}

// WithBatchDefaults sets the unit-level batching policy used when a
// blueprint's start_opts do not override it.
func WithBatchDefaults(size int, flush time.Duration) UnitOption {
	return func(u *Unit) {
		if size > 0 {
			u.batchSize = size
		}
		if flush > 0 {
			u.flushInterval = flush
		}
	}
}

// WithoutDefaultMiddlewares drops the built-in logging and panic-recovery
// middleware, leaving only what WithMiddleware added.
func WithoutDefaultMiddlewares() UnitOption {
	return func(u *Unit) {
		u.noDefaultMW = true
	}
}

// NewUnit creates a source unit. Without options it connects to the
// in-memory channel transport, logs nothing, and batches with the package
// defaults.
func NewUnit(name string, opts ...UnitOption) *Unit {
	u := &Unit{
		name:          name,
		endpoints:     Endpoints{System: ChannelCapabilities.Name},
		registry:      DefaultRegistry,
		logger:        watermill.NopLogger{},
		batchSize:     DefaultBatchSize,
		flushInterval: DefaultFlushInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}
	return u
}

// Name returns the unit's name.
func (u *Unit) Name() string {
	return u.name
}

// App returns the owning application, or an error when none was configured.
// Blueprint resolution calls this to default a subscriber's app.
func (u *Unit) App() (string, error) {
	if u.app == "" {
		return "", fmt.Errorf("gazet: source %q has no app configured", u.name)
	}
	return u.app, nil
}

// System returns the transport system name the unit connects to.
func (u *Unit) System() string {
	return u.endpoints.GetSystem()
}

// Capabilities returns the capability record of the unit's transport system.
func (u *Unit) Capabilities() Capabilities {
	return u.registry.GetCapabilities(u.System())
}

// Connect returns the unit's transport, building it on first use. The
// transport is shared: subscriber processes and publish helpers all use the
// same connection.
func (u *Unit) Connect(ctx context.Context) (Transport, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return Transport{}, fmt.Errorf("gazet: source %q is closed", u.name)
	}
	if u.built {
		return u.tr, nil
	}

	tr, err := u.registry.Build(ctx, u.endpoints, u.logger)
	if err != nil {
		return Transport{}, fmt.Errorf("connect source %q: %w", u.name, err)
	}
	u.tr = tr
	u.built = true
	u.logger.Debug("Source connected", watermill.LogFields{
		"source": u.name,
		"system": u.System(),
	})
	return tr, nil
}

// Close shuts down the transport. Subscriber processes running on this unit
// stop once their subscription channels drain.
func (u *Unit) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return nil
	}
	u.closed = true
	if !u.built {
		return nil
	}

	var errs []error
	if u.tr.Subscriber != nil {
		if err := u.tr.Subscriber.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	// Channel transports reuse one object for both halves; closing it twice
	// must stay safe.
	if u.tr.Publisher != nil && any(u.tr.Publisher) != any(u.tr.Subscriber) {
		if err := u.tr.Publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SubscriberSpec turns a resolved blueprint into the supervisable process
// that consumes this unit. The blueprint's start_opts name the topics and may
// override the unit's batching policy.
func (u *Unit) SubscriberSpec(bp *runtime.Blueprint) (runtime.ProcessSpec, error) {
	if bp == nil {
		return runtime.ProcessSpec{}, gzerrors.ErrNilBlueprint
	}
	if bp.Module == nil {
		return runtime.ProcessSpec{}, gzerrors.ErrModuleRequired
	}
	plan, err := u.dispatchPlan(bp)
	if err != nil {
		return runtime.ProcessSpec{}, err
	}

	id := bp.ID
	if id == "" {
		id = fmt.Sprintf("%T", bp.Module)
	}
	handler := runtime.Chain(runtime.HandleBatchFunc(bp.Module), u.dispatchMiddlewares()...)

	return runtime.ProcessSpec{
		ID:      id,
		Restart: runtime.RestartPermanent,
		Run: func(ctx context.Context) error {
			return u.runSubscriber(ctx, bp, plan, handler)
		},
	}, nil
}

// dispatchPlan reads the batching policy for one subscriber process from its
// blueprint, falling back to the unit defaults.
type dispatchPlan struct {
	topics        []string
	batchSize     int
	flushInterval time.Duration
}

func (u *Unit) dispatchPlan(bp *runtime.Blueprint) (dispatchPlan, error) {
	topics, ok := bp.StartOpts.Strings(StartOptTopics)
	if !ok || len(topics) == 0 {
		return dispatchPlan{}, fmt.Errorf("%w (source %q)", gzerrors.ErrNoTopics, u.name)
	}

	plan := dispatchPlan{
		topics:        topics,
		batchSize:     u.batchSize,
		flushInterval: u.flushInterval,
	}
	if size, ok := bp.StartOpts.Int(StartOptBatchSize); ok && size > 0 {
		plan.batchSize = size
	}
	if flush, ok := bp.StartOpts.Duration(StartOptFlushInterval); ok && flush > 0 {
		plan.flushInterval = flush
	}
	if plan.batchSize < 1 {
		plan.batchSize = 1
	}
	if plan.flushInterval <= 0 {
		plan.flushInterval = DefaultFlushInterval
	}
	return plan, nil
}

func (u *Unit) dispatchMiddlewares() []runtime.Middleware {
	mws := make([]runtime.Middleware, 0, len(u.middlewares)+4)
	mws = append(mws, u.middlewares...)
	if u.hooks != nil {
		mws = append(mws, runtime.HooksMiddleware(*u.hooks))
	}
	if u.metrics != nil {
		mws = append(mws, runtime.MetricsMiddleware(u.metrics))
	}
	if !u.noDefaultMW {
		// Recoverer sits innermost so a panicking handler surfaces as a batch
		// error to the hooks, metrics and logging wrapped around it.
		mws = append(mws, runtime.LoggingMiddleware(u.logger), runtime.RecovererMiddleware())
	}
	return mws
}

// delivery carries the raw messages of one collected batch so the dispatcher
// can still ack or nack them individually.
type delivery struct {
	topic string
	msgs  []*message.Message
}

// runSubscriber is the body of a subscriber process: initialise the module,
// subscribe to every topic, collect messages per topic into batches, and feed
// one sequential dispatcher. It returns when ctx is cancelled or every
// subscription has closed.
func (u *Unit) runSubscriber(ctx context.Context, bp *runtime.Blueprint, plan dispatchPlan, handler runtime.BatchHandlerFunc) error {
	tr, err := u.Connect(ctx)
	if err != nil {
		return err
	}

	state, err := bp.Module.Init(ctx, bp)
	if err != nil {
		return fmt.Errorf("init subscriber %q: %w", bp.ID, err)
	}

	if u.metrics != nil {
		if err := u.metrics.Register(); err != nil {
			u.logger.Error("Failed to register dispatch metrics", err, nil)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	deliveries := make(chan delivery)
	var collectors sync.WaitGroup
	for _, topic := range plan.topics {
		incoming, err := tr.Subscriber.Subscribe(runCtx, topic)
		if err != nil {
			cancel()
			collectors.Wait()
			return fmt.Errorf("subscribe to %q on source %q: %w", topic, u.name, err)
		}
		collectors.Add(1)
		go func(topic string, incoming <-chan *message.Message) {
			defer collectors.Done()
			u.collect(runCtx, topic, incoming, plan, deliveries)
		}(topic, incoming)
	}
	go func() {
		collectors.Wait()
		close(deliveries)
	}()

	u.logger.Info("Subscriber running", watermill.LogFields{
		"source":         u.name,
		"subscriber":     bp.ID,
		"topics":         fmt.Sprintf("%v", plan.topics),
		"batch_size":     plan.batchSize,
		"flush_interval": plan.flushInterval.String(),
	})

	// One dispatcher per process keeps batches strictly sequential, which the
	// halt-on-unhandled-error dispatch semantics depend on.
	for d := range deliveries {
		u.deliver(runCtx, handler, d, state)
	}
	return nil
}

// collect accumulates messages from one topic until the batch is full or the
// flush interval elapses, then hands the batch to the dispatcher. Messages
// still pending at shutdown stay unacked for the transport to redeliver.
func (u *Unit) collect(ctx context.Context, topic string, incoming <-chan *message.Message, plan dispatchPlan, out chan<- delivery) {
	pending := make([]*message.Message, 0, plan.batchSize)
	ticker := time.NewTicker(plan.flushInterval)
	defer ticker.Stop()

	flush := func() bool {
		if len(pending) == 0 {
			return true
		}
		select {
		case out <- delivery{topic: topic, msgs: pending}:
			pending = make([]*message.Message, 0, plan.batchSize)
			ticker.Reset(plan.flushInterval)
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-incoming:
			if !ok {
				flush()
				return
			}
			pending = append(pending, msg)
			if len(pending) >= plan.batchSize {
				if !flush() {
					return
				}
			}
		case <-ticker.C:
			if !flush() {
				return
			}
		}
	}
}

// deliver dispatches one collected batch and settles its deliveries: success
// acks every message, failure nacks every message. Redelivery after a nack is
// transport policy, not gazet's.
func (u *Unit) deliver(ctx context.Context, handler runtime.BatchHandlerFunc, d delivery, state runtime.State) {
	batch, err := runtime.BatchFromWatermill(d.topic, d.msgs)
	if err != nil {
		return
	}

	if err := handler(ctx, batch, state); err != nil {
		u.logger.Error("Batch failed, nacking deliveries", err, watermill.LogFields{
			"source": u.name,
			"topic":  d.topic,
			"size":   len(d.msgs),
		})
		for _, msg := range d.msgs {
			msg.Nack()
		}
		return
	}
	for _, msg := range d.msgs {
		msg.Ack()
	}
}

// Publish sends prepared messages to topic through the unit's transport.
func (u *Unit) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	tr, err := u.Connect(ctx)
	if err != nil {
		return err
	}
	return runtime.Publish(ctx, tr.Publisher, topic, msgs...)
}

// PublishJSON marshals payload to JSON and publishes it to topic, stamping
// the unit's identity into the metadata.
func (u *Unit) PublishJSON(ctx context.Context, topic string, payload any, md metadatapkg.Metadata) error {
	tr, err := u.Connect(ctx)
	if err != nil {
		return err
	}
	return runtime.PublishJSON(ctx, tr.Publisher, topic, payload, u.stamp(md))
}

// PublishProto marshals event with protojson and publishes it to topic,
// stamping the unit's identity into the metadata.
func (u *Unit) PublishProto(ctx context.Context, topic string, event proto.Message, md metadatapkg.Metadata) error {
	tr, err := u.Connect(ctx)
	if err != nil {
		return err
	}
	return runtime.PublishProto(ctx, tr.Publisher, topic, event, u.stamp(md))
}

// stamp records which unit (and app) a message was published through.
func (u *Unit) stamp(md metadatapkg.Metadata) metadatapkg.Metadata {
	md = md.With(metadatapkg.KeySource, u.name)
	if u.app != "" {
		md = md.With(metadatapkg.KeyApp, u.app)
	}
	return md
}
