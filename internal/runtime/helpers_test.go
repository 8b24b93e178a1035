package runtime

import (
	"context"
)

// fakeSource is a Source double recording the blueprint it receives.
type fakeSource struct {
	name    string
	app     string
	appErr  error
	appHits int
	spec    ProcessSpec
	specErr error
	gotBP   *Blueprint
}

func (f *fakeSource) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeSource) App() (string, error) {
	f.appHits++
	return f.app, f.appErr
}

func (f *fakeSource) SubscriberSpec(bp *Blueprint) (ProcessSpec, error) {
	f.gotBP = bp
	if f.specErr != nil {
		return ProcessSpec{}, f.specErr
	}
	spec := f.spec
	if spec.ID == "" {
		spec.ID = bp.ID
	}
	if spec.Run == nil {
		spec.Run = func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		}
	}
	return spec, nil
}

// configSubscriber is a Subscriber double declaring a fixed config.
type configSubscriber struct {
	cfg Config
}

func (s *configSubscriber) Config() Config {
	return s.cfg
}

func (s *configSubscriber) Init(_ context.Context, bp *Blueprint) (State, error) {
	if bp == nil {
		return nil, nil
	}
	return bp.SubscriberOpts, nil
}

func (s *configSubscriber) HandleBatch(context.Context, *Batch, State) error {
	return nil
}

// scriptedHandler records handled payloads and fails on configured ones.
type scriptedHandler struct {
	handled []string
	failOn  map[string]error
}

func (h *scriptedHandler) HandleMessage(_ context.Context, _ string, msg Message, _ State) error {
	payload := string(msg.Data)
	h.handled = append(h.handled, payload)
	if err, ok := h.failOn[payload]; ok {
		return err
	}
	return nil
}

// recoveringHandler extends scriptedHandler with an error recovery hook.
type recoveringHandler struct {
	scriptedHandler
	recovered   []string
	recoverFail map[string]error
}

func (h *recoveringHandler) HandleError(_ context.Context, _ error, _ string, msg Message, _ State) error {
	payload := string(msg.Data)
	h.recovered = append(h.recovered, payload)
	if err, ok := h.recoverFail[payload]; ok {
		return err
	}
	return nil
}

func textBatch(topic string, payloads ...string) *Batch {
	msgs := make([]Message, 0, len(payloads))
	for _, p := range payloads {
		msgs = append(msgs, Message{Data: []byte(p)})
	}
	return &Batch{Topic: topic, Messages: msgs}
}
