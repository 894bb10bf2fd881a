package acp

// Tap observes every envelope a connection sends or receives, before any
// typed decode happens. It exists for logging/recording harnesses (e.g. a
// session transcript recorder) that want a read-only view of the wire
// traffic without participating in the dispatch path.
type Tap interface {
	Incoming(env *envelope)
	Outgoing(env *envelope)
}

type noopTap struct{}

func (noopTap) Incoming(*envelope) {}
func (noopTap) Outgoing(*envelope) {}

// FuncTap adapts two plain functions into a Tap, for callers that only care
// about one direction.
type FuncTap struct {
	OnIncoming func(method string, id *int32)
	OnOutgoing func(method string, id *int32)
}

func (f FuncTap) Incoming(env *envelope) {
	if f.OnIncoming != nil {
		f.OnIncoming(env.Method, env.ID)
	}
}

func (f FuncTap) Outgoing(env *envelope) {
	if f.OnOutgoing != nil {
		f.OnOutgoing(env.Method, env.ID)
	}
}
