package fnhandlers

import (
	"errors"
	"fmt"

	"github.com/nerdworks/dealerai-backend/internal/platform/logger"
)

// DefaultHandlerID is used when an assistant record carries no handler id.
const DefaultHandlerID = "default"

var ErrUnknownFunction = errors.New("assistant requested an unregistered function")

// Handler executes tool calls an assistant run requires before it can
// continue. Implementations return a JSON-serializable result map.
type Handler interface {
	ProcessFunction(functionName string, args map[string]any, threadID string) (map[string]any, error)
}

// Registry maps handler ids (stored per assistant) to implementations.
type Registry struct {
	log      *logger.Logger
	handlers map[string]Handler
}

func NewRegistry(baseLog *logger.Logger) *Registry {
	r := &Registry{
		log:      baseLog.With("service", "FunctionHandlerRegistry"),
		handlers: map[string]Handler{},
	}
	r.Register(DefaultHandlerID, NewEchoHandler())
	r.Register(DealershipHandlerID, NewDealershipHandler())
	return r
}

func (r *Registry) Register(id string, h Handler) {
	r.handlers[id] = h
}

// Resolve returns the handler for id, falling back to the default handler for
// empty or unknown ids so a misconfigured assistant still gets its tool calls
// answered. Unknown ids are logged so the misconfiguration is diagnosable.
func (r *Registry) Resolve(id string) Handler {
	if id == "" {
		id = DefaultHandlerID
	}
	if h, ok := r.handlers[id]; ok {
		return h
	}
	r.log.Warn("unknown function handler id, falling back to default", "handler_id", id)
	return r.handlers[DefaultHandlerID]
}

// EchoHandler is the default: it acknowledges any function call with the
// arguments it received, which keeps runs from stalling when no domain
// handler is configured.
type EchoHandler struct{}

func NewEchoHandler() *EchoHandler { return &EchoHandler{} }

func (h *EchoHandler) ProcessFunction(functionName string, args map[string]any, threadID string) (map[string]any, error) {
	return map[string]any{
		"status":   "ok",
		"function": functionName,
		"thread":   threadID,
		"args":     args,
		"note":     fmt.Sprintf("no handler registered for %s; echoing arguments", functionName),
	}, nil
}
