// Package dispatcher routes a classified intent to its tool and walks the
// request through the message lifecycle. Every outcome is a terminal state
// with a uniform result; tool panics are contained here.
package dispatcher

import (
	"context"
	"fmt"
	"log"

	"evodata/intent"
	"evodata/tools"
)

// State is the lifecycle position of one message.
type State string

const (
	StateReceived   State = "RECEIVED"
	StateClassified State = "CLASSIFIED"
	StateDispatched State = "DISPATCHED"
	StateResponded  State = "RESPONDED"
	StateFailed     State = "FAILED"
)

// Response is the terminal record of one dispatch: the state the message
// ended in and the tool result that got it there.
type Response struct {
	State  State
	Result tools.ToolResult
}

// Dispatcher resolves intents against the tool registry.
type Dispatcher struct {
	registry *tools.Registry
}

func New(registry *tools.Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch runs the intent's tool invocation. RESPONDED means a tool was
// invoked and returned an envelope, success or not; FAILED means the message
// never reached a tool.
func (d *Dispatcher) Dispatch(ctx context.Context, in *intent.Intent) Response {
	if in == nil || in.TargetTool == "" {
		return Response{
			State: StateFailed,
			Result: tools.Fail(tools.KindClassificationFailed,
				"the message could not be routed to a capability"),
		}
	}

	tool, ok := d.registry.Get(in.TargetTool)
	if !ok {
		log.Printf("[Dispatcher] unknown tool=%s intent=%s", in.TargetTool, in.Name)
		return Response{
			State: StateFailed,
			Result: tools.Fail(tools.KindCapabilityNotFound,
				fmt.Sprintf("no capability registered as %q", in.TargetTool)),
		}
	}

	log.Printf("[Dispatcher] dispatch intent=%s tool=%s op=%s", in.Name, in.TargetTool, in.Operation)
	result := d.invoke(ctx, tool, in)
	return Response{State: StateResponded, Result: result}
}

// invoke shields the lifecycle from a panicking tool: the panic becomes an
// error envelope and the message still terminates in RESPONDED.
func (d *Dispatcher) invoke(ctx context.Context, tool tools.Tool, in *intent.Intent) (result tools.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Dispatcher] tool panic tool=%s op=%s panic=%v", tool.Name(), in.Operation, r)
			result = tools.Fail(tools.KindToolInternalError,
				"the capability failed unexpectedly")
		}
	}()
	return tool.Execute(ctx, in.Operation, in.Params)
}
