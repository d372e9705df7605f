// Package ofctlengine fulfils intents with a single model round trip whose
// tool calls are executed against the controller's ofctl REST API.
//
// DISPATCH:
// The model receives the intent, the declarer and the registered network
// state together with four flow tools (add_rule, delete_rule_strict,
// modify_rule_strict, modify_all_matching_rules). Each tool call in the reply
// is executed exactly once, in order. Results are not fed back to the model.
//
// OPERATIONS:
// Every tool call becomes one operation string in the result, including calls
// the controller rejected and calls with malformed arguments, so the intent
// history shows what was attempted. Only a failed chat round trip fails the
// intent.
package ofctlengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/concave-dev/otto/internal/intentpool"
	"github.com/concave-dev/otto/internal/intents"
	"github.com/concave-dev/otto/internal/logging"
	"github.com/concave-dev/otto/internal/netstate"
	"github.com/concave-dev/otto/internal/ofctl"
)

// ErrModelCannotChat is returned when a processor's model has no chat API.
var ErrModelCannotChat = errors.New("model does not support chat")

// Chatter is a model that can answer with tool calls.
type Chatter interface {
	Chat(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error)
}

// FlowClient issues flow-entry mutations.
type FlowClient interface {
	AddFlow(ctx context.Context, mod ofctl.FlowMod) (int, error)
	DeleteFlowStrict(ctx context.Context, mod ofctl.FlowMod) (int, error)
	ModifyFlowStrict(ctx context.Context, mod ofctl.FlowMod) (int, error)
	ModifyFlows(ctx context.Context, mod ofctl.FlowMod) (int, error)
}

// StateReader provides the registered network state for the prompt.
type StateReader interface {
	DumpAll(ctx context.Context) (map[string]netstate.Record, error)
}

// Engine implements intents.Engine.
type Engine struct {
	flows FlowClient
	state StateReader
}

// New creates an engine. state may be nil, in which case the prompt carries
// no network state.
func New(flows FlowClient, state StateReader) *Engine {
	return &Engine{flows: flows, state: state}
}

var _ intents.Engine = (*Engine)(nil)

// Fulfil asks proc's model for flow operations and executes them.
func (e *Engine) Fulfil(ctx context.Context, proc *intentpool.Processor, intent string) (intents.Result, error) {
	chatter, ok := proc.Model.(Chatter)
	if !ok {
		return intents.Result{}, fmt.Errorf("%w: %s", ErrModelCannotChat, proc.ModelIdentity())
	}

	prompt, err := e.systemPrompt(ctx, proc.Context())
	if err != nil {
		return intents.Result{}, err
	}

	reply, err := chatter.Chat(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompt},
		{Role: openai.ChatMessageRoleUser, Content: intent},
	}, Tools())
	if err != nil {
		return intents.Result{}, err
	}

	ops := make([]string, 0, len(reply.ToolCalls))
	for _, call := range reply.ToolCalls {
		ops = append(ops, e.dispatch(ctx, call))
	}

	logging.Debug("Processor %s produced %d operations", proc.Name, len(ops))
	return intents.Result{Message: reply.Content, Operations: ops}, nil
}

func (e *Engine) systemPrompt(ctx context.Context, declarer string) (string, error) {
	var b strings.Builder
	b.WriteString("You configure an OpenFlow network through a Ryu controller. ")
	b.WriteString("Translate the operator's intent into flow rule tool calls. ")
	b.WriteString("Switch ids are decimal datapath ids. An empty actions list drops packets; ")
	b.WriteString(`output on a port with [{"type":"OUTPUT","port":2}].`)
	if declarer != "" {
		fmt.Fprintf(&b, "\nThe intent is declared by %q.", declarer)
	}

	if e.state == nil {
		return b.String(), nil
	}
	records, err := e.state.DumpAll(ctx)
	if err != nil {
		return "", fmt.Errorf("read network state: %w", err)
	}
	state, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode network state: %w", err)
	}
	b.WriteString("\nCurrent network state: ")
	b.Write(state)
	return b.String(), nil
}

// flowArgs are the arguments shared by every flow tool.
type flowArgs struct {
	SwitchID string         `json:"switch_id"`
	TableID  int            `json:"table_id"`
	Match    map[string]any `json:"match"`
	Actions  []any          `json:"actions"`
	Priority *int           `json:"priority"`
}

// dispatch executes one tool call and describes it.
func (e *Engine) dispatch(ctx context.Context, call openai.ToolCall) string {
	name := call.Function.Name

	var run func(context.Context, ofctl.FlowMod) (int, error)
	switch name {
	case ToolAddRule:
		run = e.flows.AddFlow
	case ToolDeleteRuleStrict:
		run = e.flows.DeleteFlowStrict
	case ToolModifyRuleStrict:
		run = e.flows.ModifyFlowStrict
	case ToolModifyAllMatching:
		run = e.flows.ModifyFlows
	default:
		logging.Warn("Model requested unknown tool %q", name)
		return fmt.Sprintf("%s: rejected, unknown tool", name)
	}

	var args flowArgs
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		logging.Warn("Model sent malformed %s arguments: %v", name, err)
		return fmt.Sprintf("%s: rejected, malformed arguments", name)
	}
	if args.SwitchID == "" {
		return fmt.Sprintf("%s: rejected, missing switch_id", name)
	}

	mod := ofctl.NewFlowMod(args.SwitchID, args.TableID, args.Match, args.Actions)
	if args.Priority != nil {
		mod.Priority = *args.Priority
	}

	desc := fmt.Sprintf("%s(switch=%s, table=%d, priority=%d)", name, mod.DPID, mod.TableID, mod.Priority)
	status, err := run(ctx, mod)
	if err != nil {
		logging.Warn("Operation %s failed: %v", desc, err)
		if status == 0 {
			return desc + ": failed, controller unreachable"
		}
		return fmt.Sprintf("%s: failed with status %d", desc, status)
	}
	return fmt.Sprintf("%s: status %d", desc, status)
}
