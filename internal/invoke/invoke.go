// Package invoke implements the invocation adapter (C6): it wraps a
// typed Go callable as a JSON-RPC-addressable tool or prompt handler,
// classifying each parameter as a context injection or a data binding,
// publishing a JSON Schema for the data parameters, marshalling the
// callable's return value into MCP content, and mapping callable
// failures to tool-level errors rather than protocol errors (spec.md
// §4.6).
package invoke

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/modelcontextprotocol/go-mcpserver/internal/content"
	"github.com/modelcontextprotocol/go-mcpserver/internal/jsonrpc"
	"github.com/modelcontextprotocol/go-mcpserver/internal/mcpctx"
)

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	rcType  = reflect.TypeOf(mcpctx.RequestContext{})
)

// Options configures Adapt. A single Adapted value may be invoked as
// either a tool (InvokeTool) or a prompt (InvokePrompt); callers pick
// whichever matches where the callable is registered.
type Options struct {
	// NewTarget, if set, is called once per invocation to construct a
	// fresh receiver, published to the callable's RequestContext
	// resolver under the "target" key. If the constructed value
	// implements Disposer, it is closed on the invocation's exit path
	// (spec.md §4.6 "Resource discipline"). Leave nil for callables
	// bound to a shared, non-disposed receiver.
	NewTarget func() (any, error)
	// OnFailure, if set, receives the callable's error for logging. The
	// peer only ever sees the generic message built from name.
	OnFailure func(name string, err error)
}

// Adapted is a precomputed binding for one callable: its parameter
// classification, JSON Schema, and reflect.Value ready to invoke.
type Adapted struct {
	name       string
	fnValue    reflect.Value
	fnType     reflect.Type
	ctxIndex   int
	rcIndex    int
	dataIndex  int
	dataType   reflect.Type
	fields     []fieldDescriptor
	schema     json.RawMessage
	newTarget  func() (any, error)
	onFailure  func(name string, err error)
}

// Adapt classifies fn's parameters, builds its input schema, and
// returns a ready-to-call Adapted. fn must be a function taking any
// combination of context.Context, mcpctx.RequestContext, and at most
// one struct (or *struct) data parameter, and returning a (result,
// error) pair whose result may be of any type.
func Adapt(name string, fn any, opts Options) (*Adapted, error) {
	if fn == nil {
		return nil, errNilFunc
	}
	fnValue := reflect.ValueOf(fn)
	fnType := fnValue.Type()
	if fnType.Kind() != reflect.Func {
		return nil, errNilFunc
	}
	if fnType.NumOut() != 2 || !fnType.Out(1).Implements(reflect.TypeOf((*error)(nil)).Elem()) {
		return nil, errBadReturnShape
	}

	a := &Adapted{
		name:      name,
		fnValue:   fnValue,
		fnType:    fnType,
		ctxIndex:  -1,
		rcIndex:   -1,
		dataIndex: -1,
		newTarget: opts.NewTarget,
		onFailure: opts.OnFailure,
	}

	for i := 0; i < fnType.NumIn(); i++ {
		in := fnType.In(i)
		switch {
		case in == ctxType:
			a.ctxIndex = i
		case in == rcType:
			a.rcIndex = i
		default:
			if a.dataIndex != -1 {
				return nil, errMultipleDataParams
			}
			a.dataIndex = i
			a.dataType = in
		}
	}

	if a.dataIndex != -1 {
		schema, fields, err := buildSchema(a.dataType)
		if err != nil {
			return nil, err
		}
		a.schema = schema
		a.fields = fields
	} else {
		a.schema = json.RawMessage(`{"type":"object","properties":{}}`)
	}

	return a, nil
}

// InputSchema returns the JSON Schema fragment describing only the
// data parameters, published as the tool/prompt's inputSchema.
func (a *Adapted) InputSchema() json.RawMessage { return a.schema }

// bindArgs validates required fields and unmarshals arguments into a
// fresh instance of the data parameter's type, returning a settable
// reflect.Value of that exact type (not a pointer).
func (a *Adapted) bindArgs(arguments json.RawMessage) (reflect.Value, error) {
	structType := a.dataType
	isPointer := structType.Kind() == reflect.Ptr
	if isPointer {
		structType = structType.Elem()
	}

	if len(a.fields) > 0 {
		present := map[string]json.RawMessage{}
		if len(arguments) > 0 {
			if err := json.Unmarshal(arguments, &present); err != nil {
				return reflect.Value{}, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "arguments must be a JSON object: "+err.Error())
			}
		}
		for _, f := range a.fields {
			if f.required {
				if _, ok := present[f.jsonName]; !ok {
					return reflect.Value{}, jsonrpc.NewError(jsonrpc.CodeInvalidParams, fmt.Sprintf("missing required parameter %q", f.jsonName))
				}
			}
		}
	}

	ptr := reflect.New(structType)
	if len(arguments) > 0 {
		if err := json.Unmarshal(arguments, ptr.Interface()); err != nil {
			return reflect.Value{}, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "invalid arguments: "+err.Error())
		}
	}
	if isPointer {
		return ptr, nil
	}
	return ptr.Elem(), nil
}

// call runs the callable once, returning its raw (result, error) pair.
// A panic inside the callable is recovered and surfaced as an error, so
// it is mapped the same way any other callable failure is (spec.md
// §4.6 "Failure mapping").
func (a *Adapted) call(ctx context.Context, rc mcpctx.RequestContext, arguments json.RawMessage) (result any, callErr error) {
	args := make([]reflect.Value, a.fnType.NumIn())

	if a.dataIndex != -1 {
		bound, err := a.bindArgs(arguments)
		if err != nil {
			return nil, err
		}
		args[a.dataIndex] = bound
	}

	var target any
	if a.newTarget != nil {
		t, err := a.newTarget()
		if err != nil {
			return nil, jsonrpc.NewError(jsonrpc.CodeInternalError, "failed to construct invocation target: "+err.Error())
		}
		target = t
		defer func() {
			if d, ok := target.(Disposer); ok {
				_ = d.Close()
			}
		}()
		rc.Resolver = targetResolver{target: target, next: rc.Resolver}
	}

	if a.ctxIndex != -1 {
		args[a.ctxIndex] = reflect.ValueOf(ctx)
	}
	if a.rcIndex != -1 {
		args[a.rcIndex] = reflect.ValueOf(rc)
	}

	defer func() {
		if r := recover(); r != nil {
			callErr = fmt.Errorf("panic: %v", r)
		}
	}()

	out := a.fnValue.Call(args)
	result = out[0].Interface()
	if errVal := out[1].Interface(); errVal != nil {
		callErr = errVal.(error)
	}
	return result, callErr
}

// InvokeTool runs the callable and marshals its result per spec.md
// §4.6's tool result table. The returned error is only ever a protocol
// error (invalid arguments); a failure from the callable itself is
// reported as content.CallToolResult{IsError: true}, never as an error.
func (a *Adapted) InvokeTool(ctx context.Context, rc mcpctx.RequestContext, arguments json.RawMessage) (content.CallToolResult, error) {
	result, err := a.call(ctx, rc, arguments)
	if err != nil {
		if rpcErr, ok := err.(*jsonrpc.Error); ok {
			return content.CallToolResult{}, rpcErr
		}
		if a.onFailure != nil {
			a.onFailure(a.name, err)
		}
		return content.CallToolResult{
			IsError: true,
			Content: []content.Block{content.Text(fmt.Sprintf("An error occurred invoking '%s'.", a.name))},
		}, nil
	}
	return marshalToolResult(result), nil
}

// InvokePrompt runs the callable and marshals its result per spec.md
// §4.6's prompt result table.
func (a *Adapted) InvokePrompt(ctx context.Context, rc mcpctx.RequestContext, arguments json.RawMessage) (content.GetPromptResult, error) {
	result, err := a.call(ctx, rc, arguments)
	if err != nil {
		if rpcErr, ok := err.(*jsonrpc.Error); ok {
			return content.GetPromptResult{}, rpcErr
		}
		if a.onFailure != nil {
			a.onFailure(a.name, err)
		}
		return content.GetPromptResult{}, jsonrpc.NewError(jsonrpc.CodeInternalError, fmt.Sprintf("An error occurred invoking '%s'.", a.name))
	}
	return marshalPromptResult(result)
}
