package agent

import (
	"context"
	"encoding"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"time"

	"github.com/casualjim/aviary/messages"
	"github.com/casualjim/aviary/pkg/reflectx"
	"github.com/casualjim/aviary/pkg/slogx"
	"github.com/casualjim/aviary/pkg/uuidx"
	"github.com/casualjim/aviary/skill"
	"github.com/casualjim/aviary/types"
	"github.com/go-openapi/strfmt"
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// Invoke runs the requested function and wraps the outcome in a response
// addressed back to the caller, echoing the request's routing metadata.
func (a *defaultAgent) Invoke(ctx context.Context, call messages.Message[messages.FunctionCall]) messages.Message[messages.FunctionResponse] {
	return messages.Message[messages.FunctionResponse]{
		ID:             uuidx.New(),
		ConversationID: call.ConversationID,
		ParentID:       call.ID,
		Sender:         a.name,
		Recipient:      call.Sender,
		Timestamp:      strfmt.DateTime(time.Now()),
		Meta:           call.Meta,
		Payload: messages.FunctionResponse{
			Name:   call.Payload.Name,
			Result: a.dispatch(ctx, call),
		},
	}
}

// dispatch resolves, validates, and calls the function. Every failure mode
// becomes error content; the deferred recover also covers panics raised
// while formatting the result.
func (a *defaultAgent) dispatch(ctx context.Context, call messages.Message[messages.FunctionCall]) (result messages.Content) {
	fname := call.Payload.Name

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "function invocation panicked",
				slog.String("agent", a.name),
				slog.String("function", fname),
				slog.Any("panic", r),
			)
			result = messages.Errorf("function %s panicked: %v", fname, r)
		}
	}()

	def, ok := a.byName[fname]
	if !ok {
		return messages.Errorf("unknown function %s", fname)
	}

	args := gjson.Parse(call.Payload.Arguments)
	for _, param := range a.required[fname] {
		if !args.Get(param).Exists() {
			return messages.Errorf("missing required parameter %q for function %s", param, fname)
		}
	}

	out, err := callFunction(ctx, def.Function, buildArgList(args, def), invocationMeta(call))
	if err != nil {
		return messages.ErrorContent{Detail: err.Error()}
	}
	return messages.Text(out)
}

// invocationMeta exposes the request's metadata bag to functions that
// declare a types.Meta parameter.
func invocationMeta(call messages.Message[messages.FunctionCall]) types.Meta {
	meta := make(types.Meta)
	if call.Meta.IsObject() {
		for k, v := range call.Meta.Map() {
			meta[k] = v.Value()
		}
	}
	return meta
}

// buildArgList extracts the function's arguments from the request in
// declaration order. Injected and absent parameters stay as invalid values,
// callFunction fills those in.
func buildArgList(args gjson.Result, def skill.Definition) []reflect.Value {
	typ := reflect.TypeOf(def.Function)
	if typ == nil || typ.Kind() != reflect.Func {
		return nil
	}

	values := make([]reflect.Value, typ.NumIn())
	pos := 0
	for i := range values {
		paramType := typ.In(i)
		if reflectx.IsContext(paramType) || reflectx.IsRefinedType[types.Meta](paramType) {
			continue
		}

		name := fmt.Sprintf("param%d", pos)
		if p, ok := def.Parameters[name]; ok {
			name = p
		}
		pos++

		if val := args.Get(name); val.Exists() && val.Value() != nil {
			values[i] = reflect.ValueOf(val.Value())
		}
	}
	return values
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

// callFunction invokes fn with the extracted arguments, injecting the
// context and metadata where the signature asks for them and zero-filling
// anything absent or unconvertible. A non-nil error return wins over any
// value result.
func callFunction(ctx context.Context, fn any, args []reflect.Value, meta types.Meta) (string, error) {
	val := reflect.ValueOf(fn)
	vtpe := val.Type()

	numIn := vtpe.NumIn()
	callArgs := make([]reflect.Value, numIn)
	for fi := 0; fi < numIn; fi++ {
		paramType := vtpe.In(fi)
		switch {
		case reflectx.IsContext(paramType):
			callArgs[fi] = reflect.ValueOf(ctx)
		case reflectx.IsRefinedType[types.Meta](paramType):
			callArgs[fi] = reflect.ValueOf(meta)
		case fi < len(args) && args[fi].IsValid() && args[fi].Type().ConvertibleTo(paramType):
			callArgs[fi] = args[fi].Convert(paramType)
		default:
			callArgs[fi] = reflect.Zero(paramType)
		}
	}

	results := val.Call(callArgs)

	var out reflect.Value
	for _, res := range results {
		if res.Type().Implements(errType) {
			if !res.IsNil() {
				return "", res.Interface().(error)
			}
			continue
		}
		if !out.IsValid() {
			out = res
		}
	}
	if !out.IsValid() {
		return "", nil
	}
	return formatResult(out.Interface())
}

func formatResult(v any) (string, error) {
	switch vtpe := v.(type) {
	case string:
		return vtpe, nil
	case time.Time:
		return vtpe.Format(time.RFC3339), nil
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(vtpe).Int(), 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(vtpe).Uint(), 10), nil
	case float32, float64:
		return strconv.FormatFloat(reflect.ValueOf(vtpe).Float(), 'f', -1, 64), nil
	case encoding.TextMarshaler:
		b, err := vtpe.MarshalText()
		if err != nil {
			slog.Error("Error marshalling function return", slogx.Error(err))
			return "", err
		}
		return string(b), nil
	case fmt.Stringer:
		return vtpe.String(), nil
	default:
		b, err := json.Marshal(vtpe)
		if err != nil {
			slog.Error("Error marshalling function return", slogx.Error(err))
			return "", err
		}
		return string(b), nil
	}
}
