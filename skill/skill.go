package skill

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/casualjim/aviary/pkg/reflectx"
	"github.com/casualjim/aviary/pkg/stdx"
	"github.com/casualjim/aviary/types"
	"github.com/fogfish/opts"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Definition describes a skill: the function an agent invokes when a caller
// asks for it by name, plus the metadata used to advertise it.
//
// Parameters maps the positional keys "param0", "param1", ... to the names
// callers use in invocation arguments. Optional lists advertised names a
// caller may omit; every other advertised parameter is required.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]string
	Optional    []string
	Function    any
}

var skillReflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
}

// ToNameAndSchema returns the name the skill is advertised under and the
// JSON schema of its invocation arguments. Parameters of type
// context.Context or types.Meta are injected at dispatch and never appear
// in the schema.
func (d Definition) ToNameAndSchema() (string, *jsonschema.Schema) {
	return definitionJSON(&skillReflector, d)
}

func definitionJSON(reflector *jsonschema.Reflector, d Definition) (string, *jsonschema.Schema) {
	name := d.Name
	if name == "" {
		name = reflectx.FunctionName(d.Function)
	}

	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}

	typ := reflect.TypeOf(d.Function)
	if typ == nil || typ.Kind() != reflect.Func {
		return name, schema
	}

	numIn := typ.NumIn()
	startIdx := 0
	// Method expressions carry the receiver as the first input.
	if numIn > 0 && typ.In(0).Kind() == reflect.Struct {
		startIdx = 1
	}

	var required []string
	pos := 0
	for i := startIdx; i < numIn; i++ {
		paramType := typ.In(i)
		if reflectx.IsContext(paramType) || reflectx.IsRefinedType[types.Meta](paramType) {
			continue
		}

		paramName := fmt.Sprintf("param%d", pos)
		if p, ok := d.Parameters[paramName]; ok {
			paramName = p
		}
		pos++

		propSchema := reflector.ReflectFromType(paramType)
		propSchema.Version = ""
		schema.Properties.Set(paramName, propSchema)
		if !slices.Contains(d.Optional, paramName) {
			required = append(required, paramName)
		}
	}
	if len(required) > 0 {
		schema.Required = required
	}

	return name, schema
}

// Option configures a Definition during New.
type Option = opts.Option[Definition]

// Must is New with the error turned into a panic. Use it for package-level
// skill variables where a bad definition is a programming mistake.
func Must(f any, options ...Option) Definition {
	return stdx.Must1(New(f, options...))
}

// New builds a skill definition around f, which must be a function value.
// When no Name option is given the skill is advertised under the function's
// own name.
//
// Parameters:
//   - f: the function invoked when the skill is called
//   - options: metadata applied to the definition
//
// Returns an error when f is not a function or an option fails to apply.
func New(f any, options ...Option) (Definition, error) {
	if !reflectx.IsFunction(f) {
		return Definition{}, fmt.Errorf("provided value is not a function")
	}

	var def Definition
	if err := opts.Apply(&def, options); err != nil {
		return Definition{}, err
	}
	if def.Name == "" {
		def.Name = reflectx.FunctionName(f)
	}

	def.Function = f
	return def, nil
}

// Name sets the name the skill is advertised under.
var Name = opts.ForName[Definition, string]("Name")

// Description sets the human readable description of the skill.
var Description = opts.ForName[Definition, string]("Description")

// Parameters assigns advertised names to the function's caller-facing
// inputs in declaration order: the first name replaces "param0", the second
// "param1", and so on. Injected parameters are invisible to callers and do
// not consume a position.
func Parameters(parameters ...string) Option {
	return opts.Type[Definition](func(o *Definition) error {
		o.Parameters = make(map[string]string, len(parameters))
		for i, p := range parameters {
			o.Parameters[fmt.Sprintf("param%d", i)] = p
		}
		return nil
	})
}

// Optional marks advertised parameter names as omittable. An omitted
// optional parameter reaches the function as its zero value.
func Optional(parameters ...string) Option {
	return opts.Type[Definition](func(o *Definition) error {
		o.Optional = append(o.Optional, parameters...)
		return nil
	})
}
