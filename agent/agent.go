package agent

import (
	"context"

	"github.com/casualjim/aviary/messages"
	"github.com/casualjim/aviary/skill"
	"github.com/fogfish/opts"
)

// Agent is the invocation surface a capability exposes to the rest of the
// system. Agents are called out-of-band with a function-call request and
// always produce a response message, converting every failure mode into
// structured error content instead of raising it.
//
// Implementations must be safe for concurrent invocation.
type Agent interface {
	// Name returns the agent's unique identifier, used for routing and for
	// the sender field of its responses.
	Name() string

	// Description returns a human readable summary of what the agent does.
	Description() string

	// Skills returns the functions this agent can execute.
	Skills() []skill.Definition

	// Invoke executes the requested function and returns its response.
	// It never panics and never fails: unknown functions, missing
	// parameters, collaborator errors, and recovered panics all come back
	// as error content with the request's routing metadata echoed.
	Invoke(ctx context.Context, call messages.Message[messages.FunctionCall]) messages.Message[messages.FunctionResponse]
}

var _ Agent = (*defaultAgent)(nil)

type defaultAgent struct {
	name        string
	description string
	skills      []skill.Definition

	byName   map[string]skill.Definition
	required map[string][]string
}

func (a *defaultAgent) Name() string {
	return a.name
}

func (a *defaultAgent) Description() string {
	return a.description
}

func (a *defaultAgent) Skills() []skill.Definition {
	return a.skills
}

var (
	Name        = opts.ForName[defaultAgent, string]("name")
	Description = opts.ForName[defaultAgent, string]("description")
)

func Skills(s skill.Definition, extraSkills ...skill.Definition) opts.Option[defaultAgent] {
	return opts.Type[defaultAgent](func(o *defaultAgent) error {
		o.skills = append(o.skills, s)
		o.skills = append(o.skills, extraSkills...)
		return nil
	})
}

// New creates an agent with the provided configuration.
func New(options ...opts.Option[defaultAgent]) Agent {
	agent := &defaultAgent{}
	if err := opts.Apply(agent, options); err != nil {
		panic(err)
	}
	agent.index()
	return agent
}

// index resolves each skill's advertised name and required parameter list
// once, so Invoke does not reflect over signatures per call.
func (a *defaultAgent) index() {
	a.byName = make(map[string]skill.Definition, len(a.skills))
	a.required = make(map[string][]string, len(a.skills))
	for _, def := range a.skills {
		name, schema := def.ToNameAndSchema()
		a.byName[name] = def
		a.required[name] = schema.Required
	}
}
