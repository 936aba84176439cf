package aviary

import (
	"slices"

	"github.com/casualjim/aviary/agent"
	"github.com/casualjim/aviary/broker"
	"github.com/fogfish/opts"
)

var (
	// Name sets the identity stamped on submitted queries and status
	// announcements. Defaults to "orchestrator".
	Name = opts.ForName[Aviary, string]("name")
	// WithBroker replaces the default in-process broker.
	WithBroker = opts.ForName[Aviary, broker.Broker]("broker")
	// WithHandler replaces the default keyword-responder handler. The
	// handler must consume the same broker the aviary publishes to,
	// otherwise submitted queries go nowhere.
	WithHandler = opts.ForName[Aviary, QueryHandler]("handler")
)

// Agents registers agents for Call routing, keyed by their names. A later
// registration under the same name wins.
func Agents(first agent.Agent, extraAgents ...agent.Agent) opts.Option[Aviary] {
	return opts.Type[Aviary](func(o *Aviary) error {
		o.agents.Set(first.Name(), first)
		for elem := range slices.Values(extraAgents) {
			o.agents.Set(elem.Name(), elem)
		}
		return nil
	})
}
