/*
Package skill defines the functions an agent exposes for invocation by name.
A skill is a plain Go function wrapped in a Definition that carries the
metadata agents advertise: a name, a description, and a JSON schema derived
from the function signature through reflection.

# Defining Skills

A definition is built from any function value:

	func searchWeb(query string, maxResults int) (string, error) {
		...
	}

	var SearchWeb = skill.Must(searchWeb,
		skill.Name("search_web"),
		skill.Description("Search the web for current information"),
		skill.Parameters("query", "max_results"),
		skill.Optional("max_results"),
	)

Parameters assigns caller-facing names to the function's inputs in
declaration order. Without it the inputs are advertised as param0, param1,
and so on. Optional marks names that callers may omit; omitted values reach
the function as their zero value. Everything not marked optional is required
and validated before the function runs.

# Injected Parameters

Parameters of type context.Context or types.Meta are filled in by the
dispatcher and never appear in the advertised schema. They are invisible to
callers and may sit anywhere in the signature:

	func searchWeb(ctx context.Context, query string, meta types.Meta) (string, error) {
		...
	}

The context carries the invocation's cancellation; the metadata bag carries
the request's routing and session information.

# Code Generation

The aviary-skill-gen command turns annotated functions into package-level
definitions:

	// aviary:skill
	func searchWeb(query string) (string, error) { ... }

generates a SearchWebSkill variable in a companion file.

# Thread Safety

Definitions are plain values and safe to share once built. The functions
they wrap are invoked concurrently, one goroutine per request, and must
synchronize any state they touch.
*/
package skill
