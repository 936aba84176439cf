package agent

import (
	"github.com/casualjim/aviary/internal/registry"
)

var Global = registry.New[Agent]()

func Add(agent Agent) {
	Global.Add(agent.Name(), agent)
}

func Get(name string) (Agent, bool) {
	return Global.Get(name)
}

func Del(name string) {
	Global.Del(name)
}
