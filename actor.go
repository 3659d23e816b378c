// Package actor runs lightweight isolated processes communicating by
// asynchronous messages. Linked processes share the fate: the abnormal
// termination of one of them terminates the others unless they trap exits.
package actor

import (
	"ergo.services/actor/gen"
	"ergo.services/actor/node"
)

// StartNode starts a new node with the given name. Empty name makes the node
// generate a unique one.
func StartNode(name gen.Atom, options node.Options) (gen.Node, error) {
	if name != "" {
		options.Name = name
	}
	n, err := node.Start(options)
	if err != nil {
		return nil, err
	}
	n.Log().Debug("%s %s (%s)", FrameworkVersion.Name, FrameworkVersion.Release, FrameworkVersion.License)
	return n, nil
}
