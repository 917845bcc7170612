// Package workflow builds runnable ComfyUI workflows for the LightX2V node
// pack. Unlike a workflow authored in the UI, these graphs are constructed
// programmatically from the typed catalog in the lightx2v package and
// serialized straight to the /prompt wire format.
package workflow

import (
	"fmt"
	"sort"

	dgraph "github.com/dominikbraun/graph"

	"github.com/GACLove/ComfyUI-Lightx2vWrapper/lightx2v"
)

// Connection references an output slot of another node.
type Connection struct {
	NodeID int
	Slot   int
}

// Node is one node instance in a workflow: widget values plus input
// connections, keyed by input name.
type Node struct {
	ID     int
	Class  string
	Title  string
	Values map[string]interface{}
	Links  map[string]Connection
}

// Output returns a connection to the node's output slot.
func (n *Node) Output(slot int) Connection {
	return Connection{NodeID: n.ID, Slot: slot}
}

// Graph is a workflow under construction.
type Graph struct {
	nodes  map[int]*Node
	order  []int
	lastID int
}

func NewGraph() *Graph {
	return &Graph{nodes: make(map[int]*Node)}
}

// AddNode appends a node with the next free id.
func (g *Graph) AddNode(class string, title string) *Node {
	g.lastID++
	n := &Node{
		ID:     g.lastID,
		Class:  class,
		Title:  title,
		Values: make(map[string]interface{}),
		Links:  make(map[string]Connection),
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return n
}

// GetNodeByID returns the node with the given id, or nil.
func (g *Graph) GetNodeByID(id int) *Node {
	return g.nodes[id]
}

// GetNodesWithClass returns every node of the given class, in insertion
// order.
func (g *Graph) GetNodesWithClass(class string) []*Node {
	retv := make([]*Node, 0)
	for _, id := range g.order {
		if g.nodes[id].Class == class {
			retv = append(retv, g.nodes[id])
		}
	}
	return retv
}

// GetFirstNodeWithTitle returns the first node carrying the title, or nil.
func (g *Graph) GetFirstNodeWithTitle(title string) *Node {
	for _, id := range g.order {
		if g.nodes[id].Title == title {
			return g.nodes[id]
		}
	}
	return nil
}

// Size returns the node count.
func (g *Graph) Size() int {
	return len(g.nodes)
}

// Connect wires origin's output slot into the named input of target.
func (g *Graph) Connect(origin Connection, target *Node, input string) error {
	if g.nodes[origin.NodeID] == nil {
		return fmt.Errorf("connection origin node %d not in graph", origin.NodeID)
	}
	if g.nodes[target.ID] == nil {
		return fmt.Errorf("connection target node %d not in graph", target.ID)
	}
	target.Links[input] = origin
	return nil
}

// ExecutionOrder returns node ids topologically sorted so every node comes
// after the nodes feeding it. Ties break on insertion order. A cyclic
// graph is an error.
func (g *Graph) ExecutionOrder() ([]int, error) {
	dg := dgraph.New(dgraph.IntHash, dgraph.Directed(), dgraph.PreventCycles())
	for _, id := range g.order {
		if err := dg.AddVertex(id); err != nil {
			return nil, fmt.Errorf("adding node %d: %w", id, err)
		}
	}
	for _, id := range g.order {
		for _, conn := range g.nodes[id].Links {
			if err := dg.AddEdge(conn.NodeID, id); err != nil && err != dgraph.ErrEdgeAlreadyExists {
				return nil, fmt.Errorf("link %d -> %d: %w", conn.NodeID, id, err)
			}
		}
	}
	order, err := dgraph.StableTopologicalSort(dg, func(a, b int) bool { return a < b })
	if err != nil {
		return nil, fmt.Errorf("ordering workflow: %w", err)
	}
	return order, nil
}

// Validate checks every node against the lightx2v catalog: widget values
// must satisfy their input schema, required link inputs must be connected,
// and the graph must be acyclic. Classes outside the catalog (host builtins
// like SaveImage) are only checked structurally.
func (g *Graph) Validate() error {
	if _, err := g.ExecutionOrder(); err != nil {
		return err
	}
	for _, id := range g.order {
		n := g.nodes[id]
		obj := lightx2v.Lookup(lightx2v.NodeClass(n.Class))
		if obj == nil {
			continue
		}
		for name, value := range n.Values {
			if err := obj.CheckValue(name, value); err != nil {
				return fmt.Errorf("node %d (%s): %w", n.ID, n.Title, err)
			}
		}
		for _, in := range obj.Inputs {
			if in.Kind != lightx2v.KindLink || in.Optional {
				continue
			}
			if _, ok := n.Links[in.Name]; !ok {
				return fmt.Errorf("node %d (%s): required input %s.%s not connected",
					n.ID, n.Title, n.Class, in.Name)
			}
		}
		for name, conn := range n.Links {
			in := obj.Input(name)
			if in == nil {
				return fmt.Errorf("node %d (%s): %s has no input %q", n.ID, n.Title, n.Class, name)
			}
			if in.Kind != lightx2v.KindLink {
				return fmt.Errorf("node %d (%s): %s.%s takes a widget value, not a connection",
					n.ID, n.Title, n.Class, name)
			}
			origin := g.nodes[conn.NodeID]
			if origin == nil {
				return fmt.Errorf("node %d (%s): input %s linked to missing node %d",
					n.ID, n.Title, name, conn.NodeID)
			}
			if oobj := lightx2v.Lookup(lightx2v.NodeClass(origin.Class)); oobj != nil {
				if conn.Slot >= len(oobj.ReturnTypes) {
					return fmt.Errorf("node %d (%s): %s has no output slot %d",
						n.ID, n.Title, origin.Class, conn.Slot)
				}
				if got := oobj.ReturnTypes[conn.Slot]; got != in.LinkType {
					return fmt.Errorf("node %d (%s): input %s wants %s, connected to %s",
						n.ID, n.Title, name, in.LinkType, got)
				}
			}
		}
	}
	return nil
}

// sortedIDs returns node ids ascending; used for deterministic iteration.
func (g *Graph) sortedIDs() []int {
	ids := make([]int, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
