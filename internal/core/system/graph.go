package system

import (
	"fmt"
	"strings"
)

// SetPrefix namespaces set node ids so they never collide with system names.
const SetPrefix = "set:"

// SetID returns the node id of a set. Already-prefixed names are returned as is.
func SetID(name string) string {
	if IsSetID(name) {
		return name
	}
	return SetPrefix + name
}

func IsSetID(id string) bool {
	return strings.HasPrefix(id, SetPrefix)
}

// Info declares one system's ordering constraints. Before and After entries
// name systems literally, or sets when they carry SetPrefix. Sets lists the
// plain names of the groups the system belongs to.
type Info struct {
	Name   string
	Before []string
	After  []string
	Sets   []string
}

// CycleError reports the nodes whose constraints could not be satisfied: every
// member of a cycle plus anything downstream of one.
type CycleError struct {
	InvolvedNodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle among %d nodes: %s",
		len(e.InvolvedNodes), strings.Join(e.InvolvedNodes, ", "))
}

// idSet is a set of node ids that iterates in insertion order.
type idSet struct {
	ids   []string
	index map[string]struct{}
}

func (s *idSet) add(id string) bool {
	if _, ok := s.index[id]; ok {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

func (s *idSet) len() int { return len(s.ids) }

// Node is a system or a virtual set node. An edge A -> B means A runs before B.
type Node struct {
	ID      string
	Virtual bool

	pos int
	in  idSet
	out idSet
}

// InEdges returns the ids of the node's prerequisites in insertion order.
func (n *Node) InEdges() []string { return append([]string(nil), n.in.ids...) }

// OutEdges returns the ids of the nodes that depend on n in insertion order.
func (n *Node) OutEdges() []string { return append([]string(nil), n.out.ids...) }

// Graph orders systems by their before/after/set constraints. It is rebuilt
// from scratch by BuildFromSystems and is not safe for concurrent mutation.
type Graph struct {
	nodes map[string]*Node
	order []*Node // insertion order, drives deterministic sorting
}

func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

func (g *Graph) addNode(id string, virtual bool) *Node {
	if n, ok := g.nodes[id]; ok {
		return n
	}
	n := &Node{ID: id, Virtual: virtual, pos: len(g.order)}
	g.nodes[id] = n
	g.order = append(g.order, n)
	return n
}

func (g *Graph) AddSystemNode(name string) {
	g.addNode(name, false)
}

// AddSetNode adds the virtual node for setName and returns its id.
func (g *Graph) AddSetNode(setName string) string {
	id := SetID(setName)
	g.addNode(id, true)
	return id
}

// AddEdge records that from runs before to. Self edges are ignored; missing
// endpoints are created, virtual when their id carries SetPrefix.
func (g *Graph) AddEdge(from, to string) {
	if from == to {
		return
	}
	f := g.addNode(from, IsSetID(from))
	t := g.addNode(to, IsSetID(to))
	f.out.add(to)
	t.in.add(from)
}

// BuildFromSystems clears the graph and rebuilds it from systems. Unknown
// before/after targets become unconstrained nodes; see ValidateReferences for
// a strict check.
//
// A set node precedes its members, so prerequisites attached to the set reach
// every member. Following a set ("after: set:x") additionally orders the
// system after each member, since the set node alone only marks the set's start.
func (g *Graph) BuildFromSystems(systems []Info) {
	g.Clear()

	members := make(map[string][]string)
	for _, s := range systems {
		g.AddSystemNode(s.Name)
		for _, set := range s.Sets {
			id := g.AddSetNode(set)
			members[id] = append(members[id], s.Name)
		}
	}

	for _, s := range systems {
		for _, set := range s.Sets {
			g.AddEdge(SetID(set), s.Name)
		}
		for _, target := range s.Before {
			g.AddEdge(s.Name, target)
		}
		for _, target := range s.After {
			g.AddEdge(target, s.Name)
			for _, m := range members[target] {
				g.AddEdge(m, s.Name)
			}
		}
	}
}

// TopologicalSort returns the non-virtual nodes in a valid execution order
// using Kahn's algorithm. Ties are broken FIFO by insertion order. The graph is
// not modified, so repeated calls return the same result.
func (g *Graph) TopologicalSort() ([]string, error) {
	inDegree := make([]int, len(g.order))
	queue := make([]*Node, 0, len(g.order))
	for _, n := range g.order {
		inDegree[n.pos] = n.in.len()
		if inDegree[n.pos] == 0 {
			queue = append(queue, n)
		}
	}

	result := make([]string, 0, len(g.order))
	for head := 0; head < len(queue); head++ {
		n := queue[head]
		if !n.Virtual {
			result = append(result, n.ID)
		}
		for _, id := range n.out.ids {
			next := g.nodes[id]
			inDegree[next.pos]--
			if inDegree[next.pos] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(queue) < len(g.order) {
		stuck := make([]string, 0, len(g.order)-len(queue))
		for _, n := range g.order {
			if inDegree[n.pos] > 0 {
				stuck = append(stuck, n.ID)
			}
		}
		return nil, &CycleError{InvolvedNodes: stuck}
	}
	return result, nil
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

func (g *Graph) Clear() {
	clear(g.nodes)
	g.order = nil
}

// Size is the node count, virtual set nodes included.
func (g *Graph) Size() int {
	return len(g.order)
}
