// Package schema describes which dotted references a context kind exposes.
// A Node maps names either to child nodes (for further dotting) or to typed
// terminal properties; the same name is never both.
//
// Trees are built at start-up and then only grow. They are read without
// locks, so registration must finish before compilers run concurrently.
package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"formula/internal/types"
)

var (
	// ErrDuplicate is returned when a name is declared twice in one node.
	ErrDuplicate = errors.New("duplicate schema name")
	// ErrConflict is returned when a registration would turn a property into a
	// child or the other way round.
	ErrConflict = errors.New("schema name is both child and property")
)

type Node struct {
	children map[string]*Node
	props    map[string]types.PrimaryType
}

func New() *Node {
	return &Node{
		children: make(map[string]*Node),
		props:    make(map[string]types.PrimaryType),
	}
}

// Child returns the sub-tree mounted under name.
func (n *Node) Child(name string) (*Node, bool) {
	c, ok := n.children[name]
	return c, ok
}

// Prop returns the type of the terminal property name.
func (n *Node) Prop(name string) (types.PrimaryType, bool) {
	t, ok := n.props[name]
	return t, ok
}

// AddProp declares a terminal property.
func (n *Node) AddProp(name string, t types.PrimaryType) error {
	if _, ok := n.children[name]; ok {
		return fmt.Errorf("%w: %q", ErrConflict, name)
	}
	if _, ok := n.props[name]; ok {
		return fmt.Errorf("%w: property %q", ErrDuplicate, name)
	}
	n.props[name] = t
	return nil
}

// Mount attaches sub under name. The same sub-tree may be mounted in several
// places; later registrations into it are visible through every mount.
func (n *Node) Mount(name string, sub *Node) error {
	if _, ok := n.props[name]; ok {
		return fmt.Errorf("%w: %q", ErrConflict, name)
	}
	if _, ok := n.children[name]; ok {
		return fmt.Errorf("%w: child %q", ErrDuplicate, name)
	}
	n.children[name] = sub
	return nil
}

// MustProps declares several properties of one type and panics on conflict.
// Meant for static schema construction.
func (n *Node) MustProps(t types.PrimaryType, names ...string) *Node {
	for _, name := range names {
		if err := n.AddProp(name, t); err != nil {
			panic(err)
		}
	}
	return n
}

// MustMount is Mount that panics, for static construction.
func (n *Node) MustMount(name string, sub *Node) *Node {
	if err := n.Mount(name, sub); err != nil {
		panic(err)
	}
	return n
}

// Register adds names of type t under path, creating intermediate children
// as needed. Re-registering an existing property with the same type is a
// no-op; a different type is ErrDuplicate. Nothing is ever removed.
func (n *Node) Register(path, names []string, t types.PrimaryType) error {
	cur := n
	for i, seg := range path {
		if _, isProp := cur.props[seg]; isProp {
			return fmt.Errorf("%w: %q", ErrConflict, strings.Join(path[:i+1], "."))
		}
		next, ok := cur.children[seg]
		if !ok {
			next = New()
			cur.children[seg] = next
		}
		cur = next
	}
	for _, name := range names {
		if old, ok := cur.props[name]; ok {
			if old == t {
				continue
			}
			return fmt.Errorf("%w: %q already %s", ErrDuplicate, name, old)
		}
		if err := cur.AddProp(name, t); err != nil {
			return err
		}
	}
	return nil
}

// Resolve walks path. On success it returns the property type and
// len(path). On failure matched is the number of leading segments that were
// valid children, so path[:matched+1] is the longest path that was tried.
func (n *Node) Resolve(path []string) (t types.PrimaryType, matched int, ok bool) {
	cur := n
	for i, seg := range path {
		if i == len(path)-1 {
			t, ok = cur.props[seg]
			if !ok {
				return types.Invalid, i, false
			}
			return t, len(path), true
		}
		next, found := cur.children[seg]
		if !found {
			return types.Invalid, i, false
		}
		cur = next
	}
	return types.Invalid, 0, false
}

// Entry is one resolvable reference.
type Entry struct {
	Path string
	Type types.PrimaryType
}

// Entries lists every reachable property path, sorted by path.
func (n *Node) Entries() []Entry {
	var out []Entry
	var walk func(prefix string, cur *Node, depth int)
	walk = func(prefix string, cur *Node, depth int) {
		// общие поддеревья могут монтироваться многократно, но циклов нет
		if depth > 32 {
			return
		}
		for name, t := range cur.props {
			out = append(out, Entry{Path: prefix + name, Type: t})
		}
		for name, child := range cur.children {
			walk(prefix+name+".", child, depth+1)
		}
	}
	walk("", n, 0)
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Path, b.Path) })
	return out
}
