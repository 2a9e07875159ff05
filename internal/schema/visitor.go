package schema

import "fmt"

// Visitor has one method per node variant. Visitors that need to descend
// call Walk on the children themselves.
type Visitor interface {
	VisitObject(*Object) error
	VisitString(*String) error
	VisitNumber(*Number) error
	VisitBoolean(*Boolean) error
	VisitArray(*Array) error
	VisitEnum(*Enum) error
	VisitRaw(*Raw) error
}

// Walk calls the method of v that matches the type of n.
func Walk(n Node, v Visitor) error {
	switch node := n.(type) {
	case *Object:
		return v.VisitObject(node)
	case *String:
		return v.VisitString(node)
	case *Number:
		return v.VisitNumber(node)
	case *Boolean:
		return v.VisitBoolean(node)
	case *Array:
		return v.VisitArray(node)
	case *Enum:
		return v.VisitEnum(node)
	case *Raw:
		return v.VisitRaw(node)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownNode, n)
	}
}

// Leaves returns the dotted paths of every non-object node under root,
// in document order.
func Leaves(root Node) []string {
	var out []string
	var walk func(prefix string, n Node)
	walk = func(prefix string, n Node) {
		obj, ok := n.(*Object)
		if !ok {
			out = append(out, prefix)
			return
		}
		for _, p := range obj.Properties {
			walk(joinPath(prefix, p.Name), p.Node)
		}
	}
	walk("", root)
	return out
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
