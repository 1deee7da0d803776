package ir

// TypeTagKey is the reserved object key carrying the concrete type of
// the object. When present it must be the first key.
const TypeTagKey = "@class"

// TypeTag returns the type tag of an object node, if the node carries
// one as its first key.
func TypeTag(y *Node) (string, bool) {
	if y.Type != ObjectType || len(y.Fields) == 0 {
		return "", false
	}
	if y.Fields[0].String != TypeTagKey || y.Values[0].Type != StringType {
		return "", false
	}
	return y.Values[0].String, true
}

// HoistTags moves the type tag of every object in the tree rooted at y to
// the first position. It returns the number of objects that changed.
func HoistTags(y *Node) int {
	n := 0
	_ = y.Visit(func(node *Node, isPost bool) (bool, error) {
		if isPost || node.Type != ObjectType {
			return true, nil
		}
		for i := 1; i < len(node.Fields); i++ {
			if node.Fields[i].String != TypeTagKey {
				continue
			}
			f, v := node.Fields[i], node.Values[i]
			copy(node.Fields[1:i+1], node.Fields[:i])
			copy(node.Values[1:i+1], node.Values[:i])
			node.Fields[0], node.Values[0] = f, v
			for j := 0; j <= i; j++ {
				node.Fields[j].ParentIndex = j
				node.Values[j].ParentIndex = j
			}
			n++
			break
		}
		return true, nil
	})
	return n
}

// TagSite is a type tag found in a document.
type TagSite struct {
	Path string
	Tag  string
	// First reports whether the tag is the first key of its object.
	First bool
}

// Tags lists every type tag in the tree rooted at y in document order.
func Tags(y *Node) []TagSite {
	var res []TagSite
	_ = y.Visit(func(node *Node, isPost bool) (bool, error) {
		if isPost || node.Type != ObjectType {
			return true, nil
		}
		for i, f := range node.Fields {
			if f.String != TypeTagKey || node.Values[i].Type != StringType {
				continue
			}
			res = append(res, TagSite{Path: node.Path(), Tag: node.Values[i].String, First: i == 0})
		}
		return true, nil
	})
	return res
}

// RetagFunc maps an old tag to a new one; ok false leaves the tag alone.
type RetagFunc func(tag string) (string, bool)

// Retag rewrites type tags in place and returns the number rewritten.
func Retag(y *Node, f RetagFunc) int {
	n := 0
	_ = y.Visit(func(node *Node, isPost bool) (bool, error) {
		if isPost || node.Type != ObjectType {
			return true, nil
		}
		for i, fld := range node.Fields {
			if fld.String != TypeTagKey || node.Values[i].Type != StringType {
				continue
			}
			if nt, ok := f(node.Values[i].String); ok {
				node.Values[i].String = nt
				n++
			}
		}
		return true, nil
	})
	return n
}
