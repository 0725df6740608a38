package runtime

// prefixIndex is a byte-keyed prefix tree over the key sequences of one
// schema. Walking it costs the length of the candidate, not the size of the
// schema. Keying by byte keeps starts-with semantics exact for any input,
// including strings that are not valid UTF-8.
type prefixIndex struct {
	root *prefixNode
	size int
}

type prefixNode struct {
	children map[byte]*prefixNode
	terminal bool
}

func newPrefixIndex(seqs ...string) *prefixIndex {
	idx := &prefixIndex{root: &prefixNode{}}
	for _, s := range seqs {
		idx.insert(s)
	}
	return idx
}

func (p *prefixIndex) insert(seq string) {
	n := p.root
	for i := 0; i < len(seq); i++ {
		if n.children == nil {
			n.children = make(map[byte]*prefixNode)
		}
		next, ok := n.children[seq[i]]
		if !ok {
			next = &prefixNode{}
			n.children[seq[i]] = next
		}
		n = next
	}
	if !n.terminal {
		n.terminal = true
		p.size++
	}
}

func (p *prefixIndex) find(seq string) *prefixNode {
	n := p.root
	for i := 0; i < len(seq); i++ {
		next, ok := n.children[seq[i]]
		if !ok {
			return nil
		}
		n = next
	}
	return n
}

// hasPrefix reports whether some indexed sequence starts with seq
// (including seq itself).
func (p *prefixIndex) hasPrefix(seq string) bool {
	n := p.find(seq)
	return n != nil && (n.terminal || len(n.children) > 0)
}

// contains reports whether seq itself is indexed.
func (p *prefixIndex) contains(seq string) bool {
	n := p.find(seq)
	return n != nil && n.terminal
}

func (p *prefixIndex) len() int { return p.size }
