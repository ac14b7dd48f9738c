package retrieval

// Aho-Corasick is hand-rolled here rather than imported: the pack's only
// AC-shaped reference (github.com/cloudflare/ahocorasick) is not among
// the retrieved examples' dependencies, so there is nothing to ground an
// import on (documented in DESIGN.md's standard-library justifications).
// The automaton itself is the
// textbook trie-plus-failure-links construction: each surface form is
// inserted into a trie, then failure links are computed breadth-first so
// that a single left-to-right scan of the query finds every matching
// surface form in O(n + matches) time.

type node struct {
	children map[byte]*node
	fail     *node
	// output holds the Surface values whose form ends at this node (a
	// node can terminate more than one form, e.g. overlapping templates).
	output []Surface
}

func newNode() *node {
	return &node{children: make(map[byte]*node)}
}

// Surface is one parameterized retrieval surface form: the literal text
// an enum-variable template expanded to at ingestion, bound back to the
// source it should route queries to.
type Surface struct {
	Text             string
	SourceIdentifier string
}

// Automaton is an Aho-Corasick matcher over a fixed set of Surfaces,
// built once at ingestion time and reused across query-time routing
// scans (spec §4.H "parameterized retrieval").
type Automaton struct {
	root *node
}

// BuildAutomaton constructs an Automaton from the given surface forms.
func BuildAutomaton(surfaces []Surface) *Automaton {
	root := newNode()
	for _, s := range surfaces {
		insert(root, s)
	}
	linkFailures(root)
	return &Automaton{root: root}
}

func insert(root *node, s Surface) {
	cur := root
	for i := 0; i < len(s.Text); i++ {
		c := s.Text[i]
		next, ok := cur.children[c]
		if !ok {
			next = newNode()
			cur.children[c] = next
		}
		cur = next
	}
	cur.output = append(cur.output, s)
}

func linkFailures(root *node) {
	root.fail = root
	queue := make([]*node, 0, len(root.children))
	for _, child := range root.children {
		child.fail = root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for c, child := range cur.children {
			queue = append(queue, child)

			f := cur.fail
			for f != root {
				if _, ok := f.children[c]; ok {
					break
				}
				f = f.fail
			}
			if next, ok := f.children[c]; ok && next != child {
				child.fail = next
			} else {
				child.fail = root
			}
			child.output = append(child.output, child.fail.output...)
		}
	}
}

// Match is one surface-form hit within a scanned query, giving the byte
// offset the match ends at.
type Match struct {
	Surface Surface
	End     int
}

// Scan runs the automaton over text and returns every surface-form match,
// in the order their end positions occur.
func (a *Automaton) Scan(text string) []Match {
	var matches []Match
	cur := a.root

	for i := 0; i < len(text); i++ {
		c := text[i]
		for cur != a.root {
			if _, ok := cur.children[c]; ok {
				break
			}
			cur = cur.fail
		}
		if next, ok := cur.children[c]; ok {
			cur = next
		}
		for _, s := range cur.output {
			matches = append(matches, Match{Surface: s, End: i + 1})
		}
	}
	return matches
}

// RouteSources returns the distinct source identifiers matched while
// scanning text, in first-match order — the set of sources a
// parameterized query's inclusions/exclusions should be grouped from
// (spec §4.H: "routes the query to the correct source, grouping
// inclusions/exclusions per source_identifier").
func (a *Automaton) RouteSources(text string) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, m := range a.Scan(text) {
		if !seen[m.Surface.SourceIdentifier] {
			seen[m.Surface.SourceIdentifier] = true
			sources = append(sources, m.Surface.SourceIdentifier)
		}
	}
	return sources
}
