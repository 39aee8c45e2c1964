package document

// TokenSet is the formatting metadata of one node: the literal text around
// its children and the literal text preceding the node in its parent's
// sibling chain. Token sets are sampled once from the source during build, or
// supplied by generation rules for nodes created by change-set replay.
//
// Rendering a node with its stored token set and current field/slot values
// reproduces byte-identical text as long as the subtree is unchanged since
// sampling.
type TokenSet struct {
	// Prefix is the text from the node's start to its first child's start.
	// For a childless container it holds the whole literal.
	Prefix string `yaml:"prefix,omitempty"`

	// Suffix is the text from the last child's end to the node's end.
	Suffix string `yaml:"suffix,omitempty"`

	// Separator is the exact text preceding this node in its parent's
	// sibling chain. Empty for the first sibling.
	Separator string `yaml:"separator,omitempty"`

	// Indent is the whitespace run after the last newline in Separator.
	// Empty for flat formatting.
	Indent string `yaml:"indent,omitempty"`

	// Trailing, when set, makes render emit TrailingSep after the last
	// sibling of the node's chain slot. No built-in grammar construct turns
	// it on, but the flag is honored rather than assumed false.
	Trailing    bool   `yaml:"trailing,omitempty"`
	TrailingSep string `yaml:"trailingSep,omitempty"`
}

func (t *TokenSet) clone() *TokenSet {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// defaultTokens supplies formatting for nodes created outside a parse, e.g.
// by replaying a change-set against the model.
func defaultTokens(typ NodeType) *TokenSet {
	switch typ {
	case TypeObject:
		return &TokenSet{Prefix: "{", Suffix: "}"}
	case TypeArray:
		return &TokenSet{Prefix: "[", Suffix: "]"}
	case TypePair:
		return &TokenSet{Prefix: ":"}
	default:
		return &TokenSet{}
	}
}

// defaultSeparator is used when a node is spliced into a sibling chain and
// carries no sampled separator of its own.
const defaultSeparator = ","
