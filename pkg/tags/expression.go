package tags

import (
	"errors"
	"strings"

	"github.com/sdejongh/filerules/pkg/models"
)

// ErrLastTerm is returned when removing the only term of an expression
var ErrLastTerm = errors.New("cannot remove the last term of an expression")

// Term is one signed literal of an expression
type Term struct {
	Tag      Tag  `json:"tag" yaml:"tag"`
	Included bool `json:"included" yaml:"included"`
}

// Expression is a conjunction of signed tags. It always has at least one
// term, the head.
type Expression struct {
	Head Term   `json:"head" yaml:"head"`
	Rest []Term `json:"rest,omitempty" yaml:"rest,omitempty"`
}

// NewExpression creates an expression with a single term
func NewExpression(tag Tag, included bool) Expression {
	return Expression{Head: Term{Tag: tag, Included: included}}
}

// DefaultExpression is the selector of a freshly created event:
// the placeholder tag, included.
func DefaultExpression() Expression {
	return NewExpression(Placeholder(), true)
}

// Terms returns all terms, head first
func (e Expression) Terms() []Term {
	terms := make([]Term, 0, 1+len(e.Rest))
	terms = append(terms, e.Head)
	return append(terms, e.Rest...)
}

// Len returns the number of terms
func (e Expression) Len() int {
	return 1 + len(e.Rest)
}

// Evaluate reports whether every term holds for item. A term holds when its
// tag's result equals Included. All terms are evaluated; the first error is
// returned.
func (e Expression) Evaluate(item *models.Item) (bool, error) {
	result := true
	var firstErr error
	for _, term := range e.Terms() {
		is, err := term.Tag.Is(item)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			result = false
			continue
		}
		result = result && is == term.Included
	}
	if firstErr != nil {
		return false, firstErr
	}
	return result, nil
}

// Has reports whether tag equals the tag of any term
func (e Expression) Has(tag Tag) bool {
	for _, term := range e.Terms() {
		if term.Tag.Equal(tag) {
			return true
		}
	}
	return false
}

// Remove deletes the first term whose tag equals tag. When the head is
// removed the first remaining term becomes the head. Removing the only
// term fails with ErrLastTerm. It returns false when no term matched.
func (e *Expression) Remove(tag Tag) (bool, error) {
	if e.Head.Tag.Equal(tag) {
		if len(e.Rest) == 0 {
			return false, ErrLastTerm
		}
		e.Head = e.Rest[0]
		e.Rest = append([]Term(nil), e.Rest[1:]...)
		return true, nil
	}
	for i, term := range e.Rest {
		if term.Tag.Equal(tag) {
			e.Rest = append(e.Rest[:i:i], e.Rest[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Push appends a term. Duplicates are allowed.
func (e *Expression) Push(tag Tag, included bool) {
	e.Rest = append(e.Rest, Term{Tag: tag, Included: included})
}

// Clone returns a copy that shares no slices with e
func (e Expression) Clone() Expression {
	clone := Expression{Head: cloneTerm(e.Head)}
	if len(e.Rest) > 0 {
		clone.Rest = make([]Term, len(e.Rest))
		for i, term := range e.Rest {
			clone.Rest[i] = cloneTerm(term)
		}
	}
	return clone
}

func cloneTerm(t Term) Term {
	if ext, ok := t.Tag.Basis.(ExtensionIn); ok {
		t.Tag.Basis = ExtensionIn{Extensions: append([]string{}, ext.Extensions...)}
	}
	return t
}

// Name joins the term names with " & ", prefixing excluded terms with "!"
func (e Expression) Name() string {
	parts := make([]string, 0, e.Len())
	for _, term := range e.Terms() {
		if term.Included {
			parts = append(parts, term.Tag.Name)
		} else {
			parts = append(parts, "!"+term.Tag.Name)
		}
	}
	return strings.Join(parts, " & ")
}

// Description lists the term descriptions, one per line
func (e Expression) Description() string {
	lines := make([]string, 0, e.Len())
	for _, term := range e.Terms() {
		prefix := "is: "
		if !term.Included {
			prefix = "is not: "
		}
		lines = append(lines, prefix+term.Tag.Description)
	}
	return strings.Join(lines, "\n")
}
