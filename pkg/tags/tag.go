package tags

import "github.com/sdejongh/filerules/pkg/models"

// Tag is a named, described basis shown to users
type Tag struct {
	Name        string
	Description string
	Basis       Basis
}

// Is evaluates the tag's basis
func (t Tag) Is(item *models.Item) (bool, error) {
	return t.Basis.Is(item)
}

// Equal reports structural equality: same name, description and basis
func (t Tag) Equal(other Tag) bool {
	return t.Name == other.Name &&
		t.Description == other.Description &&
		basisEqual(t.Basis, other.Basis)
}

func basisEqual(a, b Basis) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ea, aok := a.(ExtensionIn)
	eb, bok := b.(ExtensionIn)
	if aok || bok {
		if !aok || !bok || len(ea.Extensions) != len(eb.Extensions) {
			return false
		}
		for i := range ea.Extensions {
			if ea.Extensions[i] != eb.Extensions[i] {
				return false
			}
		}
		return true
	}
	return a == b
}

// Placeholder is the tag a new expression starts with. It matches only
// entries literally named "dummy.test", so an unedited event selects nothing
// in practice.
func Placeholder() Tag {
	return Tag{
		Name:        "Placeholder",
		Description: "An entry named 'dummy.test'. Used as the initial selector of new events; replace it with a useful tag.",
		Basis:       NameIs{Name: "dummy.test"},
	}
}
