package tags

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sdejongh/filerules/pkg/models"
)

// basisDoc is the serialized form shared by the JSON and YAML codecs
type basisDoc struct {
	Kind       Kind            `json:"kind" yaml:"kind"`
	Type       models.ItemType `json:"type,omitempty" yaml:"type,omitempty"`
	Name       string          `json:"name,omitempty" yaml:"name,omitempty"`
	Extensions []string        `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	Bytes      int64           `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Op         CountOp         `json:"op,omitempty" yaml:"op,omitempty"`
	Count      int             `json:"count,omitempty" yaml:"count,omitempty"`
	Age        string          `json:"age,omitempty" yaml:"age,omitempty"`
}

func encodeBasis(b Basis) (basisDoc, error) {
	switch v := b.(type) {
	case TypeIs:
		return basisDoc{Kind: KindType, Type: v.Type}, nil
	case NameIs:
		return basisDoc{Kind: KindName, Name: v.Name}, nil
	case ExtensionIn:
		return basisDoc{Kind: KindExtension, Extensions: v.Extensions}, nil
	case SizeLessThan:
		return basisDoc{Kind: KindSizeLessThan, Bytes: v.Bytes}, nil
	case SizeGreaterThan:
		return basisDoc{Kind: KindSizeGreaterThan, Bytes: v.Bytes}, nil
	case ChildCount:
		return basisDoc{Kind: KindChildCount, Op: v.Op, Count: v.N}, nil
	case AgeLessThan:
		return basisDoc{Kind: KindAgeLessThan, Age: v.Age.String()}, nil
	case AgeGreaterThan:
		return basisDoc{Kind: KindAgeGreaterThan, Age: v.Age.String()}, nil
	case Content:
		if !isContentKind(v.Category) {
			return basisDoc{}, fmt.Errorf("unknown content category %q", v.Category)
		}
		return basisDoc{Kind: v.Category}, nil
	case nil:
		return basisDoc{}, fmt.Errorf("missing basis")
	default:
		return basisDoc{}, fmt.Errorf("unsupported basis %T", b)
	}
}

func decodeBasis(d basisDoc) (Basis, error) {
	switch d.Kind {
	case KindType:
		if !d.Type.Valid() {
			return nil, fmt.Errorf("invalid item type %q", d.Type)
		}
		return TypeIs{Type: d.Type}, nil
	case KindName:
		return NameIs{Name: d.Name}, nil
	case KindExtension:
		exts := d.Extensions
		if exts == nil {
			exts = []string{}
		}
		return ExtensionIn{Extensions: exts}, nil
	case KindSizeLessThan:
		return SizeLessThan{Bytes: d.Bytes}, nil
	case KindSizeGreaterThan:
		return SizeGreaterThan{Bytes: d.Bytes}, nil
	case KindChildCount:
		switch d.Op {
		case CountLess, CountEqual, CountGreater:
		default:
			return nil, fmt.Errorf("invalid child count operator %q", d.Op)
		}
		return ChildCount{Op: d.Op, N: d.Count}, nil
	case KindAgeLessThan, KindAgeGreaterThan:
		age, err := parseAge(d.Age)
		if err != nil {
			return nil, err
		}
		if d.Kind == KindAgeLessThan {
			return AgeLessThan{Age: age}, nil
		}
		return AgeGreaterThan{Age: age}, nil
	case KindImage, KindVideo, KindAudio, KindDocument, KindArchive, KindBook:
		return Content{Category: d.Kind}, nil
	case "":
		return nil, fmt.Errorf("basis kind is required")
	default:
		return nil, fmt.Errorf("unknown basis kind %q", d.Kind)
	}
}

func parseAge(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	age, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid age %q: %w", s, err)
	}
	return age, nil
}

// tagDoc is the serialized form of a Tag
type tagDoc struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Basis       basisDoc `json:"basis" yaml:"basis"`
}

func (t Tag) toDoc() (tagDoc, error) {
	basis, err := encodeBasis(t.Basis)
	if err != nil {
		return tagDoc{}, fmt.Errorf("tag %q: %w", t.Name, err)
	}
	return tagDoc{Name: t.Name, Description: t.Description, Basis: basis}, nil
}

func (d tagDoc) toTag() (Tag, error) {
	basis, err := decodeBasis(d.Basis)
	if err != nil {
		return Tag{}, fmt.Errorf("tag %q: %w", d.Name, err)
	}
	return Tag{Name: d.Name, Description: d.Description, Basis: basis}, nil
}

// MarshalJSON implements json.Marshaler
func (t Tag) MarshalJSON() ([]byte, error) {
	doc, err := t.toDoc()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Tag) UnmarshalJSON(data []byte) error {
	var doc tagDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	tag, err := doc.toTag()
	if err != nil {
		return err
	}
	*t = tag
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (t Tag) MarshalYAML() (interface{}, error) {
	return t.toDoc()
}

// UnmarshalYAML implements yaml.Unmarshaler
func (t *Tag) UnmarshalYAML(node *yaml.Node) error {
	var doc tagDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}
	tag, err := doc.toTag()
	if err != nil {
		return err
	}
	*t = tag
	return nil
}
