package server

import (
	"fmt"

	"github.com/wardle/snomed-terminology/ecl"
	"github.com/wardle/snomed-terminology/snomed"
)

// eclNode is the JSON wire representation of an ecl.Node. The ecl package
// deliberately has no text grammar (callers build ASTs directly); this is
// this adapter's AST-as-JSON equivalent, letting an HTTP caller express the
// same tree shape ecl.Node already models.
type eclNode struct {
	Op              string             `json:"op"`
	ID              snomed.Identifier  `json:"id,omitempty"`
	RefsetID        snomed.Identifier  `json:"refsetId,omitempty"`
	Left            *eclNode           `json:"left,omitempty"`
	Right           *eclNode           `json:"right,omitempty"`
	Base            *eclNode           `json:"base,omitempty"`
	AttributeTypeID snomed.Identifier  `json:"attributeTypeId,omitempty"`
	Comparator      string             `json:"comparator,omitempty"`
	Value           *eclNode           `json:"value,omitempty"`
	Inner           *eclNode           `json:"inner,omitempty"`
}

func (n *eclNode) toNode() (ecl.Node, error) {
	if n == nil {
		return nil, fmt.Errorf("ecl: missing expression node")
	}
	switch n.Op {
	case "wildcard":
		return ecl.Wildcard{}, nil
	case "concept":
		return ecl.ConceptRef{ID: n.ID}, nil
	case "descendantOf":
		return ecl.DescendantOf{ID: n.ID}, nil
	case "descendantOrSelf":
		return ecl.DescendantOrSelf{ID: n.ID}, nil
	case "ancestorOf":
		return ecl.AncestorOf{ID: n.ID}, nil
	case "ancestorOrSelf":
		return ecl.AncestorOrSelf{ID: n.ID}, nil
	case "memberOf":
		return ecl.MemberOf{RefsetID: n.RefsetID}, nil
	case "and", "or", "minus":
		left, err := n.Left.toNode()
		if err != nil {
			return nil, err
		}
		right, err := n.Right.toNode()
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case "and":
			return ecl.And{Left: left, Right: right}, nil
		case "or":
			return ecl.Or{Left: left, Right: right}, nil
		default:
			return ecl.Minus{Left: left, Right: right}, nil
		}
	case "refinement":
		base, err := n.Base.toNode()
		if err != nil {
			return nil, err
		}
		value, err := n.Value.toNode()
		if err != nil {
			return nil, err
		}
		comparator := n.Comparator
		if comparator == "" {
			comparator = "="
		}
		return ecl.Refinement{Base: base, AttributeTypeID: n.AttributeTypeID, Op: comparator, Value: value}, nil
	case "grouped":
		inner, err := n.Inner.toNode()
		if err != nil {
			return nil, err
		}
		return ecl.Grouped{Inner: inner}, nil
	default:
		return nil, fmt.Errorf("ecl: unknown expression op %q", n.Op)
	}
}
