// Package snomed defines the data model for SNOMED CT RF2 releases.
// See https://confluence.ihtsdotools.org/display/DOCRELFMT/SNOMED+CT+Release+File+Specifications
//
// These structures are in-memory records, one per currently-active-or-not
// row accepted by the rf2 parser; they are not a general representation of
// every version of a component that has ever existed (a Full distribution).
// Only Snapshot files are supported, matching the rest of this engine.
//
// Copyright 2018 Mark Wardle / Eldrix Ltd
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.
//
package snomed

import (
	"time"
	"unicode"

	"golang.org/x/text/language"
)

// Concept represents a single SNOMED CT concept.
// See https://confluence.ihtsdotools.org/display/DOCRELFMT/3.2.1.+Concept+File+Specification
type Concept struct {
	ID                 Identifier
	EffectiveTime      time.Time
	Active             bool
	ModuleID           Identifier
	DefinitionStatusID Identifier
}

// IsSufficientlyDefined returns whether this concept has a formal logic definition sufficient
// to distinguish its meaning from other similar concepts.
func (c *Concept) IsSufficientlyDefined() bool {
	return c.DefinitionStatusID == Defined
}

// Description holds a single human-readable synonym for a concept.
// See https://confluence.ihtsdotools.org/display/DOCRELFMT/3.2.2.+Description+File+Specification
type Description struct {
	ID               Identifier
	EffectiveTime    time.Time
	Active           bool
	ModuleID         Identifier
	ConceptID        Identifier
	LanguageCode     string
	TypeID           Identifier
	Term             string
	CaseSignificance Identifier
}

// LanguageTag returns the language tag for this description.
func (d *Description) LanguageTag() language.Tag {
	return language.Make(d.LanguageCode)
}

// IsFullySpecifiedName returns whether this is a fully specified name.
func (d *Description) IsFullySpecifiedName() bool {
	return d.TypeID == FullySpecifiedName
}

// IsSynonym returns whether this is a synonym (which may or may not be preferred).
func (d *Description) IsSynonym() bool {
	return d.TypeID == Synonym
}

// Uncapitalized returns the term appropriately uncapitalized, respecting case significance.
func (d *Description) Uncapitalized() string {
	if d.CaseSignificance == EntireTermCaseSensitive || d.CaseSignificance == InitialCharacterCaseSensitive {
		return d.Term
	}
	for i, v := range d.Term {
		return string(unicode.ToLower(v)) + d.Term[i+1:]
	}
	return ""
}

// Relationship defines a relationship between a source and destination concept, itself typed by a concept.
// See https://confluence.ihtsdotools.org/display/DOCRELFMT/3.2.3.+Relationship+File+Specification
type Relationship struct {
	ID                   Identifier
	EffectiveTime        time.Time
	Active               bool
	ModuleID             Identifier
	SourceID             Identifier
	DestinationID        Identifier
	Group                int
	TypeID               Identifier
	CharacteristicTypeID Identifier
	ModifierID           Identifier
}

// IsA returns whether this relationship is an active IS_A (subsumption) relationship.
func (r *Relationship) IsA() bool {
	return r.Active && r.TypeID == IsA
}

// IsDefiningRelationship returns whether this relationship is always necessarily true
// of any instance of the source concept (defining, inferred or stated characteristic type).
func (r *Relationship) IsDefiningRelationship() bool {
	t := r.CharacteristicTypeID
	return t == DefiningRelationship || t == InferredRelationship || t == StatedRelationship
}

// RefsetMember is the common shape of a simple reference set row: a component (usually a
// concept or description) referenced by a refset, plus whatever trailing columns that
// refset's pattern defines. RF2 gives refset member identifiers as 128-bit UUIDs, not SCTIDs.
type RefsetMember struct {
	ID                    string
	EffectiveTime         time.Time
	Active                bool
	ModuleID              Identifier
	RefsetID              Identifier
	ReferencedComponentID Identifier
}

// LanguageRefsetMember extends RefsetMember with the acceptability of a description
// within a particular dialect/language refset.
type LanguageRefsetMember struct {
	RefsetMember
	AcceptabilityID Identifier
}

// IsPreferred returns whether this member marks its referenced description as preferred.
func (m *LanguageRefsetMember) IsPreferred() bool {
	return m.AcceptabilityID == Preferred
}

// IsAcceptable returns whether this member marks its referenced description as acceptable
// (preferred members are also acceptable).
func (m *LanguageRefsetMember) IsAcceptable() bool {
	return m.AcceptabilityID == Preferred || m.AcceptabilityID == Acceptable
}

// MRCMDomain describes a domain constraint rule: which expressions may populate a given domain.
// Stored by id; evaluated by an external MRCM validator, not by this engine's ECL evaluator.
type MRCMDomain struct {
	RefsetMember
	DomainConstraint        string
	ParentDomain            string
	ProximalPrimitiveConstraint string
	ProximalPrimitiveRefinement string
	DomainTemplateForPrecoordination   string
	DomainTemplateForPostcoordination  string
	GuideURL                 string
}

// MRCMAttributeDomain describes which attributes are permitted within a domain, and
// whether occurrences of that attribute for a concept must share a role group.
type MRCMAttributeDomain struct {
	RefsetMember
	DomainID              Identifier
	Grouped               bool
	AttributeCardinality  string
	AttributeInGroupCardinality string
	RuleStrengthID        Identifier
	ContentTypeID         Identifier
}

// MRCMAttributeRange describes the permitted value range (expression constraint) for an attribute.
type MRCMAttributeRange struct {
	RefsetMember
	RangeConstraint string
	AttributeRule   string
	RuleStrengthID  Identifier
	ContentTypeID   Identifier
}
