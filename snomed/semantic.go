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

// Well-known concept identifiers, predominantly from the SNOMED CT metadata hierarchy.
// These are compile-time constants rather than data read from a release, because the
// engine needs them before any release has been loaded (to classify IS_A relationships
// during ingestion, for instance).
const (
	// Root is the root concept of the entire hierarchy, |SNOMED CT Concept|.
	Root Identifier = 138875005

	// IsA is the relationship type identifier for the subsumption ("is a") relationship.
	IsA Identifier = 116680003

	// BritishEnglishLanguageReferenceSet is the language refset for British English.
	BritishEnglishLanguageReferenceSet Identifier = 900000000000508004
	// USEnglishLanguageReferenceSet is the language refset for American English.
	USEnglishLanguageReferenceSet Identifier = 900000000000509007

	// FullySpecifiedName is the description type identifier for a fully specified name.
	FullySpecifiedName Identifier = 900000000000003001
	// Synonym is the description type identifier for a synonym (which may be preferred or acceptable).
	Synonym Identifier = 900000000000013009
	// TextDefinition is the description type identifier for a definition.
	TextDefinition Identifier = 900000000000550004

	// Primitive marks a concept as primitive (insufficiently defined to be computably distinguished).
	Primitive Identifier = 900000000000074008
	// Defined marks a concept as sufficiently defined.
	Defined Identifier = 900000000000073002

	// EntireTermCaseInsensitive, EntireTermCaseSensitive and InitialCharacterCaseSensitive are
	// the three case significance values a description may carry.
	EntireTermCaseInsensitive     Identifier = 900000000000448009
	EntireTermCaseSensitive       Identifier = 900000000000017005
	InitialCharacterCaseSensitive Identifier = 900000000000020002

	// AdditionalRelationship, DefiningRelationship, InferredRelationship, StatedRelationship and
	// QualifyingRelationship are the characteristic type values a relationship may carry.
	AdditionalRelationship Identifier = 900000000000227009
	DefiningRelationship   Identifier = 900000000000006009
	InferredRelationship   Identifier = 900000000000011006
	StatedRelationship     Identifier = 900000000000010007
	QualifyingRelationship Identifier = 900000000000225001

	// Preferred and Acceptable are the acceptability values carried by a language refset member.
	Preferred  Identifier = 900000000000548007
	Acceptable Identifier = 900000000000549004

	// SimpleRefset, LanguageRefset, MRCMDomainRefset, MRCMAttributeDomainRefset and
	// MRCMAttributeRangeRefset identify the refset "kind" by its own concept identifier,
	// as distinct from rf2's filename-based classification of which *file* holds them.
	SimpleRefset              Identifier = 446609009
	LanguageRefset            Identifier = 900000000000506000
	MRCMDomainRefset          Identifier = 723560006
	MRCMAttributeDomainRefset Identifier = 723561005
	MRCMAttributeRangeRefset  Identifier = 723562003
)
