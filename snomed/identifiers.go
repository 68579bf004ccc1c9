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
	"fmt"
	"strconv"

	"github.com/wardle/snomed-terminology/verhoeff"
)

// Identifier (SCTID) is a checksummed (Verhoeff) globally unique persistent identifier.
// See https://confluence.ihtsdotools.org/display/DOCTIG/3.1.4.2.+Component+features+-+Identifiers
//
// Every component in this engine — concepts, descriptions, relationships,
// refset members, the closure, the ECL evaluator — is keyed by Identifier.
// RF2 defines the SCTID as a 64-bit quantity and reserves the value zero, so
// we use uint64 rather than int64 to give the full non-zero range without a
// sign bit that RF2 data never populates.
type Identifier uint64

// ParseIdentifier converts a string into an identifier without checksum validation.
// An empty string or a value of zero is rejected: RF2 reserves zero and never emits it.
func ParseIdentifier(s string) (Identifier, error) {
	if s == "" {
		return 0, fmt.Errorf("empty identifier")
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, fmt.Errorf("identifier '0' is reserved")
	}
	return Identifier(id), nil
}

// ParseAndValidate converts a string into an identifier and validates its Verhoeff check digit.
func ParseAndValidate(s string) (Identifier, error) {
	id, err := ParseIdentifier(s)
	if err != nil {
		return 0, err
	}
	if !id.IsValid() {
		return 0, fmt.Errorf("invalid identifier '%s': failed Verhoeff check digit", s)
	}
	return id, nil
}

// Integer is a convenience method to convert to a signed integer, for use in
// contexts (protobuf-less JSON, SQL) that do not support unsigned 64-bit values.
func (id Identifier) Integer() int64 {
	return int64(id)
}

// String returns a string representation of this identifier.
func (id Identifier) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IsConcept returns true if this identifier refers to a concept.
func (id Identifier) IsConcept() bool {
	pid := id.partitionIdentifier()
	return pid == "00" || pid == "10"
}

// IsDescription returns true if this identifier refers to a description.
func (id Identifier) IsDescription() bool {
	pid := id.partitionIdentifier()
	return pid == "01" || pid == "11"
}

// isRelationship returns true if this identifier refers to a relationship.
func (id Identifier) isRelationship() bool {
	pid := id.partitionIdentifier()
	return pid == "02" || pid == "12"
}

// IsValid returns true if this is a structurally valid SNOMED CT identifier:
// non-zero and passing the Verhoeff check digit test.
func (id Identifier) IsValid() bool {
	if id == 0 {
		return false
	}
	return verhoeff.ValidateString(id.String())
}

// partitionIdentifier returns the penultimate two digits, the partition identifier.
// See https://confluence.ihtsdotools.org/display/DOCRELFMT/5.5.+Partition+Identifier
// 0123456789
// xxxxxxxppc
func (id Identifier) partitionIdentifier() string {
	s := id.String()
	l := len(s)
	if l < 3 {
		return ""
	}
	return s[l-3 : l-1]
}
