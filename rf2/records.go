package rf2

import (
	"time"

	"github.com/google/uuid"
	"github.com/wardle/snomed-terminology/snomed"
)

// ConceptColumns is the exact, ordered RF2 header for a Concept snapshot file.
var ConceptColumns = []string{"id", "effectiveTime", "active", "moduleId", "definitionStatusId"}

// DescriptionColumns is the exact, ordered RF2 header for a Description snapshot file.
var DescriptionColumns = []string{"id", "effectiveTime", "active", "moduleId", "conceptId", "languageCode", "typeId", "term", "caseSignificanceId"}

// RelationshipColumns is the exact, ordered RF2 header for a Relationship (stated or inferred) snapshot file.
var RelationshipColumns = []string{"id", "effectiveTime", "active", "moduleId", "sourceId", "destinationId", "relationshipGroup", "typeId", "characteristicTypeId", "modifierId"}

// SimpleRefsetColumns is the exact, ordered RF2 header for a simple reference set snapshot file.
var SimpleRefsetColumns = []string{"id", "effectiveTime", "active", "moduleId", "refsetId", "referencedComponentId"}

// LanguageRefsetColumns is the exact, ordered RF2 header for a language reference set snapshot file.
var LanguageRefsetColumns = []string{"id", "effectiveTime", "active", "moduleId", "refsetId", "referencedComponentId", "acceptabilityId"}

// MRCMDomainColumns is the exact, ordered RF2 header for an MRCM domain reference set snapshot file.
var MRCMDomainColumns = []string{"id", "effectiveTime", "active", "moduleId", "refsetId", "referencedComponentId",
	"domainConstraint", "parentDomain", "proximalPrimitiveConstraint", "proximalPrimitiveRefinement",
	"domainTemplateForPrecoordination", "domainTemplateForPostcoordination", "guideURL"}

// MRCMAttributeDomainColumns is the exact, ordered RF2 header for an MRCM attribute-domain refset snapshot file.
var MRCMAttributeDomainColumns = []string{"id", "effectiveTime", "active", "moduleId", "refsetId", "referencedComponentId",
	"domainId", "grouped", "attributeCardinality", "attributeInGroupCardinality", "ruleStrengthId", "contentTypeId"}

// MRCMAttributeRangeColumns is the exact, ordered RF2 header for an MRCM attribute-range refset snapshot file.
var MRCMAttributeRangeColumns = []string{"id", "effectiveTime", "active", "moduleId", "refsetId", "referencedComponentId",
	"rangeConstraint", "attributeRule", "ruleStrengthId", "contentTypeId"}

// decodeCommon decodes the five columns every RF2 row kind shares. ok reports
// whether every SCTID field decoded to a real identifier; ok=false means at
// least one was empty and tolerated under cfg.TolerateEmptySctID, and the
// caller must drop the row (counted, not a decode error) rather than keep a
// record built around the reserved zero identifier.
func decodeCommon(cfg Config, row []string) (id snomed.Identifier, effectiveTime time.Time, active bool, moduleID snomed.Identifier, ok bool, dateWarning bool, err error) {
	var idOk, moduleOk bool
	id, idOk, err = decodeSCTID(cfg, row[0])
	if err != nil {
		return
	}
	effectiveTime, semanticallyValid, derr := decodeDate(row[1])
	if derr != nil {
		err = derr
		return
	}
	dateWarning = !semanticallyValid
	active, err = decodeBool(row[2])
	if err != nil {
		return
	}
	moduleID, moduleOk, err = decodeSCTID(cfg, row[3])
	ok = idOk && moduleOk
	return
}

// DecodeConcept decodes one Concept row.
func DecodeConcept(cfg Config, row []string) (*snomed.Concept, bool, bool, error) {
	id, et, active, moduleID, ok, warn, err := decodeCommon(cfg, row)
	if err != nil {
		return nil, false, false, err
	}
	defnID, defnOk, err := decodeSCTID(cfg, row[4])
	if err != nil {
		return nil, false, false, err
	}
	if !ok || !defnOk {
		return nil, false, warn, nil
	}
	if cfg.ActiveOnly && !active {
		return nil, false, warn, nil
	}
	return &snomed.Concept{ID: id, EffectiveTime: et, Active: active, ModuleID: moduleID, DefinitionStatusID: defnID}, true, warn, nil
}

// DecodeDescription decodes one Description row, applying language and type filters.
func DecodeDescription(cfg Config, row []string) (*snomed.Description, bool, bool, error) {
	id, et, active, moduleID, ok, warn, err := decodeCommon(cfg, row)
	if err != nil {
		return nil, false, false, err
	}
	conceptID, conceptOk, err := decodeSCTID(cfg, row[4])
	if err != nil {
		return nil, false, false, err
	}
	languageCode := row[5]
	typeID, typeOk, err := decodeSCTID(cfg, row[6])
	if err != nil {
		return nil, false, false, err
	}
	term := row[7]
	caseSig, caseSigOk, err := decodeSCTID(cfg, row[8])
	if err != nil {
		return nil, false, false, err
	}
	if !ok || !conceptOk || !typeOk || !caseSigOk {
		return nil, false, warn, nil
	}
	if cfg.ActiveOnly && !active {
		return nil, false, warn, nil
	}
	if !cfg.languageAllowed(languageCode) || !cfg.typeAllowed(typeID) {
		return nil, false, warn, nil
	}
	d := &snomed.Description{ID: id, EffectiveTime: et, Active: active, ModuleID: moduleID, ConceptID: conceptID,
		LanguageCode: languageCode, TypeID: typeID, Term: term, CaseSignificance: caseSig}
	return d, true, warn, nil
}

// DecodeRelationship decodes one Relationship row, applying the characteristic-type filter.
func DecodeRelationship(cfg Config, row []string) (*snomed.Relationship, bool, bool, error) {
	id, et, active, moduleID, ok, warn, err := decodeCommon(cfg, row)
	if err != nil {
		return nil, false, false, err
	}
	sourceID, sourceOk, err := decodeSCTID(cfg, row[4])
	if err != nil {
		return nil, false, false, err
	}
	destinationID, destOk, err := decodeSCTID(cfg, row[5])
	if err != nil {
		return nil, false, false, err
	}
	group, err := decodeInt(row[6])
	if err != nil {
		return nil, false, false, err
	}
	typeID, typeOk, err := decodeSCTID(cfg, row[7])
	if err != nil {
		return nil, false, false, err
	}
	characteristicTypeID, charOk, err := decodeSCTID(cfg, row[8])
	if err != nil {
		return nil, false, false, err
	}
	modifierID, modifierOk, err := decodeSCTID(cfg, row[9])
	if err != nil {
		return nil, false, false, err
	}
	if !ok || !sourceOk || !destOk || !typeOk || !charOk || !modifierOk {
		return nil, false, warn, nil
	}
	if cfg.ActiveOnly && !active {
		return nil, false, warn, nil
	}
	if !cfg.characteristicTypeAllowed(characteristicTypeID) {
		return nil, false, warn, nil
	}
	r := &snomed.Relationship{ID: id, EffectiveTime: et, Active: active, ModuleID: moduleID,
		SourceID: sourceID, DestinationID: destinationID, Group: group, TypeID: typeID,
		CharacteristicTypeID: characteristicTypeID, ModifierID: modifierID}
	return r, true, warn, nil
}

// decodeRefsetMember decodes the six columns every refset row kind shares. ok
// reports whether every SCTID field (moduleId, refsetId, referencedComponentId)
// decoded to a real identifier, mirroring decodeCommon's tolerated-empty signal.
func decodeRefsetMember(cfg Config, row []string) (snomed.RefsetMember, bool, bool, error) {
	if _, err := uuid.Parse(row[0]); err != nil {
		// RF2 member identifiers are UUIDs; tolerate non-canonical ones but never silently
		// substitute — the id is kept as the raw string regardless of parse success.
		_ = err
	}
	et, semanticallyValid, err := decodeDate(row[1])
	if err != nil {
		return snomed.RefsetMember{}, false, false, err
	}
	active, err := decodeBool(row[2])
	if err != nil {
		return snomed.RefsetMember{}, false, false, err
	}
	moduleID, moduleOk, err := decodeSCTID(cfg, row[3])
	if err != nil {
		return snomed.RefsetMember{}, false, false, err
	}
	refsetID, refsetOk, err := decodeSCTID(cfg, row[4])
	if err != nil {
		return snomed.RefsetMember{}, false, false, err
	}
	refComponentID, refComponentOk, err := decodeSCTID(cfg, row[5])
	if err != nil {
		return snomed.RefsetMember{}, false, false, err
	}
	m := snomed.RefsetMember{ID: row[0], EffectiveTime: et, Active: active, ModuleID: moduleID,
		RefsetID: refsetID, ReferencedComponentID: refComponentID}
	return m, moduleOk && refsetOk && refComponentOk, !semanticallyValid, nil
}

// DecodeSimpleRefsetMember decodes one simple reference set row.
func DecodeSimpleRefsetMember(cfg Config, row []string) (*snomed.RefsetMember, bool, bool, error) {
	m, ok, warn, err := decodeRefsetMember(cfg, row)
	if err != nil {
		return nil, false, false, err
	}
	if !ok {
		return nil, false, warn, nil
	}
	if cfg.ActiveOnly && !m.Active {
		return nil, false, warn, nil
	}
	return &m, true, warn, nil
}

// DecodeLanguageRefsetMember decodes one language reference set row.
func DecodeLanguageRefsetMember(cfg Config, row []string) (*snomed.LanguageRefsetMember, bool, bool, error) {
	m, ok, warn, err := decodeRefsetMember(cfg, row)
	if err != nil {
		return nil, false, false, err
	}
	acceptabilityID, acceptabilityOk, err := decodeSCTID(cfg, row[6])
	if err != nil {
		return nil, false, false, err
	}
	if !ok || !acceptabilityOk {
		return nil, false, warn, nil
	}
	if cfg.ActiveOnly && !m.Active {
		return nil, false, warn, nil
	}
	return &snomed.LanguageRefsetMember{RefsetMember: m, AcceptabilityID: acceptabilityID}, true, warn, nil
}

// DecodeMRCMDomain decodes one MRCM domain reference set row.
func DecodeMRCMDomain(cfg Config, row []string) (*snomed.MRCMDomain, bool, bool, error) {
	m, ok, warn, err := decodeRefsetMember(cfg, row)
	if err != nil {
		return nil, false, false, err
	}
	if !ok {
		return nil, false, warn, nil
	}
	if cfg.ActiveOnly && !m.Active {
		return nil, false, warn, nil
	}
	return &snomed.MRCMDomain{
		RefsetMember:                      m,
		DomainConstraint:                  row[6],
		ParentDomain:                      row[7],
		ProximalPrimitiveConstraint:       row[8],
		ProximalPrimitiveRefinement:       row[9],
		DomainTemplateForPrecoordination:  row[10],
		DomainTemplateForPostcoordination: row[11],
		GuideURL:                          row[12],
	}, true, warn, nil
}

// DecodeMRCMAttributeDomain decodes one MRCM attribute-domain reference set row.
func DecodeMRCMAttributeDomain(cfg Config, row []string) (*snomed.MRCMAttributeDomain, bool, bool, error) {
	m, ok, warn, err := decodeRefsetMember(cfg, row)
	if err != nil {
		return nil, false, false, err
	}
	domainID, domainOk, err := decodeSCTID(cfg, row[6])
	if err != nil {
		return nil, false, false, err
	}
	grouped, err := decodeBool(row[7])
	if err != nil {
		return nil, false, false, err
	}
	ruleStrengthID, ruleStrengthOk, err := decodeSCTID(cfg, row[10])
	if err != nil {
		return nil, false, false, err
	}
	contentTypeID, contentTypeOk, err := decodeSCTID(cfg, row[11])
	if err != nil {
		return nil, false, false, err
	}
	if !ok || !domainOk || !ruleStrengthOk || !contentTypeOk {
		return nil, false, warn, nil
	}
	if cfg.ActiveOnly && !m.Active {
		return nil, false, warn, nil
	}
	return &snomed.MRCMAttributeDomain{
		RefsetMember:                m,
		DomainID:                    domainID,
		Grouped:                     grouped,
		AttributeCardinality:        row[8],
		AttributeInGroupCardinality: row[9],
		RuleStrengthID:              ruleStrengthID,
		ContentTypeID:               contentTypeID,
	}, true, warn, nil
}

// DecodeMRCMAttributeRange decodes one MRCM attribute-range reference set row.
func DecodeMRCMAttributeRange(cfg Config, row []string) (*snomed.MRCMAttributeRange, bool, bool, error) {
	m, ok, warn, err := decodeRefsetMember(cfg, row)
	if err != nil {
		return nil, false, false, err
	}
	ruleStrengthID, ruleStrengthOk, err := decodeSCTID(cfg, row[8])
	if err != nil {
		return nil, false, false, err
	}
	contentTypeID, contentTypeOk, err := decodeSCTID(cfg, row[9])
	if err != nil {
		return nil, false, false, err
	}
	if !ok || !ruleStrengthOk || !contentTypeOk {
		return nil, false, warn, nil
	}
	if cfg.ActiveOnly && !m.Active {
		return nil, false, warn, nil
	}
	return &snomed.MRCMAttributeRange{
		RefsetMember:    m,
		RangeConstraint: row[6],
		AttributeRule:   row[7],
		RuleStrengthID:  ruleStrengthID,
		ContentTypeID:   contentTypeID,
	}, true, warn, nil
}
