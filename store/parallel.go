package store

import (
	"context"
	"log"

	"github.com/wardle/snomed-terminology/rf2"
	"github.com/wardle/snomed-terminology/snomed"
	"golang.org/x/sync/errgroup"
)

// Loader wires a Catalog (from rf2.Discover) and a decode Config to a Store.
//
// LoadParallel decodes every discovered file concurrently but merges their
// decoded records into the Store sequentially, in the same fixed file order
// LoadSequential uses. Decoding is independent per file (the expensive, CPU-bound
// part); only the cheap map/slice appends are serialized, and always in the
// same order — the "parallel decode + serial merge at a join point" strategy
// spec.md §9 calls for, and what makes Testable Property 8 ("parallel =
// sequential") hold structurally rather than by the luck of goroutine scheduling.
type Loader struct {
	Catalog *rf2.Catalog
	Config  rf2.Config
	Logger  *log.Logger
}

// Stats collects the per-file rf2.Stats produced by one LoadSequential/LoadParallel call.
type Stats struct {
	Concept             rf2.Stats
	Description         rf2.Stats
	Relationship        rf2.Stats
	StatedRelationship  rf2.Stats
	SimpleRefset        rf2.Stats
	LanguageRefset      rf2.Stats
	MRCMDomain          rf2.Stats
	MRCMAttributeDomain rf2.Stats
	MRCMAttributeRange  rf2.Stats
}

// decodeJob decodes one file into memory (Decode) and, once every job in the
// batch has decoded, Merge appends its records into the Store. Jobs run
// Decode concurrently; Merge calls always happen sequentially, in job order.
type decodeJob struct {
	name   string
	decode func() error
	merge  func(s *Store) error
}

func (l *Loader) conceptJob(stats *Stats) decodeJob {
	p := rf2.NewParser[*snomed.Concept]("concept", rf2.ConceptColumns, rf2.DecodeConcept, l.Config, l.Logger)
	var recs []*snomed.Concept
	return decodeJob{
		name: "concept",
		decode: func() error {
			var err error
			recs, stats.Concept, err = p.ParseAll(l.Catalog.ConceptFile)
			return err
		},
		merge: func(s *Store) error {
			for _, c := range recs {
				if err := s.InsertConcept(c); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (l *Loader) descriptionJob(stats *Stats) decodeJob {
	p := rf2.NewParser[*snomed.Description]("description", rf2.DescriptionColumns, rf2.DecodeDescription, l.Config, l.Logger)
	var recs []*snomed.Description
	return decodeJob{
		name: "description",
		decode: func() error {
			var err error
			recs, stats.Description, err = p.ParseAll(l.Catalog.DescriptionFile)
			return err
		},
		merge: func(s *Store) error {
			for _, d := range recs {
				if err := s.InsertDescription(d); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (l *Loader) relationshipJob(stats *Stats) decodeJob {
	p := rf2.NewParser[*snomed.Relationship]("relationship", rf2.RelationshipColumns, rf2.DecodeRelationship, l.Config, l.Logger)
	var recs []*snomed.Relationship
	return decodeJob{
		name: "relationship",
		decode: func() error {
			var err error
			recs, stats.Relationship, err = p.ParseAll(l.Catalog.RelationshipFile)
			return err
		},
		merge: func(s *Store) error {
			for _, r := range recs {
				if err := s.InsertRelationship(r); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (l *Loader) statedRelationshipJob(stats *Stats) (decodeJob, bool) {
	if l.Catalog.StatedRelationshipFile == "" {
		return decodeJob{}, false
	}
	p := rf2.NewParser[*snomed.Relationship]("statedRelationship", rf2.RelationshipColumns, rf2.DecodeRelationship, l.Config, l.Logger)
	var recs []*snomed.Relationship
	return decodeJob{
		name: "statedRelationship",
		decode: func() error {
			var err error
			recs, stats.StatedRelationship, err = p.ParseAll(l.Catalog.StatedRelationshipFile)
			return err
		},
		merge: func(s *Store) error {
			for _, r := range recs {
				if err := s.InsertRelationship(r); err != nil {
					return err
				}
			}
			return nil
		},
	}, true
}

func (l *Loader) simpleRefsetJob(stats *Stats) (decodeJob, bool) {
	if l.Catalog.SimpleRefsetFile == "" {
		return decodeJob{}, false
	}
	p := rf2.NewParser[*snomed.RefsetMember]("simpleRefset", rf2.SimpleRefsetColumns, rf2.DecodeSimpleRefsetMember, l.Config, l.Logger)
	var recs []*snomed.RefsetMember
	return decodeJob{
		name: "simpleRefset",
		decode: func() error {
			var err error
			recs, stats.SimpleRefset, err = p.ParseAll(l.Catalog.SimpleRefsetFile)
			return err
		},
		merge: func(s *Store) error {
			for _, m := range recs {
				if err := s.InsertRefsetMember(m); err != nil {
					return err
				}
			}
			return nil
		},
	}, true
}

func (l *Loader) languageRefsetJob(stats *Stats) (decodeJob, bool) {
	if l.Catalog.LanguageRefsetFile == "" {
		return decodeJob{}, false
	}
	p := rf2.NewParser[*snomed.LanguageRefsetMember]("languageRefset", rf2.LanguageRefsetColumns, rf2.DecodeLanguageRefsetMember, l.Config, l.Logger)
	var recs []*snomed.LanguageRefsetMember
	return decodeJob{
		name: "languageRefset",
		decode: func() error {
			var err error
			recs, stats.LanguageRefset, err = p.ParseAll(l.Catalog.LanguageRefsetFile)
			return err
		},
		merge: func(s *Store) error {
			for _, m := range recs {
				if err := s.InsertRefsetMember(&m.RefsetMember); err != nil {
					return err
				}
			}
			return nil
		},
	}, true
}

func (l *Loader) mrcmDomainJob(stats *Stats) (decodeJob, bool) {
	if l.Catalog.MRCMDomainFile == "" {
		return decodeJob{}, false
	}
	p := rf2.NewParser[*snomed.MRCMDomain]("mrcmDomain", rf2.MRCMDomainColumns, rf2.DecodeMRCMDomain, l.Config, l.Logger)
	var recs []*snomed.MRCMDomain
	return decodeJob{
		name: "mrcmDomain",
		decode: func() error {
			var err error
			recs, stats.MRCMDomain, err = p.ParseAll(l.Catalog.MRCMDomainFile)
			return err
		},
		merge: func(s *Store) error {
			for _, m := range recs {
				if err := s.InsertMRCMDomain(m); err != nil {
					return err
				}
			}
			return nil
		},
	}, true
}

func (l *Loader) mrcmAttributeDomainJob(stats *Stats) (decodeJob, bool) {
	if l.Catalog.MRCMAttributeDomainFile == "" {
		return decodeJob{}, false
	}
	p := rf2.NewParser[*snomed.MRCMAttributeDomain]("mrcmAttributeDomain", rf2.MRCMAttributeDomainColumns, rf2.DecodeMRCMAttributeDomain, l.Config, l.Logger)
	var recs []*snomed.MRCMAttributeDomain
	return decodeJob{
		name: "mrcmAttributeDomain",
		decode: func() error {
			var err error
			recs, stats.MRCMAttributeDomain, err = p.ParseAll(l.Catalog.MRCMAttributeDomainFile)
			return err
		},
		merge: func(s *Store) error {
			for _, m := range recs {
				if err := s.InsertMRCMAttributeDomain(m); err != nil {
					return err
				}
			}
			return nil
		},
	}, true
}

func (l *Loader) mrcmAttributeRangeJob(stats *Stats) (decodeJob, bool) {
	if l.Catalog.MRCMAttributeRangeFile == "" {
		return decodeJob{}, false
	}
	p := rf2.NewParser[*snomed.MRCMAttributeRange]("mrcmAttributeRange", rf2.MRCMAttributeRangeColumns, rf2.DecodeMRCMAttributeRange, l.Config, l.Logger)
	var recs []*snomed.MRCMAttributeRange
	return decodeJob{
		name: "mrcmAttributeRange",
		decode: func() error {
			var err error
			recs, stats.MRCMAttributeRange, err = p.ParseAll(l.Catalog.MRCMAttributeRangeFile)
			return err
		},
		merge: func(s *Store) error {
			for _, m := range recs {
				if err := s.InsertMRCMAttributeRange(m); err != nil {
					return err
				}
			}
			return nil
		},
	}, true
}

// allJobs returns every applicable job in the fixed canonical order: concept,
// description, relationship, then whichever optional files the catalog names.
// Both LoadSequential and LoadParallel merge in exactly this order.
func (l *Loader) allJobs(stats *Stats) []decodeJob {
	jobs := []decodeJob{l.conceptJob(stats), l.descriptionJob(stats), l.relationshipJob(stats)}
	optional := []func(*Stats) (decodeJob, bool){
		l.statedRelationshipJob, l.simpleRefsetJob, l.languageRefsetJob,
		l.mrcmDomainJob, l.mrcmAttributeDomainJob, l.mrcmAttributeRangeJob,
	}
	for _, f := range optional {
		if j, ok := f(stats); ok {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// LoadSequential decodes and merges every discovered file one after another.
// This is the reference behavior LoadParallel's result must match exactly.
func (l *Loader) LoadSequential(s *Store) (Stats, error) {
	var stats Stats
	for _, j := range l.allJobs(&stats) {
		if err := j.decode(); err != nil {
			return stats, err
		}
		if err := j.merge(s); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// LoadParallel decodes every discovered file concurrently via errgroup, then
// merges the decoded records into s sequentially in the same fixed job order
// LoadSequential uses. The final store is therefore identical to
// LoadSequential's regardless of goroutine scheduling: only the CPU-bound
// decode step runs in parallel, never the map/slice mutation.
func (l *Loader) LoadParallel(ctx context.Context, s *Store) (Stats, error) {
	var stats Stats
	jobs := l.allJobs(&stats)
	g, gctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			return j.decode()
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	for _, j := range jobs {
		if err := j.merge(s); err != nil {
			return stats, err
		}
	}
	return stats, nil
}
