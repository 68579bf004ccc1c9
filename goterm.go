// SNOMED CT command line utility and terminology server
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
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/text/language"

	"github.com/wardle/snomed-terminology/closure"
	"github.com/wardle/snomed-terminology/rf2"
	"github.com/wardle/snomed-terminology/search"
	"github.com/wardle/snomed-terminology/server"
	"github.com/wardle/snomed-terminology/store"
	"github.com/wardle/snomed-terminology/terminology"
)

// automatically populated by linker flags
var version string
var build string

// commands and flags
var doVersion = flag.Bool("version", false, "show version information")
var source = flag.String("source", "", "RF2 release source: a directory path, or an s3:// URI")
var activeOnly = flag.Bool("active-only", false, "drop inactive rows while loading")
var parallel = flag.Bool("parallel", true, "decode RF2 files concurrently during loading")
var closureCachePath = flag.String("closure-cache", "", "optional bbolt file used to cache the transitive closure across runs")
var bleveIndexPath = flag.String("bleve-index", "", "optional bleve index path; a plain substring index is used if empty")
var lang = flag.String("lang", "en-GB", "preferred language tag(s); the best installed match is logged with -v")
var verbose = flag.Bool("v", false, "verbose")
var doStatus = flag.Bool("status", false, "print store statistics once loading completes")
var runserver = flag.Bool("server", false, "run the terminology HTTP server")
var addr = flag.String("addr", ":8080", "address to listen on when running the server")

func main() {
	flag.Parse()
	if *doVersion {
		fmt.Printf("%s v%s (%s)\n", os.Args[0], version, build)
		os.Exit(1)
	}
	if *source == "" {
		fmt.Fprint(os.Stderr, "error: missing mandatory -source\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	logger := log.New(os.Stderr, "", log.LstdFlags)
	ctx := context.Background()

	catalog, err := rf2.DiscoverFromSource(ctx, *source, rf2.DiscoverOptions{})
	if err != nil {
		log.Fatalf("discovery failed: %v", err)
	}

	cfg := rf2.Config{ActiveOnly: *activeOnly, BatchSize: 1000}
	s := store.New()
	loader := &store.Loader{Catalog: catalog, Config: cfg, Logger: logger}

	var stats store.Stats
	if *parallel {
		stats, err = loader.LoadParallel(ctx, s)
	} else {
		stats, err = loader.LoadSequential(s)
	}
	if err != nil {
		log.Fatalf("load failed: %v", err)
	}
	if *verbose {
		logger.Printf("loaded %s: concepts=%d descriptions=%d relationships=%d",
			catalog.ReleaseDate, stats.Concept.RecordsAccepted, stats.Description.RecordsAccepted, stats.Relationship.RecordsAccepted)
	}

	c := loadOrBuildClosure(s, catalog, logger)
	s.SetClosure(c)
	s.Freeze()

	idx, err := buildSearchIndex(s)
	if err != nil {
		log.Fatalf("search index build failed: %v", err)
	}

	svc := terminology.NewService(s, idx)
	defer svc.Close()

	if preferred, _, err := language.ParseAcceptLanguage(*lang); err == nil {
		best := svc.Match(preferred)
		if *verbose {
			logger.Printf("resolved preferred language: %s", best)
		}
	}

	if *doStatus {
		fmt.Print(svc.Statistics())
	}

	if *runserver {
		log.Fatal(server.RunServer(svc, *addr))
	}
}

// loadOrBuildClosure consults the optional disk cache first (tagged by
// release date plus the three mandatory source files' paths, standing in for
// the content hashes spec.md §6 describes since this adapter never reads the
// files twice just to hash them), falling back to a fresh build on any miss.
func loadOrBuildClosure(s *store.Store, catalog *rf2.Catalog, logger *log.Logger) *closure.Closure {
	if *closureCachePath == "" {
		c, err := closure.Build(s, logger)
		if err != nil {
			log.Fatalf("closure build failed: %v", err)
		}
		return c
	}
	cache, err := closure.OpenDiskCache(*closureCachePath)
	if err != nil {
		log.Fatalf("closure cache open failed: %v", err)
	}
	defer cache.Close()

	tag := closure.Tag(catalog.ReleaseDate, []string{catalog.ConceptFile, catalog.DescriptionFile, catalog.RelationshipFile})
	if cached, found, err := cache.Load(tag); err == nil && found {
		if *verbose {
			logger.Printf("closure cache hit for tag %s", tag)
		}
		return cached
	}

	c, err := closure.Build(s, logger)
	if err != nil {
		log.Fatalf("closure build failed: %v", err)
	}
	if err := cache.Store(tag, c); err != nil {
		logger.Printf("closure cache store failed (continuing without it): %v", err)
	}
	return c
}

// buildSearchIndex populates either a bleve-backed or substring search index
// from every description in the now-frozen store.
func buildSearchIndex(s *store.Store) (search.Index, error) {
	var idx search.Index
	if *bleveIndexPath != "" {
		bi, err := search.NewBleveIndex(*bleveIndexPath, false)
		if err != nil {
			return nil, err
		}
		idx = bi
	} else {
		idx = search.NewSubstringIndex()
	}
	for _, id := range s.AllConceptIDs() {
		for _, d := range s.GetDescriptions(id) {
			if err := idx.Put(d); err != nil {
				return nil, err
			}
		}
	}
	return idx, nil
}
