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

package terminology

import (
	"log"

	"golang.org/x/text/language"

	"github.com/wardle/snomed-terminology/snomed"
)

// Language defines a mapping between standard ISO language tags and the
// associated SNOMED CT language reference sets.
type Language int

// Supported languages
const (
	AmericanEnglish Language = iota
	BritishEnglish
	French
	Spanish
	Danish
	lastLanguage
)

var tags = map[Language]language.Tag{
	BritishEnglish:  language.BritishEnglish,
	AmericanEnglish: language.AmericanEnglish,
	French:          language.French,
	Spanish:         language.Spanish,
	Danish:          language.Danish,
}

var identifiers = map[Language]snomed.Identifier{
	BritishEnglish:  999001261000000100,
	AmericanEnglish: snomed.USEnglishLanguageReferenceSet,
	French:          722131000,
	Spanish:         0,
	Danish:          554831000005107,
}

// Tag returns the language tag for this language.
func (l Language) Tag() language.Tag {
	return tags[l]
}

// String returns the string representation of this language.
func (l Language) String() string {
	return l.Tag().String()
}

// LanguageReferenceSetIdentifier returns the SNOMED CT identifier for the
// language reference set for this language.
func (l Language) LanguageReferenceSetIdentifier() snomed.Identifier {
	return identifiers[l]
}

// newMatcher builds a language matcher restricted to the languages whose
// reference set is actually installed in svc's store, so a release missing
// (say) the Danish language refset never gets offered as a match candidate.
func newMatcher(svc *Svc) language.Matcher {
	installed := make(map[string]struct{})
	for _, r := range svc.Store.Statistics().InstalledRefsets {
		installed[r] = struct{}{}
	}
	allTags := make([]language.Tag, 0, len(tags))
	for l, tag := range tags {
		refset := identifiers[l]
		if refset == 0 {
			continue
		}
		if _, ok := installed[refset.String()]; ok {
			allTags = append(allTags, tag)
		}
	}
	if len(allTags) == 0 {
		allTags = append(allTags, language.AmericanEnglish)
	}
	return language.NewMatcher(allTags)
}

// Match takes a list of requested languages and identifies the best supported match.
func (svc *Svc) Match(preferred []language.Tag) Language {
	matchedTag, _, _ := svc.Matcher.Match(preferred...)
	for l, tag := range tags {
		if tag == matchedTag {
			return l
		}
	}
	log.Printf("terminology: failed to match language %s", matchedTag)
	return AmericanEnglish
}
