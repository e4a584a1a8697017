// Package genres implements deterministic keyword-based genre inference.
//
// The engine is the weak fallback used when no authoritative genre data is
// available for a track: it is a pure function of the title plus two fixed
// tables, performs no I/O, and never fails. Keyword matching runs first
// (exact token match, then multi-word substring match for compound keywords);
// when nothing matches, a small sample from a fixed popular-genres pool is
// returned, seeded by a hash of the normalized title so repeated calls agree.
package genres

import (
	"hash/fnv"
	"sort"
	"strings"

	"github.com/resona-fm/resona/internal/shared"
)

// keywordGenres maps single-token title keywords to genre tags.
var keywordGenres = map[string][]string{
	"house":     {"house", "electronic"},
	"techno":    {"techno", "electronic"},
	"trance":    {"trance", "electronic"},
	"edm":       {"edm", "electronic"},
	"remix":     {"electronic", "dance"},
	"dance":     {"dance", "pop"},
	"disco":     {"disco", "dance"},
	"rock":      {"rock"},
	"punk":      {"punk", "rock"},
	"metal":     {"metal", "rock"},
	"grunge":    {"grunge", "rock"},
	"acoustic":  {"acoustic", "folk"},
	"folk":      {"folk"},
	"country":   {"country"},
	"blues":     {"blues"},
	"jazz":      {"jazz"},
	"swing":     {"swing", "jazz"},
	"soul":      {"soul", "r&b"},
	"funk":      {"funk", "r&b"},
	"rap":       {"hip-hop", "rap"},
	"trap":      {"trap", "hip-hop"},
	"freestyle": {"hip-hop"},
	"reggae":    {"reggae"},
	"dub":       {"dub", "reggae"},
	"salsa":     {"latin", "salsa"},
	"bachata":   {"latin", "bachata"},
	"cumbia":    {"latin", "cumbia"},
	"symphony":  {"classical"},
	"concerto":  {"classical"},
	"sonata":    {"classical"},
	"nocturne":  {"classical"},
	"lullaby":   {"ambient", "acoustic"},
	"ambient":   {"ambient"},
	"ballad":    {"ballad", "pop"},
	"anthem":    {"pop"},
	"gospel":    {"gospel", "soul"},
	"christmas": {"holiday", "pop"},
}

// compoundGenres maps multi-word keywords, matched by substring against the
// normalized title, to genre tags.
var compoundGenres = map[string][]string{
	"hip hop":       {"hip-hop"},
	"drum and bass": {"drum-and-bass", "electronic"},
	"drum n bass":   {"drum-and-bass", "electronic"},
	"lo fi":         {"lo-fi", "chill"},
	"lo-fi":         {"lo-fi", "chill"},
	"r&b":           {"r&b"},
	"rock n roll":   {"rock", "rock-and-roll"},
	"rock and roll": {"rock", "rock-and-roll"},
	"big band":      {"jazz", "swing"},
	"deep house":    {"deep-house", "house", "electronic"},
	"bossa nova":    {"bossa-nova", "latin", "jazz"},
	"new wave":      {"new-wave", "rock"},
	"synth pop":     {"synth-pop", "electronic", "pop"},
}

// popularPool is the fixed fallback pool sampled when no keyword matches.
var popularPool = []string{
	"pop", "rock", "hip-hop", "electronic", "indie",
	"r&b", "dance", "alternative", "latin", "folk",
}

// Infer returns genre tags for a track title.
//
// The result is never empty and never contains duplicates. When no keyword
// matches, the fallback sample is a deliberate weak guess from popularPool:
// deterministic per title, but not a real inference.
func Infer(title string) []string {
	normalized := shared.NormalizeText(title)
	if normalized == "" {
		return fallbackSample(normalized)
	}

	seen := make(map[string]bool)
	var matched []string

	add := func(tags []string) {
		for _, tag := range tags {
			if !seen[tag] {
				seen[tag] = true
				matched = append(matched, tag)
			}
		}
	}

	for _, token := range strings.Fields(normalized) {
		if tags, ok := keywordGenres[token]; ok {
			add(tags)
		}
	}

	for keyword, tags := range compoundGenres {
		if strings.Contains(normalized, keyword) {
			add(tags)
		}
	}

	if len(matched) == 0 {
		return fallbackSample(normalized)
	}

	sort.Strings(matched)
	return matched
}

// fallbackSample picks 1-3 genres from popularPool, seeded by the normalized
// title so the same title always yields the same sample.
func fallbackSample(normalized string) []string {
	h := fnv.New64a()
	h.Write([]byte(normalized))
	seed := h.Sum64()

	count := int(seed%3) + 1
	// Steps coprime with the pool size guarantee distinct picks.
	steps := []int{1, 3, 7, 9}
	step := steps[int(seed/3)%len(steps)]

	sample := make([]string, 0, count)
	idx := int(seed % uint64(len(popularPool)))
	for i := 0; i < count; i++ {
		sample = append(sample, popularPool[idx])
		idx = (idx + step) % len(popularPool)
	}

	sort.Strings(sample)
	return sample
}
