package preset

import "strings"

// FeatureSet is the active set of feature tags for one build: an unordered
// membership test plus an ordered vector (platform features, then
// debug/release, then custom tags) for script-hosted plugins that expect a
// stable iteration order.
type FeatureSet struct {
	members map[string]bool
	ordered []string
}

// BuildFeatureSet merges platform-derived tags, the debug/release tag, and
// the preset's comma-separated custom_features into one FeatureSet.
func BuildFeatureSet(platformFeatures []string, debug bool, customFeatures string) *FeatureSet {
	fs := &FeatureSet{members: map[string]bool{}}

	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" || fs.members[tag] {
			return
		}
		fs.members[tag] = true
		fs.ordered = append(fs.ordered, tag)
	}

	for _, f := range platformFeatures {
		add(f)
	}
	if debug {
		add("debug")
	} else {
		add("release")
	}
	for _, f := range strings.Split(customFeatures, ",") {
		add(f)
	}

	return fs
}

// Has reports whether tag is active.
func (fs *FeatureSet) Has(tag string) bool {
	return fs.members[tag]
}

// Ordered returns the feature tags in platform, lifecycle, custom order.
func (fs *FeatureSet) Ordered() []string {
	out := make([]string, len(fs.ordered))
	copy(out, fs.ordered)
	return out
}

// Set returns the membership map. Callers must not mutate the result.
func (fs *FeatureSet) Set() map[string]bool {
	return fs.members
}

// Intersect returns the subset of candidates that are active in fs,
// preserving fs's ordering.
func (fs *FeatureSet) Intersect(candidates []string) []string {
	candidateSet := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		candidateSet[c] = true
	}
	var out []string
	for _, tag := range fs.ordered {
		if candidateSet[tag] {
			out = append(out, tag)
		}
	}
	return out
}
