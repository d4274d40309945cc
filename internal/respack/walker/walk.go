package walker

import (
	"strings"

	"github.com/hashicorp/go-hclog"

	"gdpack/internal/globfilter"
	"gdpack/internal/respack/preset"
	"gdpack/internal/respath"
)

// Walker enumerates a project index according to a preset's export filter.
type Walker struct {
	Index  *Index
	Logger hclog.Logger
}

// New wraps idx for filter-driven enumeration.
func New(idx *Index, logger hclog.Logger) *Walker {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Walker{Index: idx, Logger: logger}
}

// Walk returns the candidate resource set for filter, seeded from selected
// where applicable, always unioned with the closure of autoload entries
// (each stripped of its leading '*' singleton marker).
func (w *Walker) Walk(filter preset.ExportFilter, selected map[respath.Path]bool, autoloads []string) globfilter.PathSet {
	var out globfilter.PathSet

	switch filter {
	case preset.AllResources:
		out = w.allNonText()
	case preset.ExcludeSelectedResources:
		out = w.allNonText()
		for p := range selected {
			delete(out, p)
		}
	case preset.SelectedResources:
		out = w.closure(selected)
	case preset.SelectedScenes:
		seed := globfilter.PathSet{}
		for p := range selected {
			info, ok := w.Index.Resources[p]
			if !ok || info.Type != TypePackedScene {
				w.Logger.Debug("dropping non-scene seed under SELECTED_SCENES", "path", p.String())
				continue
			}
			seed[p] = true
		}
		out = w.closure(seed)
	default:
		out = w.allNonText()
	}

	for _, entry := range autoloads {
		entry = strings.TrimPrefix(entry, "*")
		if entry == "" {
			continue
		}
		rp := respath.New(entry)
		out[rp] = true
		w.addClosureInto(out, rp)
	}

	return out
}

func (w *Walker) allNonText() globfilter.PathSet {
	out := globfilter.PathSet{}
	for p, info := range w.Index.Resources {
		if info.Type == TypeTextFile {
			continue
		}
		out[p] = true
	}
	return out
}

// closure computes the transitive dependency closure of seed via each
// file's declared dependency list.
func (w *Walker) closure(seed globfilter.PathSet) globfilter.PathSet {
	out := globfilter.PathSet{}
	for p := range seed {
		out[p] = true
		w.addClosureInto(out, p)
	}
	return out
}

func (w *Walker) addClosureInto(out globfilter.PathSet, start respath.Path) {
	queue := []respath.Path{start}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		info, ok := w.Index.Resources[p]
		if !ok {
			continue
		}
		for _, dep := range info.Dependencies {
			if out[dep] {
				continue
			}
			out[dep] = true
			queue = append(queue, dep)
		}
	}
}
