package plugin

import (
	"github.com/hashicorp/go-hclog"

	"gdpack/internal/respack/walker"
	"gdpack/internal/respath"
)

// Scope is the guard object standing in for a scoped notifier: BeginScope
// calls Begin on every plugin in order, and the returned Scope's End method
// is guaranteed safe to call unconditionally afterward, whether enumeration
// succeeded, failed partway, or panicked before reaching a normal return.
// Callers should always pair BeginScope with `defer scope.End()`.
type Scope struct {
	logger hclog.Logger
	began  []Plugin
}

// BeginScope runs Begin on each plugin in registration order. If any Begin
// call fails, the plugins that already began, and the failing plugin
// itself, are ended before the error is returned, so a caller that never reaches its own defer (because
// construction itself failed) does not leak a dangling begin/end pair.
func BeginScope(plugins []Plugin, features []string, debug bool, exportPath string, flags map[string]string, logger hclog.Logger) (*Scope, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	s := &Scope{logger: logger}
	for _, p := range plugins {
		if err := p.Begin(features, debug, exportPath, flags); err != nil {
			s.began = append(s.began, p)
			s.End()
			return nil, err
		}
		s.began = append(s.began, p)
	}
	return s, nil
}

// End calls End on every plugin whose Begin was called, in registration
// order, swallowing individual failures into a log line rather than
// propagating them: a plugin's teardown error must never mask the build's
// real outcome or skip tearing down the plugins after it.
func (s *Scope) End() {
	for _, p := range s.began {
		if err := p.End(); err != nil {
			s.logger.Warn("plugin export_end failed", "plugin", p.Name(), "err", err)
		}
	}
	s.began = nil
}

// Preflighter is an optional capability a Plugin may implement to register
// extra files or shared objects that belong to the whole build rather than
// to any single candidate path, mirroring an export_begin-time add_file or
// add_shared_object call in the reference plugin contract. Plugins that
// have nothing to contribute at this point simply don't implement it.
type Preflighter interface {
	Preflight() FileResult
}

// PreflightAll runs Preflight on every began plugin that implements it, in
// registration order, and merges the results. The driver calls this once
// before enumerating the path set, with progress index 0.
func (s *Scope) PreflightAll() FileResult {
	var merged FileResult
	for _, p := range s.began {
		pf, ok := p.(Preflighter)
		if !ok {
			continue
		}
		r := pf.Preflight()
		merged.ExtraFiles = append(merged.ExtraFiles, r.ExtraFiles...)
		merged.SharedObjects = append(merged.SharedObjects, r.SharedObjects...)
	}
	return merged
}

// DispatchFile runs ExportFile on every plugin in registration order and
// merges their results. A skip from any single plugin marks the whole path
// skipped: per-file side effects are observed in registration order, but
// the first skip is authoritative regardless of which plugin issued it.
func (s *Scope) DispatchFile(path respath.Path, resType walker.ResourceType, features []string) FileResult {
	var merged FileResult
	for _, p := range s.began {
		r := p.ExportFile(path, resType, features)
		if r.Skip {
			merged.Skip = true
		}
		merged.ExtraFiles = append(merged.ExtraFiles, r.ExtraFiles...)
		merged.SharedObjects = append(merged.SharedObjects, r.SharedObjects...)
	}
	return merged
}
