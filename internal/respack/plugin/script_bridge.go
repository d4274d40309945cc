package plugin

import (
	"gdpack/internal/respack/walker"
	"gdpack/internal/respath"
)

// ScriptBridge is the minimal surface a scripting host (e.g. an embedded
// language runtime backing an editor-authored plugin) must expose. It
// mirrors Plugin's methods but trades Go types for the primitives a bridge
// call can marshal.
type ScriptBridge interface {
	CallBegin(features []string, debug bool, exportPath string, flags map[string]string) error
	CallExportFile(path string, resType string, features []string) (skip bool, extra []ExtraFile, shared []SharedObject)
	CallEnd() error
}

// ScriptPlugin adapts a ScriptBridge to Plugin. This is the one
// implementation dispatch ever sees for script-hosted plugins: there is no
// separate "script plugin" code path in Scope, only this forwarding
// adapter, so native and script-hosted plugins are indistinguishable to
// the pipeline.
type ScriptPlugin struct {
	PluginName string
	Bridge     ScriptBridge
}

// NewScriptPlugin wraps bridge as a Plugin under name.
func NewScriptPlugin(name string, bridge ScriptBridge) *ScriptPlugin {
	return &ScriptPlugin{PluginName: name, Bridge: bridge}
}

func (s *ScriptPlugin) Name() string { return s.PluginName }

func (s *ScriptPlugin) Begin(features []string, debug bool, exportPath string, flags map[string]string) error {
	return s.Bridge.CallBegin(features, debug, exportPath, flags)
}

func (s *ScriptPlugin) ExportFile(path respath.Path, resType walker.ResourceType, features []string) FileResult {
	skip, extra, shared := s.Bridge.CallExportFile(path.String(), string(resType), features)
	return FileResult{Skip: skip, ExtraFiles: extra, SharedObjects: shared}
}

func (s *ScriptPlugin) End() error {
	return s.Bridge.CallEnd()
}
