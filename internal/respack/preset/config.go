package preset

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gdpack/internal/respack/errs"
	"gdpack/internal/respath"
)

// exportFilterNames mirrors ParseExportFilter's accepted strings, in the
// direction needed to serialize an ExportFilter back to config text.
var exportFilterNames = map[ExportFilter]string{
	AllResources:             "all_resources",
	SelectedScenes:           "selected_scenes",
	SelectedResources:        "selected_resources",
	ExcludeSelectedResources: "exclude_selected_resources",
}

// Load reads a sectioned key-value config from path, the on-disk form of
// export_presets.cfg, and returns the presets it describes in section
// order. A preset whose fields don't parse is skipped with a ConfigError
// appended to loadErrs rather than aborting the whole load, matching the
// reference behavior of loading whatever presets are still usable.
func Load(path, projectRoot string) (presets []*Preset, loadErrs []error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, []error{&errs.IOError{Op: "open preset config " + path, Err: err}}
	}
	defer f.Close()

	sections := map[string]map[string]string{}
	order := []string{}
	section := ""

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			if _, ok := sections[section]; !ok {
				sections[section] = map[string]string{}
				order = append(order, section)
			}
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 || section == "" {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.Trim(strings.TrimSpace(line[idx+1:]), `"`)
		sections[section][key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, []error{&errs.IOError{Op: "read preset config " + path, Err: err}}
	}

	byIndex := map[int]*Preset{}
	var indexes []int
	for _, name := range order {
		i, isOptions, ok := parseSectionName(name)
		if !ok {
			continue
		}
		if isOptions {
			p, exists := byIndex[i]
			if !exists {
				continue
			}
			for k, v := range sections[name] {
				p.Options[k] = v
			}
			continue
		}
		p := New(sections[name]["name"], sections[name]["platform"], projectRoot)
		if err := applyFields(p, sections[name]); err != nil {
			loadErrs = append(loadErrs, &errs.ConfigError{Preset: sections[name]["name"], Reason: err.Error()})
			continue
		}
		byIndex[i] = p
		indexes = append(indexes, i)
	}

	sort.Ints(indexes)
	for _, i := range indexes {
		presets = append(presets, byIndex[i])
	}
	return presets, loadErrs
}

// parseSectionName splits "preset.3" or "preset.3.options" into its index
// and whether it's the options sub-section.
func parseSectionName(name string) (index int, isOptions bool, ok bool) {
	if !strings.HasPrefix(name, "preset.") {
		return 0, false, false
	}
	rest := strings.TrimPrefix(name, "preset.")
	if strings.HasSuffix(rest, ".options") {
		i, err := strconv.Atoi(strings.TrimSuffix(rest, ".options"))
		if err != nil {
			return 0, false, false
		}
		return i, true, true
	}
	i, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false, false
	}
	return i, false, true
}

func applyFields(p *Preset, kv map[string]string) error {
	if v, ok := kv["export_filter"]; ok {
		f, err := ParseExportFilter(v)
		if err != nil {
			return err
		}
		p.ExportFilter = f
	}
	p.IncludeFilter = kv["include_filter"]
	p.ExcludeFilter = kv["exclude_filter"]
	p.CustomFeatures = kv["custom_features"]
	p.EncPCK = kv["encrypt_pck"] == "true"
	p.EncDirectory = kv["encrypt_directory"] == "true"
	p.EncInFilter = kv["encrypt_include_filter"]
	p.EncExFilter = kv["encrypt_exclude_filter"]
	p.ScriptKeyHex = kv["script_key"]
	p.EmitBuildReport = kv["emit_build_report"] == "true"
	if v, ok := kv["export_path"]; ok {
		p.SetExportPath(v)
	}
	for _, entry := range strings.Split(kv["selected_files"], ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			p.SelectedFiles[respath.New(entry)] = true
		}
	}
	return nil
}

// Save writes presets to path as a sectioned key-value config, one
// "preset.<i>" section per preset plus a "preset.<i>.options" section for
// any per-platform option values. Callers wanting the reference's
// debounced-write behavior should route through NewDebouncer instead of
// calling Save directly on every edit.
func Save(path string, presets []*Preset) error {
	f, err := os.Create(path)
	if err != nil {
		return &errs.IOError{Op: "create preset config " + path, Err: err}
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, p := range presets {
		fmt.Fprintf(w, "[preset.%d]\n\n", i)
		fmt.Fprintf(w, "name=%q\n", p.Name)
		fmt.Fprintf(w, "platform=%q\n", p.PlatformID)
		fmt.Fprintf(w, "export_filter=%q\n", exportFilterNames[p.ExportFilter])
		fmt.Fprintf(w, "include_filter=%q\n", p.IncludeFilter)
		fmt.Fprintf(w, "exclude_filter=%q\n", p.ExcludeFilter)
		fmt.Fprintf(w, "custom_features=%q\n", p.CustomFeatures)
		fmt.Fprintf(w, "export_path=%q\n", p.ExportPath())
		fmt.Fprintf(w, "encrypt_pck=%t\n", p.EncPCK)
		fmt.Fprintf(w, "encrypt_directory=%t\n", p.EncDirectory)
		fmt.Fprintf(w, "encrypt_include_filter=%q\n", p.EncInFilter)
		fmt.Fprintf(w, "encrypt_exclude_filter=%q\n", p.EncExFilter)
		fmt.Fprintf(w, "script_key=%q\n", p.ScriptKeyHex)
		fmt.Fprintf(w, "emit_build_report=%t\n", p.EmitBuildReport)
		fmt.Fprintf(w, "selected_files=%q\n", joinPaths(p.SelectedFiles))
		fmt.Fprintln(w)

		if len(p.Options) > 0 {
			fmt.Fprintf(w, "[preset.%d.options]\n\n", i)
			keys := make([]string, 0, len(p.Options))
			for k := range p.Options {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(w, "%s=%q\n", k, p.Options[k])
			}
			fmt.Fprintln(w)
		}
	}
	if err := w.Flush(); err != nil {
		return &errs.IOError{Op: "write preset config " + path, Err: err}
	}
	return nil
}

func joinPaths(m map[respath.Path]bool) string {
	names := make([]string, 0, len(m))
	for p := range m {
		names = append(names, p.String())
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
