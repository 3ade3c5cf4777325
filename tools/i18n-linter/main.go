// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks that every message ID used through i18n.T exists in
// each locale under internal/i18n/locales, and reports IDs no code uses.
//
//	go run ./tools/i18n-linter
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "en.yaml"
	projectRoot   = "."
)

// usedKeyRe matches i18n.T("id", ...) calls.
var usedKeyRe = regexp.MustCompile(`i18n\.T\("([^"]+)"`)

// storedKeyRe matches quoted IDs of the notice and cli families, which are
// also looked up indirectly.
var storedKeyRe = regexp.MustCompile(`"((?:notice|error|cli)\.[a-z_]+)"`)

// Report is the outcome of one lint run.
type Report struct {
	// Missing maps a locale file to the IDs it lacks.
	Missing map[string][]string
	// Orphaned lists primary-locale IDs no source file mentions.
	Orphaned []string
	Used     int
}

// OK reports whether no locale is missing an ID.
func (r Report) OK() bool { return len(r.Missing) == 0 }

func main() {
	rep, err := lint(projectRoot, localesDir, primaryLocale)
	if err != nil {
		fmt.Fprintf(os.Stderr, "i18n-linter: %v\n", err)
		os.Exit(2)
	}
	rep.print(os.Stdout)
	if !rep.OK() {
		os.Exit(1)
	}
}

func lint(root, locales, primary string) (Report, error) {
	rep := Report{Missing: map[string][]string{}}
	used, err := findUsedKeys(root)
	if err != nil {
		return rep, fmt.Errorf("scan sources: %w", err)
	}
	rep.Used = len(used)

	files, err := filepath.Glob(filepath.Join(root, locales, "*.yaml"))
	if err != nil {
		return rep, err
	}
	primaryKeys, err := loadKeysFromLocale(filepath.Join(root, locales, primary))
	if err != nil {
		return rep, fmt.Errorf("load %s: %w", primary, err)
	}

	for key := range used {
		if _, ok := primaryKeys[key]; !ok {
			rep.Missing[primary] = append(rep.Missing[primary], key)
		}
	}
	for key := range primaryKeys {
		if _, ok := used[key]; !ok {
			rep.Orphaned = append(rep.Orphaned, key)
		}
	}
	for _, f := range files {
		name := filepath.Base(f)
		if name == primary {
			continue
		}
		keys, err := loadKeysFromLocale(f)
		if err != nil {
			return rep, fmt.Errorf("load %s: %w", name, err)
		}
		for key := range primaryKeys {
			if _, ok := keys[key]; !ok {
				rep.Missing[name] = append(rep.Missing[name], key)
			}
		}
	}
	for name := range rep.Missing {
		sort.Strings(rep.Missing[name])
	}
	sort.Strings(rep.Orphaned)
	return rep, nil
}

func (r Report) print(w io.Writer) {
	fmt.Fprintf(w, "%d message IDs used in source\n", r.Used)
	names := make([]string, 0, len(r.Missing))
	for name := range r.Missing {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, key := range r.Missing[name] {
			fmt.Fprintf(w, "missing in %s: %s\n", name, key)
		}
	}
	for _, key := range r.Orphaned {
		fmt.Fprintf(w, "orphaned: %s\n", key)
	}
	if r.OK() {
		fmt.Fprintln(w, "all locales consistent")
	}
}

// findUsedKeys scans non-test .go files below root. Directories starting
// with "." or "_" and the tools directory are skipped.
func findUsedKeys(root string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			name := info.Name()
			if path != root && (name == "tools" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, m := range usedKeyRe.FindAllStringSubmatch(string(content), -1) {
			keys[m[1]] = struct{}{}
		}
		for _, m := range storedKeyRe.FindAllStringSubmatch(string(content), -1) {
			keys[m[1]] = struct{}{}
		}
		return nil
	})
	return keys, err
}

// loadKeysFromLocale reads a locale file and returns its flattened IDs.
func loadKeysFromLocale(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{})
	flattenYAML("", data, keys)
	return keys, nil
}

// flattenYAML joins nested mapping keys with dots. go-i18n message objects
// (maps with "other", "one", ...) count as a single ID.
func flattenYAML(prefix string, node interface{}, keys map[string]struct{}) {
	m, ok := node.(map[string]interface{})
	if !ok || (prefix != "" && isPluralForm(m)) {
		if prefix != "" {
			keys[prefix] = struct{}{}
		}
		return
	}
	for k, val := range m {
		next := k
		if prefix != "" {
			next = prefix + "." + k
		}
		flattenYAML(next, val, keys)
	}
}

func isPluralForm(m map[string]interface{}) bool {
	_, ok := m["other"]
	return ok
}
