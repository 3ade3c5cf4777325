// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package app

import (
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// PowDir is the directory pow keeps its application symlinks in, relative to
// the home directory.
const PowDir = ".pow"

// PathStrategy picks the scan directory when no hint is given.
type PathStrategy interface {
	// DefaultPath returns the directory to scan and whether there is one.
	DefaultPath(fs afero.Fs) (string, bool)
}

// PowStrategy scans ~/.pow when it exists.
type PowStrategy struct {
	// Home overrides the home directory; empty means os.UserHomeDir.
	Home string
}

func (p PowStrategy) DefaultPath(fs afero.Fs) (string, bool) {
	home := p.Home
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}
		home = h
	}
	dir := filepath.Join(home, PowDir)
	ok, err := afero.DirExists(fs, dir)
	if err != nil || !ok {
		return "", false
	}
	return dir, true
}

// StaticPath always scans the same directory, typically apps_path from
// labrador.yaml. An empty StaticPath has no default.
type StaticPath string

func (s StaticPath) DefaultPath(fs afero.Fs) (string, bool) {
	if s == "" {
		return "", false
	}
	return ExpandHome(string(s)), true
}

// Chain tries each strategy in turn.
type Chain []PathStrategy

func (c Chain) DefaultPath(fs afero.Fs) (string, bool) {
	for _, s := range c {
		if s == nil {
			continue
		}
		if p, ok := s.DefaultPath(fs); ok {
			return p, true
		}
	}
	return "", false
}

// ExpandHome replaces a leading "~" with the home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// ScanPathFromAppPath returns the directory containing the application at
// appPath: "/Users/me/Sites/blog" scans "/Users/me/Sites". Paths not starting
// with "~" are taken as absolute.
func ScanPathFromAppPath(appPath string) string {
	appPath = strings.TrimSpace(appPath)
	if appPath == "" {
		return ""
	}
	if !strings.HasPrefix(appPath, "~") && !strings.HasPrefix(appPath, "/") {
		appPath = "/" + appPath
	}
	return filepath.Dir(filepath.Clean(ExpandHome(appPath)))
}

// HintFromPath returns the last segment of an application path.
func HintFromPath(appPath string) string {
	appPath = strings.TrimRight(strings.TrimSpace(appPath), "/")
	if appPath == "" {
		return ""
	}
	return path.Base(filepath.ToSlash(appPath))
}

// HintFromHost returns the subdomain of host. With a base domain it is
// whatever precedes ".<baseDomain>"; without one it is every label before the
// last two, as in "blog.lab.dev".
func HintFromHost(host, baseDomain string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" || net.ParseIP(strings.Trim(host, "[]")) != nil {
		return ""
	}
	if base := strings.ToLower(strings.Trim(baseDomain, ". ")); base != "" {
		if !strings.HasSuffix(host, "."+base) {
			return ""
		}
		return strings.TrimSuffix(host, "."+base)
	}
	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return ""
	}
	return strings.Join(labels[:len(labels)-2], ".")
}
