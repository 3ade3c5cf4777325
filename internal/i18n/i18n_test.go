// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package i18n

import "testing"

func TestInitAndAvailableLocales(t *testing.T) {
	Init("en")
	if GetLang() != "en" {
		t.Fatalf("expected lang 'en', got %q", GetLang())
	}
	av := AvailableLocales()
	if len(av) != 2 || av[0] != "de" || av[1] != "en" {
		t.Fatalf("unexpected locales: %v", av)
	}
}

func TestNotice(t *testing.T) {
	Init("en")
	if got := Notice("mysql", "Blog"); got != "Could not connect to mysql for Blog" {
		t.Fatalf("unexpected notice: %q", got)
	}
	SetLang("de")
	defer SetLang("en")
	if got := Notice("mysql", "Blog"); got != "Verbindung zu mysql für Blog fehlgeschlagen" {
		t.Fatalf("unexpected German notice: %q", got)
	}
}

func TestT_FallbacksAndData(t *testing.T) {
	Init("fr")
	if got := T("cli.no_apps"); got != "No applications found" {
		t.Fatalf("unknown language should fall back to English, got %q", got)
	}
	if got := T("no.such.message"); got != "no.such.message" {
		t.Fatalf("unknown IDs should come back unchanged, got %q", got)
	}
	if got := T("cli.forgot", map[string]any{"App": "Shop"}); got != "Forgot Shop" {
		t.Fatalf("got %q", got)
	}
	Init("en")
}
