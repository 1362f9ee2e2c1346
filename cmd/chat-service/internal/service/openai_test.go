package service

import (
	"strings"
	"testing"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain title kept", "Recetas de cocina", "Recetas de cocina"},
		{"quotes stripped", `"Recetas de cocina"`, "Recetas de cocina"},
		{"surrounding whitespace trimmed", "  Viaje a Japón  ", "Viaje a Japón"},
		{"too short rejected", "Sí", ""},
		{"exactly three runes rejected", "Sol", ""},
		{"four runes kept", "Sopa", "Sopa"},
		{"generic prefix rejected", "Conversación sobre cocina", ""},
		{"generic prefix case insensitive", "CONVERSACIÓN SOBRE viajes", ""},
		{"empty rejected", "", ""},
		{"only quotes rejected", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanTitle(tt.raw, 40); got != tt.want {
				t.Errorf("cleanTitle(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCleanTitleTruncatesRunes(t *testing.T) {
	raw := strings.Repeat("ñ", 60)
	got := cleanTitle(raw, 40)
	if len([]rune(got)) != 40 {
		t.Errorf("truncated title has %d runes, want 40", len([]rune(got)))
	}
}
