package export

import (
	"strings"
	"testing"
	"time"

	"rotalize/client/internal/api"
)

func TestRenderReportHTML(t *testing.T) {
	data := ReportData{
		RouteName: "Entregas da manhã",
		Status:    "Finished",
		CreatedAt: "2025-03-10",
		Vehicle:   "Fiat Fiorino",
		Points: []api.RoutePointDetail{
			{Position: 0, Address: "Rua XV de Novembro, Curitiba", Latitude: -25.4284, Longitude: -49.2733, Distance: 0, IsInitialPoint: true},
			{Position: 1, Address: "Praça Tiradentes", Latitude: -25.4278, Longitude: -49.2699, Distance: 1.2},
		},
		GeneratedAt: time.Date(2025, 3, 11, 9, 30, 0, 0, time.UTC),
	}

	html, err := RenderReportHTML(data)
	if err != nil {
		t.Fatalf("RenderReportHTML: %v", err)
	}

	for _, want := range []string{
		"Entregas da manhã",
		"Fiat Fiorino",
		"Rua XV de Novembro, Curitiba",
		"(partida)",
		"-25.428400, -49.273300",
		"1.2 km",
		"11/03/2025 09:30",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("report HTML missing %q", want)
		}
	}

	// The initial marker belongs to the first point only.
	if strings.Count(html, "(partida)") != 1 {
		t.Error("exactly one point should be marked as departure")
	}
}

func TestRenderReportHTMLEscapesAddresses(t *testing.T) {
	data := ReportData{
		RouteName:   "Rota",
		Points:      []api.RoutePointDetail{{Position: 0, Address: "<script>alert(1)</script>"}},
		GeneratedAt: time.Now(),
	}
	html, err := RenderReportHTML(data)
	if err != nil {
		t.Fatalf("RenderReportHTML: %v", err)
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("address must be HTML-escaped in the report")
	}
}

func TestSortedPoints(t *testing.T) {
	in := []api.RoutePointDetail{
		{ID: "b", Position: 2},
		{ID: "a", Position: 0},
		{ID: "m", Position: 1},
	}
	out := sortedPoints(in)
	if out[0].ID != "a" || out[1].ID != "m" || out[2].ID != "b" {
		t.Fatalf("sortedPoints = %+v", out)
	}
	if in[0].ID != "b" {
		t.Fatal("input slice must not be reordered")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Entregas da manha", "Entregas-da-manha"},
		{"Rota v1.2", "Rota-v12"},
		{"Special!@#$%Chars", "SpecialChars"},
		{"", "rota"},
		{"Very Long Route Name That Exceeds Fifty Characters Limit", "Very-Long-Route-Name-That-Exceeds-Fifty-Characters"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := sanitizeFilename(tt.input); got != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello%20world"},
		{"test+sign", "test%2Bsign"},
		{"special<>", "special%3C%3E"},
		{"normal-text.txt", "normal-text.txt"},
		{"ç", "%C3%A7"},
		{"Endereço", "Endere%C3%A7o"},
		{"Paraná, Brasil", "Paran%C3%A1%2C%20Brasil"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := percentEncodeForDataURL(tt.input); got != tt.expected {
				t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
