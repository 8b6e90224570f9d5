package export

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"rotalize/client/internal/api"
)

// Service builds printable reports for finished or in-progress routes.
type Service struct{}

// NewService creates a new export service.
func NewService() *Service {
	return &Service{}
}

// RouteReport renders a route detail into a PDF report.
func (s *Service) RouteReport(detail *api.RouteDetail) (*Result, error) {
	if detail == nil {
		return nil, fmt.Errorf("route report: missing route detail")
	}

	data := ReportData{
		RouteName:   detail.RouteName,
		Status:      string(detail.Status),
		CreatedAt:   detail.CreatedAt,
		Vehicle:     detail.VehicleModel,
		Points:      sortedPoints(detail.RoutePoints),
		GeneratedAt: time.Now(),
	}
	if detail.EstimatedConsumption != 0 {
		data.Consumption = fmt.Sprintf("%.2f L", float64(detail.EstimatedConsumption))
	}

	html, err := RenderReportHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	result, err := exportPDF(html, detail.RouteName)
	if errors.Is(err, ErrPDFDependencyMissing) {
		// No Chromium around: hand back the HTML itself so the report
		// is still usable.
		return &Result{
			Data:     []byte(html),
			Filename: sanitizeFilename(detail.RouteName) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	}
	return result, err
}

// sortedPoints returns the points in position order without mutating
// the input.
func sortedPoints(points []api.RoutePointDetail) []api.RoutePointDetail {
	out := append([]api.RoutePointDetail(nil), points...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
