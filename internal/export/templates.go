package export

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"rotalize/client/internal/api"
)

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
	"coord": func(v api.LooseFloat) string {
		return fmt.Sprintf("%.6f", float64(v))
	},
	"km": func(v api.LooseFloat) string {
		return fmt.Sprintf("%.1f km", float64(v))
	},
}).Parse(reportHTML))

// ReportData holds data for the route report template.
type ReportData struct {
	RouteName   string
	Status      string
	CreatedAt   string
	Vehicle     string
	Consumption string
	Points      []api.RoutePointDetail
	GeneratedAt time.Time
}

// RenderReportHTML renders the route report template with provided
// data.
func RenderReportHTML(data ReportData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const reportHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.RouteName}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    table { width: 100%; border-collapse: collapse; }
    th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #ddd; }
    .initial { font-weight: bold; }
    .footer { margin-top: 2rem; color: #999; font-size: 0.8em; }
  </style>
</head>
<body>
  <h1>{{.RouteName}}</h1>
  <div class="meta">
    Status: {{.Status}}{{if .CreatedAt}} | Criada em {{.CreatedAt}}{{end}}
    {{- if .Vehicle}} | Veículo: {{.Vehicle}}{{end}}
    {{- if .Consumption}} | Consumo estimado: {{.Consumption}}{{end}}
  </div>
  <table>
    <tr><th>#</th><th>Endereço</th><th>Coordenadas</th><th>Distância</th></tr>
    {{range $i, $p := .Points}}
    <tr{{if $p.IsInitialPoint}} class="initial"{{end}}>
      <td>{{$p.Position}}</td>
      <td>{{$p.Address}}{{if $p.IsInitialPoint}} (partida){{end}}</td>
      <td>{{coord $p.Latitude}}, {{coord $p.Longitude}}</td>
      <td>{{km $p.Distance}}</td>
    </tr>
    {{end}}
  </table>
  <div class="footer">Gerado em {{formatDate .GeneratedAt "02/01/2006 15:04"}}</div>
</body>
</html>`
