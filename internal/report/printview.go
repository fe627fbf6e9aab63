package report

import (
	"fmt"
	"html"
	"strings"

	"interventoria/models"
)

const defaultPrimaryColor = "#1f4e79"

// PrintView собирает отчет в полный HTML-документ: шапка, секции по порядку, подвал.
// Важна только логическая структура, верстку делает внешний PDF-рендер.
func PrintView(report *models.Report, project models.Project, style models.StyleConfig) string {
	color := style.PrimaryColor
	if color == "" {
		color = defaultPrimaryColor
	}
	title := "Informe quincenal de interventoría"

	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html lang=\"es\"><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&b, "<title>%s - %s</title>", title, html.EscapeString(project.Name))
	fmt.Fprintf(&b, "<style>header,footer{border-color:%s} h1,h2{color:%s} .report-table{width:100%%;border-collapse:collapse} .report-table td,.report-table th{border:1px solid #ccc;padding:4px}</style>",
		html.EscapeString(color), html.EscapeString(color))
	b.WriteString("</head><body>")

	b.WriteString(`<header class="report-header">`)
	if style.LogoURL != "" {
		fmt.Fprintf(&b, `<img class="logo" src="%s" alt="logo"/>`, html.EscapeString(style.LogoURL))
	}
	if style.CompanyName != "" {
		fmt.Fprintf(&b, `<div class="company">%s</div>`, html.EscapeString(style.CompanyName))
	}
	fmt.Fprintf(&b, "<h1>%s</h1>", title)
	fmt.Fprintf(&b, `<div class="project">%s`, html.EscapeString(orDefault(project.Name, notAvailable)))
	if project.Code != "" {
		fmt.Fprintf(&b, " (%s)", html.EscapeString(project.Code))
	}
	b.WriteString("</div>")
	fmt.Fprintf(&b, `<div class="period">Período: %s al %s</div>`,
		FormatLongDate(report.PeriodStart), FormatLongDate(report.PeriodEnd))
	b.WriteString("</header>")

	b.WriteString("<main>")
	for _, s := range report.Sections {
		fmt.Fprintf(&b, `<section id="%s">`, html.EscapeString(s.Name))
		if s.Title != "" {
			fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(s.Title))
		}
		b.WriteString(s.Content)
		b.WriteString("</section>")
	}
	b.WriteString("</main>")

	b.WriteString(`<footer class="report-footer">`)
	fmt.Fprintf(&b, "<span>Generado el %s</span>", FormatLongDate(dateInBogota(report.GeneratedAt)))
	if style.FooterText != "" {
		fmt.Fprintf(&b, "<span>%s</span>", html.EscapeString(style.FooterText))
	}
	b.WriteString("</footer>")

	b.WriteString("</body></html>")
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
