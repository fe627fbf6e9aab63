package report

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"interventoria/models"
)

// DefaultPhotoLimit — сколько фотографий помещается в галерею 3x3
const DefaultPhotoLimit = 9

const galleryColumns = 3

const (
	notAvailable = "N/A"

	msgNoDailyLogs  = "<p>No hay registros de bitácora para este período.</p>"
	msgNoTests      = "<p>No se realizaron ensayos de control de calidad en este período.</p>"
	msgNoPhotos     = "<p>No hay fotografías registradas para este período.</p>"
	msgNoActivities = "No se registraron actividades en este período."
)

// formatter строит HTML-фрагменты для "богатых" токенов
type formatter struct {
	escape     func(string) string
	photoLimit int
}

func newFormatter(escapeText bool, photoLimit int) formatter {
	f := formatter{escape: func(s string) string { return s }, photoLimit: photoLimit}
	if escapeText {
		f.escape = html.EscapeString
	}
	if f.photoLimit <= 0 {
		f.photoLimit = DefaultPhotoLimit
	}
	return f
}

func (f formatter) orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return f.escape(s)
}

func (f formatter) dailyLogTable(logs []models.DailyLog) string {
	if len(logs) == 0 {
		return msgNoDailyLogs
	}

	var b strings.Builder
	b.WriteString(`<table class="report-table"><thead><tr>`)
	b.WriteString("<th>Fecha</th><th>Actividades</th><th>Personal</th><th>Clima</th>")
	b.WriteString("</tr></thead><tbody>")
	for _, l := range logs {
		b.WriteString("<tr>")
		b.WriteString("<td>" + FormatShortDate(l.LogDate) + "</td>")
		b.WriteString("<td>" + f.orNA(l.Activities) + "</td>")
		b.WriteString("<td>" + strconv.Itoa(l.PersonnelCount) + "</td>")
		b.WriteString("<td>" + f.orNA(l.Weather.Label()) + "</td>")
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

func (f formatter) qualityTable(samples []models.QualitySample) string {
	if len(samples) == 0 {
		return msgNoTests
	}

	var b strings.Builder
	b.WriteString(`<table class="report-table"><thead><tr>`)
	b.WriteString("<th>Código</th><th>Fecha</th><th>Ensayo</th><th>Ubicación</th><th>Resultado</th>")
	b.WriteString("</tr></thead><tbody>")
	for _, s := range samples {
		b.WriteString("<tr>")
		b.WriteString("<td>" + f.escape(s.SampleCode) + "</td>")
		b.WriteString("<td>" + FormatShortDate(s.SampleDate) + "</td>")
		b.WriteString("<td>" + f.orNA(s.Template.Name) + "</td>")
		b.WriteString("<td>" + f.orNA(s.Location) + "</td>")
		b.WriteString("<td>" + s.OverallResult.Label() + "</td>")
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

func (f formatter) qualityResults(s models.Summary) string {
	if s.TotalTests == 0 {
		return msgNoTests
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Durante el período se realizaron %d ensayos de control de calidad:</p>", s.TotalTests)
	b.WriteString("<ul>")
	fmt.Fprintf(&b, "<li>Aprobados: %d</li>", s.PassedTests)
	fmt.Fprintf(&b, "<li>Rechazados: %d</li>", s.FailedTests)
	fmt.Fprintf(&b, "<li>Pendientes: %d</li>", s.PendingTests())
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "<p>Porcentaje de aprobación: %d%%</p>", approvalPercentage(s))
	return b.String()
}

func (f formatter) photoGallery(photos []models.ProjectDocument) string {
	if len(photos) == 0 {
		return msgNoPhotos
	}

	shown := photos
	if len(shown) > f.photoLimit {
		shown = shown[:f.photoLimit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<div class="photo-gallery" style="display:grid;grid-template-columns:repeat(%d,1fr);gap:8px">`, galleryColumns)
	for _, p := range shown {
		caption := p.Description
		if strings.TrimSpace(caption) == "" {
			caption = p.FileName
		}
		caption = f.escape(caption)
		b.WriteString("<figure>")
		fmt.Fprintf(&b, `<img src="%s" alt="%s" style="width:100%%"/>`, f.escape(p.FileURL), caption)
		b.WriteString("<figcaption>" + caption + "</figcaption>")
		b.WriteString("</figure>")
	}
	b.WriteString("</div>")

	if extra := len(photos) - len(shown); extra > 0 {
		fmt.Fprintf(&b, "<p><em>+%d fotografías adicionales</em></p>", extra)
	}
	return b.String()
}

func (f formatter) activitySummary(logs []models.DailyLog) string {
	var parts []string
	for _, l := range logs {
		if strings.TrimSpace(l.Activities) != "" {
			parts = append(parts, f.escape(l.Activities))
		}
	}
	if len(parts) == 0 {
		return msgNoActivities
	}
	return strings.Join(parts, ", ")
}

// averageWorkers — round(totalWorkers / totalDays), 0 при пустом периоде
func averageWorkers(s models.Summary) int {
	if s.TotalDays == 0 {
		return 0
	}
	return roundDiv(s.TotalWorkers, s.TotalDays)
}

// approvalPercentage — round(passed / total * 100), 0 если проб нет
func approvalPercentage(s models.Summary) int {
	if s.TotalTests == 0 {
		return 0
	}
	return roundDiv(s.PassedTests*100, s.TotalTests)
}

// roundDiv делит с округлением половины вверх; a и b неотрицательны
func roundDiv(a, b int) int {
	return (2*a + b) / (2 * b)
}
