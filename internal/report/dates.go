package report

import (
	"fmt"
	"strconv"
	"time"

	"interventoria/models"
)

var spanishMonths = []string{
	"enero",
	"febrero",
	"marzo",
	"abril",
	"mayo",
	"junio",
	"julio",
	"agosto",
	"septiembre",
	"octubre",
	"noviembre",
	"diciembre",
}

// Колумбия живет в UTC-5 без перехода на летнее время
var bogota = time.FixedZone("COT", -5*60*60)

// FormatLongDate — "15 de marzo de 2024" (es-CO)
func FormatLongDate(d models.Date) string {
	if d.IsZero() {
		return "N/A"
	}
	return strconv.Itoa(d.Day()) + " de " + spanishMonths[int(d.Month())-1] + " de " + strconv.Itoa(d.Year())
}

// FormatShortDate — "15/03/2024" (es-CO)
func FormatShortDate(d models.Date) string {
	if d.IsZero() {
		return "N/A"
	}
	return fmt.Sprintf("%02d/%02d/%d", d.Day(), int(d.Month()), d.Year())
}

// dateInBogota переводит момент времени в календарную дату Колумбии
func dateInBogota(t time.Time) models.Date {
	local := t.In(bogota)
	return models.NewDate(local.Year(), local.Month(), local.Day())
}
