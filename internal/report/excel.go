package report

import (
	"bytes"
	"fmt"

	"interventoria/models"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary  = "Resumen"
	sheetDaily    = "Bitácora"
	sheetQuality  = "Control de calidad"
	sheetPhotos   = "Fotografías"
	defaultSheet1 = "Sheet1"
)

var (
	dailyHeader   = []string{"Fecha", "Actividades", "Personal", "Clima"}
	qualityHeader = []string{"Código", "Fecha", "Ensayo", "Tipo", "Ubicación", "Resultado", "Parámetro", "Valor", "Unidad", "Especificación", "Cumple"}
	photosHeader  = []string{"Archivo", "Descripción", "Fecha de carga", "URL"}
)

// ExportWorkbook выгружает данные периода в XLSX (сводка, битакора, пробы, фото)
func ExportWorkbook(data *models.CollectedData, from, to models.Date) ([]byte, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	s := data.Summary
	summaryRows := [][]any{
		{"Proyecto", data.Project.Name},
		{"Código", data.Project.Code},
		{"Cliente", data.Project.Client},
		{"Período", FormatShortDate(from) + " - " + FormatShortDate(to)},
		{"Días registrados", s.TotalDays},
		{"Días laborables", s.WorkDays},
		{"Días de lluvia", s.RainDays},
		{"Total trabajadores-día", s.TotalWorkers},
		{"Promedio trabajadores/día", averageWorkers(s)},
		{"Ensayos", s.TotalTests},
		{"Aprobados", s.PassedTests},
		{"Rechazados", s.FailedTests},
		{"Pendientes", s.PendingTests()},
		{"% aprobación", approvalPercentage(s)},
		{"Fotografías", len(data.Photos)},
	}
	if err := writeSheet(f, sheetSummary, []string{"Indicador", "Valor"}, summaryRows, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	dailyRows := make([][]any, 0, len(data.DailyLogs))
	for _, l := range data.DailyLogs {
		dailyRows = append(dailyRows, []any{FormatShortDate(l.LogDate), l.Activities, l.PersonnelCount, l.Weather.Label()})
	}
	if err := writeSheet(f, sheetDaily, dailyHeader, dailyRows, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	var qualityRows [][]any
	for _, q := range data.QualityControl {
		base := []any{q.SampleCode, FormatShortDate(q.SampleDate), q.Template.Name, q.Template.TestType, q.Location, q.OverallResult.Label()}
		if len(q.Results) == 0 {
			qualityRows = append(qualityRows, base)
			continue
		}
		for _, r := range q.Results {
			row := append(append([]any(nil), base...), r.Parameter, r.Value, r.Unit, r.Specification, passedLabel(r.Passed))
			qualityRows = append(qualityRows, row)
		}
	}
	if err := writeSheet(f, sheetQuality, qualityHeader, qualityRows, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	photoRows := make([][]any, 0, len(data.Photos))
	for _, p := range data.Photos {
		photoRows = append(photoRows, []any{p.FileName, p.Description, p.UploadedAt.Format("02/01/2006 15:04"), p.FileURL})
	}
	if err := writeSheet(f, sheetPhotos, photosHeader, photoRows, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.DeleteSheet(defaultSheet1); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(sheetSummary); err == nil {
		f.SetActiveSheet(idx)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	for col, h := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheet, name, name, 20); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, sheet, err)
		}
	}

	// шапка остается видимой при прокрутке
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	return nil
}

func passedLabel(p *bool) string {
	switch {
	case p == nil:
		return ""
	case *p:
		return "Sí"
	}
	return "No"
}
