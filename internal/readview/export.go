package readview

import (
	"context"
	"io"
	"slices"

	"github.com/xuri/excelize/v2"

	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/validation"
)

const exportSheet = "Doctorats"

var exportColumns = []struct {
	title string
	width float64
	value func(ListItem) any
}{
	{"Référence", 18, func(i ListItem) any { return i.Reference }},
	{"Statut", 32, func(i ListItem) any { return string(i.Status) }},
	{"Depuis le", 14, func(i ListItem) any {
		if i.StatusSince == nil {
			return ""
		}
		return i.StatusSince.Format("02/01/2006")
	}},
	{"Matricule", 14, func(i ListItem) any { return i.StudentMatricule.String() }},
	{"Doctorant", 32, func(i ListItem) any { return i.StudentName }},
	{"NOMA", 12, func(i ListItem) any { return i.NOMA }},
	{"Formation", 14, func(i ListItem) any { return i.Training }},
	{"CDD", 10, func(i ListItem) any { return i.CDD }},
	{"Année", 8, func(i ListItem) any { return i.Year }},
	{"Type d'admission", 16, func(i ListItem) any { return i.AdmissionType }},
	{"Financement", 16, func(i ListItem) any { return string(i.FundingType) }},
	{"Formule", 10, func(i ListItem) any { return string(i.DefenseMethod) }},
	{"Mis à jour", 18, func(i ListItem) any { return i.UpdatedAt.Format("02/01/2006 15:04") }},
}

// Export writes every doctorate matching q to w as an XLSX workbook, ignoring
// pagination.
func (s *Service) Export(ctx context.Context, q ListQuery, w io.Writer) error {
	if err := (validation.List{Contract: validation.Tags(CodeInvalidQuery, q)}).Validate(); err != nil {
		return err
	}
	if q.Indicator != "" && !q.Indicator.IsValid() {
		return errUnknownIndicator(q.Indicator)
	}
	matched, err := s.matching(ctx, q)
	if err != nil {
		return err
	}
	slices.SortFunc(matched, q.less)

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheet)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create sheet")
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove default sheet")
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCE6F1"}, Pattern: 1},
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create header style")
	}

	for col, c := range exportColumns {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "invalid export column")
		}
		if err := f.SetColWidth(exportSheet, name, name, c.width); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to size column")
		}
		if err := f.SetCellValue(exportSheet, name+"1", c.title); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write header")
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, header); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to style header")
	}

	for row, d := range matched {
		item := itemOf(d)
		for col, c := range exportColumns {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "invalid export cell")
			}
			if err := f.SetCellValue(exportSheet, cell, c.value(item)); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write row")
			}
		}
	}

	s.logger.InfoContext(ctx, "doctorates exported", "rows", len(matched))
	if err := f.Write(w); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write workbook")
	}
	return nil
}
