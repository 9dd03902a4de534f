package blobserver

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"contas/internal/models"
	"contas/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// exportDocument is the subset of a stored user document the export
// surfaces care about.
type exportDocument struct {
	Accounts []models.Account `json:"accounts"`
	Incomes  []models.Income  `json:"incomes"`
}

func (h *Handler) loadExportDocument(c *gin.Context) (exportDocument, bool) {
	var out exportDocument

	identifier := c.Query("identifier")
	if identifier == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "identifier is required")
		return out, false
	}
	if h.DB == nil {
		util.Error(c, http.StatusServiceUnavailable, util.CodeUnavailable, "storage not configured")
		return out, false
	}

	var doc models.Document
	if err := h.DB.First(&doc, "identifier = ?", identifier).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "no record")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return out, false
	}

	if err := json.Unmarshal(doc.Body, &out); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "document is not a user snapshot")
		return out, false
	}
	return out, true
}

func accountRow(a models.Account) []string {
	recurrent := ""
	if a.IsRecurrent {
		recurrent = "sim"
	}
	installment := ""
	if a.IsInstallment {
		installment = fmt.Sprintf("%d/%d", a.CurrentInstallment, a.TotalInstallments)
	}
	return []string{
		a.Name, a.Category, a.Value.StringFixed(2), string(a.Status),
		a.PaymentDate, recurrent, installment, a.GroupID,
	}
}

func incomeRow(in models.Income) []string {
	recurrent := ""
	if in.IsRecurrent {
		recurrent = "sim"
	}
	return []string{in.Name, in.Value.StringFixed(2), in.Date, recurrent, in.GroupID}
}

var (
	accountHeader = []string{"Nome", "Categoria", "Valor", "Status", "Data de pagamento", "Recorrente", "Parcela", "Grupo"}
	incomeHeader  = []string{"Nome", "Valor", "Data", "Recorrente", "Grupo"}
)

// ExportCSV streams a stored user document's accounts and incomes as CSV.
func (h *Handler) ExportCSV(c *gin.Context) {
	doc, ok := h.loadExportDocument(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"contas_%s.csv\"",
		time.Now().Format("20060102")))

	// UTF-8 BOM so spreadsheet apps pick up the accents
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	w := csv.NewWriter(c.Writer)
	defer w.Flush()

	w.Write(append([]string{"Tipo"}, accountHeader...))
	for _, a := range doc.Accounts {
		w.Write(append([]string{"conta"}, accountRow(a)...))
	}
	for _, in := range doc.Incomes {
		row := append([]string{"renda"}, incomeRow(in)...)
		// pad to the account column count
		for len(row) < len(accountHeader)+1 {
			row = append(row, "")
		}
		w.Write(row)
	}
}

// ExportXLSX renders a stored user document as a workbook with one sheet
// per collection.
func (h *Handler) ExportXLSX(c *gin.Context) {
	doc, ok := h.loadExportDocument(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const accountsSheet = "Contas"
	f.SetSheetName(f.GetSheetName(0), accountsSheet)
	writeRow(f, accountsSheet, 1, accountHeader)
	for i, a := range doc.Accounts {
		writeRow(f, accountsSheet, i+2, accountRow(a))
	}

	const incomesSheet = "Rendas"
	f.NewSheet(incomesSheet)
	writeRow(f, incomesSheet, 1, incomeHeader)
	for i, in := range doc.Incomes {
		writeRow(f, incomesSheet, i+2, incomeRow(in))
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"contas_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "write workbook failed")
	}
}

func writeRow(f *excelize.File, sheet string, row int, values []string) {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			continue
		}
		f.SetCellValue(sheet, cell, v)
	}
}
