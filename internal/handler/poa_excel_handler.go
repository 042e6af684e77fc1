package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/poa_management/apigateway/internal/domain"
	"github.com/locvowork/poa_management/apigateway/internal/logger"
	"github.com/locvowork/poa_management/apigateway/internal/service"
	"github.com/locvowork/poa_management/apigateway/internal/service/serviceutils"
	"github.com/locvowork/poa_management/apigateway/pkg/poaexcel"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	reportFileName  = "reporte-poa.xlsx"

	// HeaderUser carries the name of the authenticated user set by the gateway.
	HeaderUser = "X-User"
)

type POAExcelHandler struct {
	imports service.ImportService
	exports service.ExportService
	reports service.ReportService
}

func NewPOAExcelHandler(imports service.ImportService, exports service.ExportService, reports service.ReportService) *POAExcelHandler {
	return &POAExcelHandler{imports: imports, exports: exports, reports: reports}
}

// ImportHandler handles POST /transformar_excel
func (h *POAExcelHandler) ImportHandler(c echo.Context) error {
	ctx := c.Request().Context()

	file, err := c.FormFile("file")
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Archivo requerido", err)
	}
	sheet := strings.TrimSpace(c.FormValue("hoja"))
	if sheet == "" {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Hoja requerida", nil)
	}
	confirm, err := parseConfirm(c.FormValue("confirmacion"))
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Confirmación inválida", err)
	}

	src, err := file.Open()
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "No se pudo leer el archivo", err)
	}
	defer src.Close()
	content, err := io.ReadAll(src)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "No se pudo leer el archivo", err)
	}

	result, err := h.imports.Import(ctx, service.ImportRequest{
		POAID:    c.FormValue("id_poa"),
		FileName: file.Filename,
		Sheet:    sheet,
		Content:  content,
		Confirm:  confirm,
		User:     c.Request().Header.Get(HeaderUser),
	})
	if err != nil {
		return respondError(c, "No se pudo cargar el archivo", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, result.Message, result)
}

// ExportHandler handles GET /poas/:id/excel
func (h *POAExcelHandler) ExportHandler(c echo.Context) error {
	file, err := h.exports.Export(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, "No se pudo generar el archivo", err)
	}

	c.Response().Header().Set(echo.HeaderContentType, xlsxContentType)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(file.Content)))
	c.Response().WriteHeader(http.StatusOK)

	_, err = c.Response().Write(file.Content)
	return err
}

// ReportHandler handles POST /reporte-poa
func (h *POAExcelHandler) ReportHandler(c echo.Context) error {
	rows, err := h.reports.Rows(c.Request().Context(), c.FormValue("anio"), c.FormValue("tipo_proyecto"))
	if err != nil {
		return respondError(c, "No se pudo generar el reporte", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Reporte generado", rows)
}

// ReportExcelHandler handles POST /reporte-poa/excel
func (h *POAExcelHandler) ReportExcelHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var rows []poaexcel.ReportRow
	if err := json.NewDecoder(c.Request().Body).Decode(&rows); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Cuerpo inválido", err)
	}

	c.Response().Header().Set(echo.HeaderContentType, xlsxContentType)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, reportFileName))
	c.Response().WriteHeader(http.StatusOK)

	if err := h.reports.Write(c.Response().Writer, rows); err != nil {
		// Headers are already sent at this point.
		logger.ErrorLog(ctx, "failed to stream report: %v", err)
		return nil
	}
	logger.InfoLog(ctx, "streamed report with %d rows", len(rows))
	return nil
}

func parseConfirm(v string) (bool, error) {
	if strings.TrimSpace(v) == "" {
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(v))
}

// respondError maps service errors onto status codes.
func respondError(c echo.Context, msg string, err error) error {
	ctx := c.Request().Context()
	if pe, ok := poaexcel.AsParseError(err); ok {
		logger.WarnLog(ctx, "%s: %v", msg, pe)
		return serviceutils.ResponseError(c, http.StatusBadRequest, msg, pe)
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrPOANotFound),
		errors.Is(err, domain.ErrUploadLogNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnsupportedFile),
		errors.Is(err, domain.ErrBudgetItemNotFound),
		errors.Is(err, domain.ErrInvalidProjectType):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		logger.ErrorLog(ctx, "%s: %v", msg, err)
	}
	return serviceutils.ResponseError(c, status, msg, err)
}
