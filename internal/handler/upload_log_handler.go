package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/poa_management/apigateway/internal/domain"
	"github.com/locvowork/poa_management/apigateway/internal/service"
	"github.com/locvowork/poa_management/apigateway/internal/service/serviceutils"
)

const logTimeLayout = "2006-01-02 15:04:05"

type UploadLogHandler struct {
	logs service.UploadLogService
}

func NewUploadLogHandler(logs service.UploadLogService) *UploadLogHandler {
	return &UploadLogHandler{logs: logs}
}

type uploadLogResponse struct {
	ID          string `json:"id_log"`
	LoadedAt    string `json:"fecha_carga"`
	User        string `json:"usuario"`
	ProjectName string `json:"proyecto"`
	POACode     string `json:"codigo_poa"`
	FileName    string `json:"nombre_archivo"`
	Sheet       string `json:"hoja"`
	Message     string `json:"mensaje"`
}

// ListHandler handles GET /logs-carga-excel?fecha_inicio=&fecha_fin=
func (h *UploadLogHandler) ListHandler(c echo.Context) error {
	logs, err := h.logs.List(c.Request().Context(), c.QueryParam("fecha_inicio"), c.QueryParam("fecha_fin"))
	if err != nil {
		return respondError(c, "No se pudo obtener el historial de cargas", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Historial de cargas", toUploadLogResponses(logs))
}

// GetHandler handles GET /logs-carga-excel/:id
func (h *UploadLogHandler) GetHandler(c echo.Context) error {
	log, err := h.logs.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, "No se encontró el registro de carga", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Registro de carga", toUploadLogResponse(*log))
}

type uploadCountResponse struct {
	POAID string `json:"id_poa"`
	Total int    `json:"total"`
}

// CountHandler handles GET /poas/:id/logs-carga-excel/count
func (h *UploadLogHandler) CountHandler(c echo.Context) error {
	poaID := c.Param("id")
	n, err := h.logs.Count(c.Request().Context(), poaID)
	if err != nil {
		return respondError(c, "No se pudo contar las cargas", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Total de cargas", uploadCountResponse{POAID: poaID, Total: n})
}

func toUploadLogResponses(logs []domain.UploadLog) []uploadLogResponse {
	out := make([]uploadLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, toUploadLogResponse(l))
	}
	return out
}

// toUploadLogResponse renders LoadedAt on the local clock whatever zone the
// store returned it in.
func toUploadLogResponse(l domain.UploadLog) uploadLogResponse {
	return uploadLogResponse{
		ID:          l.ID,
		LoadedAt:    l.LoadedAt.In(domain.LocalZone).Format(logTimeLayout),
		User:        l.User,
		ProjectName: l.ProjectName,
		POACode:     l.POACode,
		FileName:    l.FileName,
		Sheet:       l.Sheet,
		Message:     l.Message,
	}
}
