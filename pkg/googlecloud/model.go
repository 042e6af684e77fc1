package googlecloud

import (
	"time"
)

// UploadLogEntity is one workbook upload recorded against a POA.
type UploadLogEntity struct {
	ID          string    `datastore:"-" json:"id_log"` // Key Name
	POAID       string    `datastore:"poa_id" json:"id_poa"`
	POACode     string    `datastore:"poa_code" json:"codigo_poa"`
	ProjectName string    `datastore:"project_name,noindex" json:"proyecto"`
	User        string    `datastore:"user" json:"usuario"`
	LoadedAt    time.Time `datastore:"loaded_at" json:"fecha_carga"`
	Message     string    `datastore:"message,noindex" json:"mensaje"`
	FileName    string    `datastore:"file_name,noindex" json:"nombre_archivo"`
	Sheet       string    `datastore:"sheet,noindex" json:"hoja"`
}
