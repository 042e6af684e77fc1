package googlecloud

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
)

const KindUploadLog = "UploadLog"

// SaveUploadLog stores the entity under its ID, retrying transient failures.
func (c *Client) SaveUploadLog(ctx context.Context, entity *UploadLogEntity) error {
	if entity.ID == "" {
		return fmt.Errorf("upload log ID cannot be empty: %w", ErrInvalidKey)
	}
	if entity.LoadedAt.IsZero() {
		entity.LoadedAt = time.Now()
	}

	key := datastore.NameKey(KindUploadLog, entity.ID, nil)
	return WithRetry(ctx, c.retry, func() error {
		_, err := c.ds.Put(ctx, key, entity)
		return err
	})
}

// GetUploadLog retrieves an upload log by ID.
func (c *Client) GetUploadLog(ctx context.Context, id string) (*UploadLogEntity, error) {
	key := datastore.NameKey(KindUploadLog, id, nil)
	var entity UploadLogEntity
	if err := c.ds.Get(ctx, key, &entity); err != nil {
		return nil, WrapDatastoreError(err)
	}
	entity.ID = id
	return &entity, nil
}

// ListUploadLogs returns the logs loaded within [from, to], newest first.
// A zero bound leaves that side open.
func (c *Client) ListUploadLogs(ctx context.Context, from, to time.Time) ([]UploadLogEntity, error) {
	query := datastore.NewQuery(KindUploadLog)
	if !from.IsZero() {
		query = query.Filter("loaded_at >=", from)
	}
	if !to.IsZero() {
		query = query.Filter("loaded_at <=", to)
	}
	query = query.Order("-loaded_at")

	var logs []UploadLogEntity
	keys, err := c.ds.GetAll(ctx, query, &logs)
	if err != nil {
		return nil, err
	}
	for i, key := range keys {
		logs[i].ID = key.Name
	}
	return logs, nil
}

// CountUploadLogs counts the logs of one POA with a keys-only query.
func (c *Client) CountUploadLogs(ctx context.Context, poaID string) (int, error) {
	query := datastore.NewQuery(KindUploadLog).Filter("poa_id =", poaID).KeysOnly()
	keys, err := c.ds.GetAll(ctx, query, nil)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}
