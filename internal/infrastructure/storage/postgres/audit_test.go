package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poscore/internal/core/entity"
	"poscore/internal/core/id"
)

type auditedCatalog struct {
	entity.BaseCatalog
	Code string `json:"code"`
	Name string `json:"name"`
}

func TestEntityEntry_SnapshotAndID(t *testing.T) {
	cat := &auditedCatalog{
		BaseCatalog: entity.BaseCatalog{
			BaseEntity: entity.BaseEntity{ID: id.New(), Version: 3},
		},
		Code: "AR-001",
		Name: "Main Warehouse",
	}

	entry, err := entityEntry("area", cat, AuditActionCreate)
	require.NoError(t, err)

	assert.Equal(t, "area", entry.EntityType)
	assert.Equal(t, cat.ID, entry.EntityID)
	assert.Equal(t, AuditActionCreate, entry.Action)

	var snapshot map[string]any
	require.NoError(t, json.Unmarshal(entry.Changes, &snapshot))
	assert.Equal(t, "AR-001", snapshot["code"])
}

func TestPrepare_SmallChangesStayUncompressed(t *testing.T) {
	svc, err := NewAuditServiceFromContext()
	require.NoError(t, err)

	entry := svc.prepare(context.Background(), AuditEntry{
		EntityType: "product",
		Changes:    json.RawMessage(`{"name":"Coffee Beans"}`),
	})

	assert.Equal(t, CompressionNone, entry.CompressionAlgo)
	assert.NotEmpty(t, entry.Changes)
	assert.Empty(t, entry.ChangesCompressed)
	assert.False(t, id.IsNil(entry.ID))
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestPrepare_CompressesLargeChangeSets(t *testing.T) {
	svc, err := NewAuditServiceFromContext()
	require.NoError(t, err)

	payload, err := json.Marshal(map[string]any{
		"description": string(bytes.Repeat([]byte("a"), 20*1024)),
	})
	require.NoError(t, err)

	entry := svc.prepare(context.Background(), AuditEntry{
		EntityType: "product",
		Changes:    payload,
	})

	assert.Equal(t, CompressionZstd, entry.CompressionAlgo)
	assert.Empty(t, entry.Changes)
	require.NotEmpty(t, entry.ChangesCompressed)

	decompressed, err := svc.decoder.DecodeAll(entry.ChangesCompressed, nil)
	require.NoError(t, err)
	assert.Equal(t, payload, decompressed)
}
