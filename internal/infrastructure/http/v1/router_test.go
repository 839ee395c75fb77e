package v1

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poscore/internal/domain"
	"poscore/internal/domain/catalogs/area"
	"poscore/internal/infrastructure/storage/postgres"
)

type recordedChange struct {
	entityType string
	action     postgres.AuditAction
}

type recordingAuditor struct {
	changes []recordedChange
}

func (r *recordingAuditor) LogEntity(ctx context.Context, entityType string, entity any, action postgres.AuditAction) error {
	r.changes = append(r.changes, recordedChange{entityType: entityType, action: action})
	return nil
}

func TestRegisterAuditTrail_LogsCreateAndUpdate(t *testing.T) {
	hooks := domain.NewHookRegistry[*area.Area]()
	rec := &recordingAuditor{}
	registerAuditTrail(hooks, rec, "area")

	ar := area.NewArea("AR-001", "Main Warehouse", area.TypeStock)
	require.NoError(t, hooks.RunAfterCreate(context.Background(), ar))
	require.NoError(t, hooks.RunAfterUpdate(context.Background(), ar))

	require.Len(t, rec.changes, 2)
	assert.Equal(t, recordedChange{entityType: "area", action: postgres.AuditActionCreate}, rec.changes[0])
	assert.Equal(t, recordedChange{entityType: "area", action: postgres.AuditActionUpdate}, rec.changes[1])
}
