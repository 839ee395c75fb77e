package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poscore/internal/core/apperror"
)

func TestPlanGate_Check(t *testing.T) {
	gate, err := NewPlanGate(DefaultPlanRules())
	require.NoError(t, err)

	ctx := context.Background()

	tests := []struct {
		name    string
		rule    string
		plan    string
		usage   PlanUsage
		wantErr bool
	}{
		{
			name:    "free plan under area limit",
			rule:    "max_areas",
			plan:    "free",
			usage:   PlanUsage{AreaCount: 1},
			wantErr: false,
		},
		{
			name:    "free plan at area limit",
			rule:    "max_areas",
			plan:    "free",
			usage:   PlanUsage{AreaCount: 2},
			wantErr: true,
		},
		{
			name:    "full plan has no area limit",
			rule:    "max_areas",
			plan:    "full",
			usage:   PlanUsage{AreaCount: 500},
			wantErr: false,
		},
		{
			name:    "standard plan user limit",
			rule:    "max_users",
			plan:    "standard",
			usage:   PlanUsage{UserCount: 20},
			wantErr: true,
		},
		{
			name:    "reports blocked on free plan",
			rule:    "reports_access",
			plan:    "free",
			wantErr: true,
		},
		{
			name:    "reports allowed on standard plan",
			rule:    "reports_access",
			plan:    "standard",
			wantErr: false,
		},
		{
			name:    "unknown rule passes",
			rule:    "no_such_rule",
			plan:    "free",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Check(ctx, tt.rule, tt.plan, tt.usage)
			if tt.wantErr {
				require.Error(t, err)
				appErr, ok := apperror.AsAppError(err)
				require.True(t, ok)
				assert.Equal(t, apperror.CodePlanLimit, appErr.Code)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewPlanGate_InvalidExpression(t *testing.T) {
	_, err := NewPlanGate([]PlanRule{
		{Name: "broken", Expr: "plan =="},
	})
	require.Error(t, err)
}
