package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"poscore/internal/core/apperror"
	"poscore/internal/core/business"
	"poscore/internal/core/id"
	"poscore/internal/core/security"
	"poscore/internal/core/tx"
	"poscore/internal/core/types"
	"poscore/internal/domain"
	"poscore/internal/domain/catalogs/area"
	"poscore/internal/domain/catalogs/product"
	"poscore/internal/domain/cycles"
	"poscore/internal/domain/shifts"
	"poscore/pkg/logger"
)

// AreaGetter resolves areas for movement validation.
type AreaGetter interface {
	GetByID(ctx context.Context, id id.ID) (*area.Area, error)
}

// ProductGetter resolves products for movement validation.
type ProductGetter interface {
	GetByID(ctx context.Context, id id.ID) (*product.Product, error)
}

// ProductCoster recalculates weighted average cost on receipts.
type ProductCoster interface {
	RecalculateAverageCost(ctx context.Context, productID id.ID, currentQty, receivedQty, receivedCost decimal.Decimal) error
}

// CycleGate supplies the cycle movements are recorded against.
type CycleGate interface {
	RequireAcceptingCycle(ctx context.Context) (*cycles.EconomicCycle, error)
}

// ShiftResolver finds the open shift for an area, enforcing shift
// requirements of the area.
type ShiftResolver interface {
	RequireOpenShift(ctx context.Context, ar *area.Area) (*shifts.Shift, error)
}

// Service provides business operations for the stock ledger.
type Service struct {
	repo      Repository
	areas     AreaGetter
	products  ProductGetter
	coster    ProductCoster
	cycleGate CycleGate
	shiftRes  ShiftResolver
	policy    security.MovementPolicy
	txManager tx.Manager // Optional. If nil, obtained from context.
}

// NewService creates a new ledger service.
func NewService(
	repo Repository,
	areas AreaGetter,
	products ProductGetter,
	coster ProductCoster,
	cycleGate CycleGate,
	shiftRes ShiftResolver,
	policy security.MovementPolicy,
	txManager tx.Manager,
) *Service {
	if policy == nil {
		policy = security.OpenPolicy{}
	}
	return &Service{
		repo:      repo,
		areas:     areas,
		products:  products,
		coster:    coster,
		cycleGate: cycleGate,
		shiftRes:  shiftRes,
		policy:    policy,
		txManager: txManager,
	}
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return business.GetTxManager(ctx)
}

// RecordInput describes a single movement to record.
type RecordInput struct {
	Operation    Operation
	ProductID    id.ID
	AreaID       id.ID
	Quantity     types.Quantity
	UnitCost     *decimal.Decimal
	CostCurrency *string
	Description  *string
	CreatedBy    string
}

// Record writes one movement to the ledger.
// Transfers are recorded through Move, not here.
func (s *Service) Record(ctx context.Context, input RecordInput) (*Movement, error) {
	if input.Operation == OperationMove {
		return nil, apperror.NewValidation("transfers must be recorded via move").
			WithDetail("field", "operation")
	}

	cycle, ar, prod, err := s.resolveContext(ctx, input.AreaID, input.ProductID)
	if err != nil {
		return nil, err
	}

	m := NewMovement(input.Operation, prod.ID, ar.ID, cycle.ID, input.Quantity, input.CreatedBy)
	m.UnitCost = input.UnitCost
	m.CostCurrency = input.CostCurrency
	m.Description = input.Description

	shift, err := s.shiftRes.RequireOpenShift(ctx, ar)
	if err != nil {
		return nil, err
	}
	if shift != nil {
		m.ShiftID = &shift.ID
	}

	if err := m.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.policy.CanRecord(ctx, m.CreatedAt); err != nil {
		return nil, err
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	var balanceBefore types.Quantity
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var txErr error
		balanceBefore, txErr = s.checkStock(ctx, ar, prod.ID, m.SignedQuantity())
		if txErr != nil {
			return txErr
		}
		return s.repo.Create(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	// Entries with a cost reprice the product's weighted average
	if m.Operation == OperationEntry && m.UnitCost != nil && s.coster != nil {
		if err := s.coster.RecalculateAverageCost(ctx,
			prod.ID,
			balanceBefore.ToDecimal(),
			m.Quantity.ToDecimal(),
			*m.UnitCost,
		); err != nil {
			logger.Warn(ctx, "average cost recalculation failed",
				"product_id", prod.ID,
				"error", err)
		}
	}

	logger.Info(ctx, "movement recorded",
		"movement_id", m.ID,
		"operation", m.Operation,
		"product_id", m.ProductID,
		"area_id", m.AreaID)

	return m, nil
}

// MoveInput describes a transfer between two stock areas.
type MoveInput struct {
	ProductID   id.ID
	FromAreaID  id.ID
	ToAreaID    id.ID
	Quantity    types.Quantity
	Description *string
	CreatedBy   string
}

// Move transfers stock between areas. Exactly two linked rows are
// written atomically: a MOVE at the source and an ENTRY at the
// destination pointing back via ParentID.
func (s *Service) Move(ctx context.Context, input MoveInput) (source, dest *Movement, err error) {
	if input.FromAreaID == input.ToAreaID {
		return nil, nil, apperror.NewValidation("source and destination areas must differ").
			WithDetail("field", "toAreaId")
	}

	cycle, fromArea, prod, err := s.resolveContext(ctx, input.FromAreaID, input.ProductID)
	if err != nil {
		return nil, nil, err
	}

	toArea, err := s.areas.GetByID(ctx, input.ToAreaID)
	if err != nil {
		return nil, nil, err
	}
	if !toArea.HoldsStock() {
		return nil, nil, apperror.NewValidation("destination area does not hold stock").
			WithDetail("area_id", toArea.ID.String())
	}

	source = NewMovement(OperationMove, prod.ID, fromArea.ID, cycle.ID, input.Quantity, input.CreatedBy)
	source.MovedToAreaID = &toArea.ID
	source.Description = input.Description

	dest = NewMovement(OperationEntry, prod.ID, toArea.ID, cycle.ID, input.Quantity, input.CreatedBy)
	dest.ParentID = &source.ID
	dest.Description = input.Description

	if err := source.Validate(ctx); err != nil {
		return nil, nil, err
	}
	if err := dest.Validate(ctx); err != nil {
		return nil, nil, err
	}
	if err := s.policy.CanRecord(ctx, source.CreatedAt); err != nil {
		return nil, nil, err
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.checkStock(ctx, fromArea, prod.ID, source.SignedQuantity()); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, source); err != nil {
			return fmt.Errorf("create source leg: %w", err)
		}
		if err := s.repo.Create(ctx, dest); err != nil {
			return fmt.Errorf("create destination leg: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "stock moved",
		"product_id", prod.ID,
		"from_area", fromArea.ID,
		"to_area", toArea.ID,
		"quantity", input.Quantity.String())

	return source, dest, nil
}

// Reverse cancels a movement by writing a reversal row. The original is
// never mutated. A movement can be reversed at most once; transfer
// source legs reverse both legs atomically. Destination legs cannot be
// reversed directly - reverse the source leg instead.
func (s *Service) Reverse(ctx context.Context, movementID id.ID, reversedBy string) ([]*Movement, error) {
	original, err := s.repo.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}

	if original.IsReversal() {
		return nil, apperror.NewValidation("cannot reverse a reversal").
			WithDetail("movement_id", movementID.String())
	}
	if original.IsTransferLeg() {
		return nil, apperror.NewValidation("reverse the transfer source leg, not the destination").
			WithDetail("movement_id", movementID.String()).
			WithDetail("parent_id", original.ParentID.String())
	}

	if reversed, err := s.repo.HasReversal(ctx, movementID); err != nil {
		return nil, err
	} else if reversed {
		return nil, apperror.NewMovementReversed(movementID.String())
	}

	if err := s.policy.CanReverse(ctx, original.CreatedAt); err != nil {
		return nil, err
	}

	// The cycle must still accept operations, and it must be the cycle
	// the movement was booked in: reversing into a later cycle would
	// subtract income that cycle never earned.
	cycle, err := s.cycleGate.RequireAcceptingCycle(ctx)
	if err != nil {
		return nil, err
	}
	if original.CycleID != cycle.ID {
		return nil, apperror.NewConflict("movement belongs to a closed cycle and can no longer be reversed").
			WithDetail("movement_id", movementID.String()).
			WithDetail("movement_cycle_id", original.CycleID.String())
	}

	targets := []*Movement{original}
	if original.Operation == OperationMove {
		children, err := s.repo.GetChildren(ctx, original.ID)
		if err != nil {
			return nil, err
		}
		targets = append(targets, children...)
	}

	reversals := make([]*Movement, 0, len(targets))
	for _, t := range targets {
		r := NewMovement(t.Operation, t.ProductID, t.AreaID, cycle.ID, t.Quantity, reversedBy)
		r.ReversalOfID = &t.ID
		r.MovedToAreaID = t.MovedToAreaID
		reversals = append(reversals, r)
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, r := range reversals {
			if err := s.repo.Create(ctx, r); err != nil {
				// Unique index on reversal_of_id: lost a concurrent race
				if apperror.IsConflict(err) {
					return apperror.NewMovementReversed(r.ReversalOfID.String())
				}
				return fmt.Errorf("create reversal: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "movement reversed",
		"movement_id", movementID,
		"reversal_count", len(reversals))

	return reversals, nil
}

// BulkEntry records many ENTRY movements in one batch (initial stock
// load, purchase receipts). Uses the COPY fast path.
func (s *Service) BulkEntry(ctx context.Context, inputs []RecordInput) ([]*Movement, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	cycle, err := s.cycleGate.RequireAcceptingCycle(ctx)
	if err != nil {
		return nil, err
	}

	movements := make([]*Movement, 0, len(inputs))
	for i, input := range inputs {
		if input.Operation != OperationEntry {
			return nil, apperror.NewValidation("bulk load accepts entries only").
				WithDetail("index", i)
		}

		ar, err := s.areas.GetByID(ctx, input.AreaID)
		if err != nil {
			return nil, err
		}
		if !ar.HoldsStock() {
			return nil, apperror.NewValidation("area does not hold stock").
				WithDetail("area_id", ar.ID.String()).
				WithDetail("index", i)
		}

		m := NewMovement(OperationEntry, input.ProductID, input.AreaID, cycle.ID, input.Quantity, input.CreatedBy)
		m.UnitCost = input.UnitCost
		m.CostCurrency = input.CostCurrency
		m.Description = input.Description
		if err := m.Validate(ctx); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.CreateBatch(ctx, movements)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "bulk entries recorded", "count", len(movements))

	return movements, nil
}

// GetByID retrieves a movement.
func (s *Service) GetByID(ctx context.Context, movementID id.ID) (*Movement, error) {
	return s.repo.GetByID(ctx, movementID)
}

// GetBalance returns current stock of a product in an area.
func (s *Service) GetBalance(ctx context.Context, areaID, productID id.ID) (types.Quantity, error) {
	return s.repo.GetBalance(ctx, areaID, productID)
}

// GetAreaBalances returns all non-zero balances of an area.
func (s *Service) GetAreaBalances(ctx context.Context, areaID id.ID) ([]Balance, error) {
	return s.repo.GetAreaBalances(ctx, areaID)
}

// List retrieves movements with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Movement], error) {
	return s.repo.List(ctx, filter)
}

// resolveContext loads and validates the cycle, area and product shared
// by single-movement operations.
func (s *Service) resolveContext(ctx context.Context, areaID, productID id.ID) (*cycles.EconomicCycle, *area.Area, *product.Product, error) {
	cycle, err := s.cycleGate.RequireAcceptingCycle(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	ar, err := s.areas.GetByID(ctx, areaID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !ar.HoldsStock() {
		return nil, nil, nil, apperror.NewValidation("area does not hold stock").
			WithDetail("area_id", areaID.String()).
			WithDetail("type", string(ar.Type))
	}

	prod, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !prod.IsStockable() {
		return nil, nil, nil, apperror.NewValidation("product is not stockable").
			WithDetail("product_id", productID.String()).
			WithDetail("type", string(prod.Type))
	}

	return cycle, ar, prod, nil
}

// checkStock verifies an outbound movement leaves enough stock, unless
// the area allows negative balances. Returns the balance before the
// movement. Must run inside the movement transaction.
func (s *Service) checkStock(ctx context.Context, ar *area.Area, productID id.ID, signed types.Quantity) (types.Quantity, error) {
	if signed >= 0 {
		// Inbound movements still report the prior balance for cost math
		return s.repo.GetBalance(ctx, ar.ID, productID)
	}

	balance, err := s.repo.GetBalanceForUpdate(ctx, ar.ID, productID)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}

	if !ar.AllowNegativeStock && balance+signed < 0 {
		return 0, apperror.NewInsufficientStock(
			productID.String(),
			signed.Neg().Float64(),
			balance.Float64(),
		)
	}

	return balance, nil
}
