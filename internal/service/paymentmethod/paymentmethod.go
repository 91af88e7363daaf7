// internal/service/paymentmethod/paymentmethod.go
package paymentmethod

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"invoicely-service/internal/domain/paymentmethod"
	xerrors "invoicely-service/internal/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type PaymentMethodService struct {
	repo     paymentmethod.Repository
	validate *validator.Validate
	logger   *zap.Logger
}

func NewPaymentMethodService(repo paymentmethod.Repository, logger *zap.Logger) *PaymentMethodService {
	return &PaymentMethodService{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

func (s *PaymentMethodService) List(ctx context.Context, userID string) ([]paymentmethod.PaymentMethod, error) {
	methods, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list payment methods", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	return methods, nil
}

// Create validates the details for the method type and appends it to the end of the list.
func (s *PaymentMethodService) Create(ctx context.Context, userID string, req *paymentmethod.CreateRequest) (*paymentmethod.PaymentMethod, error) {
	details, err := s.validateDetails(req.Type, req.Details)
	if err != nil {
		return nil, err
	}

	pm := &paymentmethod.PaymentMethod{
		ID:       uuid.NewString(),
		UserID:   userID,
		Type:     req.Type,
		Details:  details,
		IsActive: req.IsActive == nil || *req.IsActive,
	}

	if err := s.repo.Create(ctx, pm); err != nil {
		s.logger.Error("failed to create payment method", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to create payment method: %w", err)
	}

	s.logger.Info("payment method created",
		zap.String("user_id", userID),
		zap.String("type", string(pm.Type)),
		zap.Int("order_index", pm.OrderIndex),
	)
	return pm, nil
}

// Update replaces the details of an existing method; its type cannot change.
func (s *PaymentMethodService) Update(ctx context.Context, userID, id string, req *paymentmethod.UpdateRequest) (*paymentmethod.PaymentMethod, error) {
	pm, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	details, err := s.validateDetails(pm.Type, req.Details)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateDetails(ctx, userID, id, details); err != nil {
		return nil, err
	}
	pm.Details = details
	return pm, nil
}

func (s *PaymentMethodService) ToggleActive(ctx context.Context, userID, id string) (bool, error) {
	return s.repo.ToggleActive(ctx, userID, id)
}

func (s *PaymentMethodService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info("payment method deleted", zap.String("user_id", userID), zap.String("id", id))
	return nil
}

// Reorder rewrites the whole order in one transaction and returns the new list.
func (s *PaymentMethodService) Reorder(ctx context.Context, userID string, orderedIDs []string) ([]paymentmethod.PaymentMethod, error) {
	if len(orderedIDs) == 0 {
		return nil, xerrors.Invalid("ordered_ids is required")
	}
	if dupes := lo.FindDuplicates(orderedIDs); len(dupes) > 0 {
		return nil, xerrors.Invalid("payment method %q listed twice", dupes[0])
	}

	if err := s.repo.Reorder(ctx, userID, orderedIDs); err != nil {
		if !xerrors.Is(err, xerrors.ErrInvalidInput) {
			s.logger.Error("failed to reorder payment methods", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, err
	}
	return s.List(ctx, userID)
}

// validateDetails keeps only the keys the type defines, trimmed, and checks
// them against the type's rules.
func (s *PaymentMethodService) validateDetails(t paymentmethod.Type, details map[string]string) (map[string]string, error) {
	rules, ok := paymentmethod.DetailRules[t]
	if !ok {
		return nil, xerrors.Invalid("unknown payment method type %q", t)
	}

	clean := make(map[string]string, len(rules))
	data := make(map[string]interface{}, len(rules))
	ruleSet := make(map[string]interface{}, len(rules))
	for key, rule := range rules {
		ruleSet[key] = rule
		if v, ok := details[key]; ok {
			clean[key] = strings.TrimSpace(v)
			data[key] = clean[key]
		}
	}

	if errs := s.validate.ValidateMap(data, ruleSet); len(errs) > 0 {
		fields := lo.Keys(errs)
		sort.Strings(fields)
		return nil, xerrors.Invalid("%s details missing or invalid: %s", t, strings.Join(fields, ", "))
	}
	return clean, nil
}
