package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
	"github.com/IlTetta/Climate-Monitoring-App/internal/repository"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/logging"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/metrics"
)

// OperatorService handles operator login, registration and center binding
type OperatorService struct {
	store   repository.Store
	logger  *logging.ContextLogger
	metrics *metrics.Collector
}

// Registration carries the fields submitted by a new operator
type Registration struct {
	NameSurname string `json:"name_surname"`
	TaxCode     string `json:"tax_code"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	CenterID    int64  `json:"center_id"`
}

// NewOperatorService creates a new operator service
func NewOperatorService(store repository.Store, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *OperatorService {
	return &OperatorService{
		store:   store,
		logger:  logger.WithFields(logging.Fields{"component": "operator_service"}),
		metrics: metricsCollector,
	}
}

// PerformLogin returns the operator matching the credentials, or nil when
// none does. A wrong password is not an error.
func (s *OperatorService) PerformLogin(ctx context.Context, username, password string) (*models.Operator, error) {
	if username == "" {
		s.metrics.RecordLogin("invalid")
		return nil, models.NewValidationError(FieldUsername, username, "username and password must not be empty")
	}
	if password == "" {
		s.metrics.RecordLogin("invalid")
		return nil, models.NewValidationError(FieldPassword, "", "username and password must not be empty")
	}

	matches, err := s.store.FindOperators(ctx,
		models.NewCondition(models.OperatorFieldUsername, username),
		models.NewCondition(models.OperatorFieldPassword, HashPassword(username, password)),
	)
	if err != nil {
		s.metrics.RecordLogin("error")
		return nil, fmt.Errorf("failed to look up operator: %w", err)
	}

	switch len(matches) {
	case 0:
		s.metrics.RecordLogin("no_match")
		s.logger.Info(ctx, "[LOGIN_FAILED] No operator matches credentials", logging.Fields{
			"username": username,
		})
		return nil, nil
	case 1:
		s.metrics.RecordLogin("success")
		s.logger.Info(logging.WithOperatorID(ctx, matches[0].ID), "[LOGIN_SUCCESS] Operator logged in", logging.Fields{
			"username": username,
		})
		return matches[0], nil
	default:
		s.metrics.RecordLogin("error")
		err := fmt.Errorf("%d operators share username %q: %w", len(matches), username, models.ErrInternalInconsistency)
		s.logger.Error(ctx, "[LOGIN_INCONSISTENT] Duplicate operator credentials", logging.Fields{
			"username": username,
			"matches":  len(matches),
		}, err)
		return nil, err
	}
}

// PerformRegistration validates reg field by field, stopping at the first
// violation, and stores the operator with a hashed credential
func (s *OperatorService) PerformRegistration(ctx context.Context, reg Registration) (*models.Operator, error) {
	if err := s.validateRegistration(ctx, reg); err != nil {
		s.metrics.RecordRegistration("rejected")
		s.logger.Warn(ctx, "[REGISTER_REJECTED] Registration rejected", logging.Fields{
			"username": reg.Username,
		}, err)
		return nil, err
	}

	op := &models.Operator{
		NameSurname: reg.NameSurname,
		TaxCode:     reg.TaxCode,
		Email:       reg.Email,
		Username:    reg.Username,
		Password:    HashPassword(reg.Username, reg.Password),
		CenterID:    reg.CenterID,
		CreatedAt:   clock.Now().UTC(),
	}

	if err := s.store.CreateOperator(ctx, op); err != nil {
		if errors.Is(err, models.ErrDuplicateUsername) {
			s.metrics.RecordRegistration("rejected")
			return nil, duplicateUsername(reg.Username)
		}
		s.metrics.RecordRegistration("error")
		return nil, fmt.Errorf("failed to create operator: %w", err)
	}

	s.metrics.RecordRegistration("success")
	s.logger.Info(logging.WithOperatorID(ctx, op.ID), "[REGISTER_SUCCESS] Operator registered", logging.Fields{
		"username":  op.Username,
		"center_id": op.CenterID,
	})

	return op, nil
}

func (s *OperatorService) validateRegistration(ctx context.Context, reg Registration) error {
	if err := validateNameSurname(reg.NameSurname); err != nil {
		return err
	}
	if err := validateTaxCode(reg.TaxCode); err != nil {
		return err
	}
	if err := validateEmail(reg.Email); err != nil {
		return err
	}
	if err := validateUsernameFormat(reg.Username); err != nil {
		return err
	}

	existing, err := s.store.FindOperators(ctx, models.NewCondition(models.OperatorFieldUsername, reg.Username))
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	for _, op := range existing {
		if op.Username == reg.Username {
			return duplicateUsername(reg.Username)
		}
	}

	return validatePassword(reg.Password)
}

func duplicateUsername(username string) error {
	return &models.ValidationError{
		Field:   FieldUsername,
		Value:   username,
		Message: fmt.Sprintf("username %q is already registered", username),
		Err:     models.ErrDuplicateUsername,
	}
}

// AssociateCenter binds an operator without a center to centerID. The
// binding happens once; centerID itself is trusted to come from a listing.
func (s *OperatorService) AssociateCenter(ctx context.Context, operatorID, centerID int64) (*models.Operator, error) {
	ctx = logging.WithOperatorID(ctx, operatorID)

	if centerID <= models.NoCenter {
		return nil, models.NewValidationError(FieldCenter, fmt.Sprint(centerID), "center id must be positive")
	}

	op, err := s.store.GetOperator(ctx, operatorID)
	if err != nil {
		return nil, err
	}

	if op.HasCenter() {
		s.logger.Warn(ctx, "[ASSOCIATE_REJECTED] Operator already bound to a center", logging.Fields{
			"current_center_id":   op.CenterID,
			"requested_center_id": centerID,
		}, models.ErrAlreadyAssociated)
		return nil, fmt.Errorf("operator %d: %w", operatorID, models.ErrAlreadyAssociated)
	}

	updated := op.WithCenter(centerID)
	if err := s.store.UpdateOperator(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to update operator: %w", err)
	}

	s.logger.Info(ctx, "[ASSOCIATE_SUCCESS] Operator bound to center", logging.Fields{
		"center_id": centerID,
	})

	return updated, nil
}

// GetOperator retrieves an operator by ID
func (s *OperatorService) GetOperator(ctx context.Context, operatorID int64) (*models.Operator, error) {
	return s.store.GetOperator(ctx, operatorID)
}
