package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/Behyna/giftledger/internal/constants"
	"github.com/Behyna/giftledger/internal/model"
	"github.com/Behyna/giftledger/internal/repository"
	"go.uber.org/zap"
)

// ProvisioningPolicy decides what happens when a debit names a phone number
// with no customer record.
type ProvisioningPolicy int

const (
	LookupOnly ProvisioningPolicy = iota
	AutoProvision
)

// PolicyFromConfig maps the ledger.auto_provision_customers flag to a policy.
func PolicyFromConfig(autoProvision bool) ProvisioningPolicy {
	if autoProvision {
		return AutoProvision
	}
	return LookupOnly
}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

type CustomerResolver interface {
	Resolve(ctx context.Context, phone string, policy ProvisioningPolicy) (*model.Customer, error)
}

type customerResolver struct {
	customers repository.CustomerRepository
	logger    *zap.Logger
}

func NewCustomerResolver(customers repository.CustomerRepository, logger *zap.Logger) CustomerResolver {
	return &customerResolver{customers: customers, logger: logger}
}

func (c *customerResolver) Resolve(ctx context.Context, phone string, policy ProvisioningPolicy) (*model.Customer, error) {
	if !ValidPhone(phone) {
		return nil, NewServiceError(constants.ErrCodeInvalidPhone, ErrInvalidPhone)
	}

	cu, err := c.customers.FindByPhone(ctx, phone)
	if err == nil {
		return cu, nil
	}

	if !errors.Is(err, repository.ErrCustomerNotFound) {
		return nil, NewServiceError(constants.ErrCodeOperationFailed, err)
	}

	if policy != AutoProvision {
		return nil, NewServiceError(constants.ErrCodeCustomerNotFound, err)
	}

	cu = &model.Customer{Phone: phone, CreatedAt: time.Now().UTC()}
	err = c.customers.Create(ctx, cu)
	if err == nil {
		c.logger.Info("Customer provisioned", zap.Int64("customerID", cu.ID))
		return cu, nil
	}

	// Lost a race with a concurrent first debit for the same phone.
	if errors.Is(err, repository.ErrCustomerExisted) {
		if cu, err = c.customers.FindByPhoneForUpdate(ctx, phone); err == nil {
			return cu, nil
		}
	}

	return nil, NewServiceError(constants.ErrCodeOperationFailed, err)
}
