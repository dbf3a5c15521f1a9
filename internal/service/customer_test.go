package service_test

import (
	"context"
	"testing"

	"github.com/Behyna/giftledger/internal/constants"
	"github.com/Behyna/giftledger/internal/repository"
	"github.com/Behyna/giftledger/internal/service"
	"github.com/Behyna/giftledger/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCustomerResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (service.CustomerResolver, *testutil.Fixture) {
		db := testutil.NewDB(t)
		return service.NewCustomerResolver(repository.NewCustomerRepository(db), zap.NewNop()), testutil.NewFixture(t, db)
	}

	t.Run("existing customer", func(t *testing.T) {
		resolver, fx := setup(t)
		existing := fx.Customer("09121234567")

		for _, policy := range []service.ProvisioningPolicy{service.LookupOnly, service.AutoProvision} {
			cu, err := resolver.Resolve(ctx, "09121234567", policy)
			require.NoError(t, err)
			assert.Equal(t, existing.ID, cu.ID)
		}
	})

	t.Run("lookup only rejects unknown phones", func(t *testing.T) {
		resolver, _ := setup(t)

		_, err := resolver.Resolve(ctx, "09121234567", service.LookupOnly)

		assertCode(t, constants.ErrCodeCustomerNotFound, err)
	})

	t.Run("auto provision creates once", func(t *testing.T) {
		resolver, _ := setup(t)

		first, err := resolver.Resolve(ctx, "09121234567", service.AutoProvision)
		require.NoError(t, err)
		second, err := resolver.Resolve(ctx, "09121234567", service.AutoProvision)
		require.NoError(t, err)

		assert.NotZero(t, first.ID)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("malformed phone", func(t *testing.T) {
		resolver, _ := setup(t)

		_, err := resolver.Resolve(ctx, "12-34", service.AutoProvision)

		assertCode(t, constants.ErrCodeInvalidPhone, err)
	})
}

func TestPolicyFromConfig(t *testing.T) {
	assert.Equal(t, service.AutoProvision, service.PolicyFromConfig(true))
	assert.Equal(t, service.LookupOnly, service.PolicyFromConfig(false))
}
