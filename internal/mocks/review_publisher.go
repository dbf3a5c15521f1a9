package mocks

import (
	"context"

	"github.com/Behyna/giftledger/internal/model"
	"github.com/stretchr/testify/mock"
)

type ReviewPublisher struct {
	mock.Mock
}

func (r *ReviewPublisher) PublishOrphan(ctx context.Context, row model.Transaction) error {
	args := r.Called(ctx, row)
	return args.Error(0)
}
