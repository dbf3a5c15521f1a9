package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type txKey struct{}

type TxManager struct {
	mock.Mock
}

func (t *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := t.Called(ctx, fn)

	if args.Error(0) != nil {
		return args.Error(0)
	}

	txCtx := context.WithValue(ctx, txKey{}, "mock_tx")
	return fn(txCtx)
}
