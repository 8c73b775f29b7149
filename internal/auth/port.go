package auth

import "context"

type OperatorServiceAPI interface {
	Create(ctx context.Context, input CreateOperatorInput) (*Operator, error)
	Authenticate(ctx context.Context, email, password string) (*Operator, error)
	GetByID(ctx context.Context, id uint) (*Operator, error)
	List(ctx context.Context) ([]Operator, error)
}

var _ OperatorServiceAPI = (*OperatorService)(nil)
