package payreq

import "context"

// MockEndpoint is a test double for Endpoint.
type MockEndpoint struct {
	SendPaymentFn func(ctx context.Context, pay *Payment) (*PaymentACK, error)
}

func (m *MockEndpoint) SendPayment(ctx context.Context, pay *Payment) (*PaymentACK, error) {
	return m.SendPaymentFn(ctx, pay)
}
