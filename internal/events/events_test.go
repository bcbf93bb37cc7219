package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"littlegrow/internal/models"
)

type mockBroker struct {
	mock.Mock
}

func (m *mockBroker) Publish(ctx context.Context, queue, messageType string, body []byte) error {
	args := m.Called(queue, messageType, body)
	return args.Error(0)
}

func TestAMQPPublisherSendsJSONToOrderQueue(t *testing.T) {
	broker := new(mockBroker)
	order := &models.Order{ID: "ord-1", UserID: "user-1", Status: models.OrderStatusCompleted, TotalPrice: decimal.NewFromInt(20000)}

	var sent []byte
	broker.On("Publish", Queue, TypeOrderCompleted, mock.AnythingOfType("[]uint8")).
		Run(func(args mock.Arguments) { sent = args.Get(2).([]byte) }).
		Return(nil).Once()

	err := NewAMQPPublisher(broker).Publish(context.Background(), NewOrderEvent(TypeOrderCompleted, order, "webhook"))
	require.NoError(t, err)
	broker.AssertExpectations(t)

	var decoded OrderEvent
	require.NoError(t, json.Unmarshal(sent, &decoded))
	assert.Equal(t, "ord-1", decoded.OrderID)
	assert.Equal(t, models.OrderStatusCompleted, decoded.Status)
	assert.Equal(t, "webhook", decoded.Trigger)
	assert.True(t, decoded.Total.Equal(decimal.NewFromInt(20000)))
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), OrderEvent{}))
}
