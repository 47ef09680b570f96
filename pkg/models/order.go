package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderProcessing: {OrderShipped, OrderDelivered, OrderCancelled},
	OrderShipped:    {OrderDelivered, OrderCancelled},
}

// CanTransition reports whether the strict lifecycle allows from -> to.
// Delivered and Cancelled are terminal; re-applying the current status is allowed.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
)

type ShippingAddress struct {
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
}

// OrderItem is a snapshot of a cart line at order time.
type OrderItem struct {
	ProductID   primitive.ObjectID `bson:"productId" json:"productId"`
	ProductType string             `bson:"productType" json:"productType"`
	Name        string             `bson:"name,omitempty" json:"name,omitempty"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	Price       float64            `bson:"price" json:"price"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID          primitive.ObjectID `bson:"user" json:"-"`
	User            *UserSummary       `bson:"-" json:"user"`
	OrderItems      []OrderItem        `bson:"orderItems" json:"orderItems"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod   string             `bson:"paymentMethod" json:"paymentMethod"`
	ItemsPrice      float64            `bson:"itemsPrice" json:"itemsPrice"`
	TaxPrice        float64            `bson:"taxPrice" json:"taxPrice"`
	ShippingPrice   float64            `bson:"shippingPrice" json:"shippingPrice"`
	TotalPrice      float64            `bson:"totalPrice" json:"totalPrice"`
	IsPaid          bool               `bson:"isPaid" json:"isPaid"`
	PaidAt          *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	PaymentStatus   PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	IsDelivered     bool               `bson:"isDelivered" json:"isDelivered"`
	DeliveredAt     *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	OrderStatus     OrderStatus        `bson:"orderStatus" json:"orderStatus"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (Order) CollectionName() string {
	return "orders"
}

func (o *Order) OwnedBy(userID primitive.ObjectID) bool {
	return o.UserID == userID
}

// ApplyStatus sets the lifecycle status. Delivered also stamps delivery.
func (o *Order) ApplyStatus(status OrderStatus, now time.Time) {
	o.OrderStatus = status
	if status == OrderDelivered {
		o.IsDelivered = true
		o.DeliveredAt = &now
	}
	o.UpdatedAt = now
}

// MarkPaid records payment. A second call keeps the first paidAt.
func (o *Order) MarkPaid(now time.Time) {
	o.IsPaid = true
	o.PaymentStatus = PaymentPaid
	if o.PaidAt == nil {
		o.PaidAt = &now
	}
	o.UpdatedAt = now
}
