package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/gemora/pkg/apperr"
	"github.com/example/gemora/pkg/audit"
	"github.com/example/gemora/pkg/auth"
	"github.com/example/gemora/pkg/config"
	"github.com/example/gemora/pkg/metrics"
	"github.com/example/gemora/pkg/models"
	"github.com/example/gemora/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// StockAdjuster applies a signed delta to an item's stock and returns the new count.
type StockAdjuster interface {
	AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) (int, error)
}

type OrderLineInput struct {
	ProductID   string  `json:"productId"`
	ProductType string  `json:"productType"`
	Name        string  `json:"name"`
	Image       string  `json:"image"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

type CreateOrderInput struct {
	OrderItems      []OrderLineInput       `json:"orderItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	ItemsPrice      float64                `json:"itemsPrice"`
	TaxPrice        float64                `json:"taxPrice"`
	ShippingPrice   float64                `json:"shippingPrice"`
	TotalPrice      float64                `json:"totalPrice"`
}

type OrderServiceConfig struct {
	Consistency       string
	StrictTransitions bool
}

type OrderService struct {
	orders    repository.OrderStore
	users     repository.UserStore
	stock     map[models.ProductKind]StockAdjuster
	tx        repository.TxRunner
	auditLogs repository.AuditStore
	recorder  audit.Recorder
	cfg       OrderServiceConfig
	now       clock
	logger    *zap.Logger
}

func NewOrderService(
	orders repository.OrderStore,
	users repository.UserStore,
	stock map[models.ProductKind]StockAdjuster,
	tx repository.TxRunner,
	auditLogs repository.AuditStore,
	recorder audit.Recorder,
	cfg OrderServiceConfig,
	logger *zap.Logger,
) *OrderService {
	if cfg.Consistency == "" {
		cfg.Consistency = config.ConsistencyBestEffort
	}
	return &OrderService{
		orders:    orders,
		users:     users,
		stock:     stock,
		tx:        tx,
		auditLogs: auditLogs,
		recorder:  recorder,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger.Named("orders"),
	}
}

// Create places an order for p and takes each line's quantity out of stock.
// Stock has no floor; a decrement that goes negative is logged and counted.
func (s *OrderService) Create(ctx context.Context, p auth.Principal, in CreateOrderInput) (*models.Order, error) {
	if len(in.OrderItems) == 0 {
		return nil, apperr.InvalidInput("No order items provided")
	}

	items := make([]models.OrderItem, len(in.OrderItems))
	kinds := make([]models.ProductKind, len(in.OrderItems))
	for i, line := range in.OrderItems {
		kind, ok := models.ParseProductKind(line.ProductType)
		if !ok {
			return nil, apperr.InvalidInput(fmt.Sprintf("orderItems[%d]: unknown productType %q", i, line.ProductType))
		}
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(line.ProductID))
		if err != nil {
			return nil, apperr.InvalidInput(fmt.Sprintf("orderItems[%d]: invalid productId", i))
		}
		kinds[i] = kind
		items[i] = models.OrderItem{
			ProductID:   id,
			ProductType: line.ProductType,
			Name:        line.Name,
			Image:       line.Image,
			Quantity:    line.Quantity,
			Price:       line.Price,
		}
	}

	now := s.now()
	order := &models.Order{
		ID:              primitive.NewObjectID(),
		UserID:          p.UserID,
		OrderItems:      items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		ItemsPrice:      in.ItemsPrice,
		TaxPrice:        in.TaxPrice,
		ShippingPrice:   in.ShippingPrice,
		TotalPrice:      in.TotalPrice,
		PaymentStatus:   models.PaymentPending,
		OrderStatus:     models.OrderProcessing,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	place := func(ctx context.Context) error {
		if err := s.orders.Insert(ctx, order); err != nil {
			return apperr.Dependency("Failed to create order", err)
		}
		for i, item := range order.OrderItems {
			if err := s.decrement(ctx, order.ID, kinds[i], item); err != nil {
				return err
			}
		}
		return nil
	}

	var err error
	if s.cfg.Consistency == config.ConsistencyTransactional {
		err = s.tx.WithinTransaction(ctx, place)
	} else {
		err = place(ctx)
	}
	if err != nil {
		if apperr.KindOf(err) == apperr.KindDependency {
			s.logger.Error("Order placement failed",
				zap.String("order_id", order.ID.Hex()),
				zap.String("consistency", s.cfg.Consistency),
				zap.Error(err))
		}
		var appErr *apperr.Error
		if !errors.As(err, &appErr) {
			err = apperr.Dependency("Failed to create order", err)
		}
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	s.recorder.Record(audit.Entry{
		Action:   audit.ActionOrderCreated,
		EntityID: order.ID.Hex(),
		ActorID:  p.UserID.Hex(),
		Data:     bson.M{"items": len(order.OrderItems), "totalPrice": order.TotalPrice},
	})

	if err := s.populate(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) decrement(ctx context.Context, orderID primitive.ObjectID, kind models.ProductKind, item models.OrderItem) error {
	adjuster, ok := s.stock[kind]
	if !ok {
		return apperr.Dependency("Failed to update stock", fmt.Errorf("no stock adjuster for %s", kind))
	}
	count, err := adjuster.AdjustStock(ctx, item.ProductID, -item.Quantity)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("Ordered item not in catalog",
			zap.String("order_id", orderID.Hex()),
			zap.String("kind", string(kind)),
			zap.String("product_id", item.ProductID.Hex()))
		return nil
	}
	if err != nil {
		return apperr.Dependency("Failed to update stock", err)
	}
	if count < 0 {
		metrics.StockUnderflow.WithLabelValues(string(kind)).Inc()
		s.logger.Warn("Stock underflow",
			zap.String("order_id", orderID.Hex()),
			zap.String("kind", string(kind)),
			zap.String("product_id", item.ProductID.Hex()),
			zap.Int("count_in_stock", count))
	}
	return nil
}

// populate fills each order's User summary from the user store.
func (s *OrderService) populate(ctx context.Context, orders ...*models.Order) error {
	seen := map[primitive.ObjectID]bool{}
	ids := []primitive.ObjectID{}
	for _, o := range orders {
		if !seen[o.UserID] {
			seen[o.UserID] = true
			ids = append(ids, o.UserID)
		}
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return apperr.Dependency("Failed to load order owners", err)
	}
	byID := make(map[primitive.ObjectID]models.UserSummary, len(users))
	for _, u := range users {
		byID[u.ID] = u.Summary()
	}

	for _, o := range orders {
		summary, ok := byID[o.UserID]
		if !ok {
			summary = models.UserSummary{ID: o.UserID}
		}
		o.User = &summary
	}
	return nil
}

func (s *OrderService) load(ctx context.Context, rawID string) (*models.Order, error) {
	id, err := parseID(rawID, "order")
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Order not found", "Failed to load order")
	}
	return order, nil
}

// Get returns an order to its owner or an admin.
func (s *OrderService) Get(ctx context.Context, p auth.Principal, rawID string) (*models.Order, error) {
	order, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(p.UserID) && !p.IsAdmin() {
		return nil, apperr.Forbidden("Not authorized to view this order")
	}
	if err := s.populate(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Mine lists p's orders newest first. Admins get every order.
func (s *OrderService) Mine(ctx context.Context, p auth.Principal) ([]*models.Order, error) {
	q := repository.OrderQuery{}
	if !p.IsAdmin() {
		q.UserID = &p.UserID
	}
	return s.find(ctx, q)
}

func (s *OrderService) All(ctx context.Context, p auth.Principal) ([]*models.Order, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.find(ctx, repository.OrderQuery{})
}

func (s *OrderService) find(ctx context.Context, q repository.OrderQuery) ([]*models.Order, error) {
	orders, err := s.orders.Find(ctx, q)
	if err != nil {
		return nil, apperr.Dependency("Failed to load orders", err)
	}
	if err := s.populate(ctx, orders...); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus moves an order through its lifecycle. Unless strict
// transitions are enabled any valid status may follow any other.
func (s *OrderService) UpdateStatus(ctx context.Context, p auth.Principal, rawID, rawStatus string) (*models.Order, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if rawStatus == "" {
		return nil, apperr.InvalidInput("Status is required")
	}
	status, ok := models.ParseOrderStatus(rawStatus)
	if !ok {
		return nil, apperr.InvalidInput("Invalid status value")
	}

	order, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	previous := order.OrderStatus
	if s.cfg.StrictTransitions && !models.CanTransition(previous, status) {
		return nil, apperr.Conflict(fmt.Sprintf("Cannot move order from %s to %s", previous, status))
	}

	order.ApplyStatus(status, s.now())
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, storeErr(err, "Order not found", "Update failed")
	}

	s.recorder.Record(audit.Entry{
		Action:   audit.ActionOrderStatus,
		EntityID: order.ID.Hex(),
		ActorID:  p.UserID.Hex(),
		Data:     bson.M{"from": string(previous), "to": string(status)},
	})

	if err := s.populate(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Pay marks an order paid. Repeating it keeps the first paidAt.
func (s *OrderService) Pay(ctx context.Context, p auth.Principal, rawID string) (*models.Order, error) {
	order, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	alreadyPaid := order.IsPaid

	order.MarkPaid(s.now())
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, storeErr(err, "Order not found", "Failed to update payment")
	}

	if !alreadyPaid {
		s.recorder.Record(audit.Entry{
			Action:   audit.ActionOrderPaid,
			EntityID: order.ID.Hex(),
			ActorID:  p.UserID.Hex(),
			Data:     bson.M{"totalPrice": order.TotalPrice},
		})
	}

	if err := s.populate(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, p auth.Principal, rawID string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	id, err := parseID(rawID, "order")
	if err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		return storeErr(err, "Order not found", "Failed to delete order")
	}

	s.recorder.Record(audit.Entry{
		Action:   audit.ActionOrderDeleted,
		EntityID: id.Hex(),
		ActorID:  p.UserID.Hex(),
	})
	return nil
}

// AuditTrail returns the newest audit entries of an order.
func (s *OrderService) AuditTrail(ctx context.Context, p auth.Principal, rawID string, limit int64) ([]*repository.AuditLog, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	order, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	logs, err := s.auditLogs.GetAuditLogs(ctx, order.ID.Hex(), limit)
	if err != nil {
		return nil, apperr.Dependency("Failed to load audit trail", err)
	}
	return logs, nil
}
