package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ModerationStatus is the review state shared by gems and instruments.
type ModerationStatus string

const (
	StatusPending  ModerationStatus = "Pending"
	StatusApproved ModerationStatus = "Approved"
	StatusRejected ModerationStatus = "Rejected"
)

func ParseModerationStatus(s string) (ModerationStatus, bool) {
	switch ModerationStatus(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return ModerationStatus(s), true
	}
	return "", false
}

// ProductKind selects the catalog collection an order line refers to.
type ProductKind string

const (
	KindGem        ProductKind = "Gem"
	KindInstrument ProductKind = "Instrument"
)

// ParseProductKind maps an order line's productType tag to a kind. "Tool" and
// "Instrument" name the same collection.
func ParseProductKind(tag string) (ProductKind, bool) {
	switch tag {
	case "Gem":
		return KindGem, true
	case "Tool", "Instrument":
		return KindInstrument, true
	}
	return "", false
}

func (k ProductKind) Collection() string {
	if k == KindGem {
		return "gems"
	}
	return "tools"
}

// CatalogItem is implemented by *Gem and *Instrument so moderation, listing
// and stock handling can be written once.
type CatalogItem interface {
	Key() primitive.ObjectID
	SetKey(id primitive.ObjectID)
	Kind() ProductKind
	Moderation() ModerationStatus
	SetModeration(status ModerationStatus)
	Seller() *primitive.ObjectID
	AssignSeller(id primitive.ObjectID)
	AppendImages(urls ...string)
	ImageCount() int
	AddStock(delta int) int
	RequiresImage() bool
	Stamp(now time.Time)
	Normalize()
	Validate() error
}
