package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Instrument is a gemological tool. Tools and instruments share one collection.
type Instrument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id" form:"-"`
	Name         string             `bson:"name" json:"name" form:"name"`
	Brand        string             `bson:"brand" json:"brand" form:"brand"`
	Category     string             `bson:"category" json:"category" form:"category"`
	Price        float64            `bson:"price" json:"price" form:"price"`
	CountInStock int                `bson:"countInStock" json:"countInStock" form:"countInStock"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty" form:"description"`
	ImageURL     string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty" form:"imageUrl"`
	Images       []string           `bson:"images" json:"images" form:"images"`
	Status       ModerationStatus   `bson:"status" json:"status" form:"-"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt" form:"-"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt" form:"-"`
}

func (Instrument) CollectionName() string {
	return "tools"
}

func (i *Instrument) Key() primitive.ObjectID          { return i.ID }
func (i *Instrument) SetKey(id primitive.ObjectID)     { i.ID = id }
func (i *Instrument) Kind() ProductKind                { return KindInstrument }
func (i *Instrument) Moderation() ModerationStatus     { return i.Status }
func (i *Instrument) SetModeration(s ModerationStatus) { i.Status = s }
func (i *Instrument) Seller() *primitive.ObjectID      { return nil }
func (i *Instrument) AssignSeller(primitive.ObjectID)  {}
func (i *Instrument) RequiresImage() bool              { return true }

// ImageCount counts stored images, falling back to the single imageUrl.
func (i *Instrument) ImageCount() int {
	if len(i.Images) == 0 && i.ImageURL != "" {
		return 1
	}
	return len(i.Images)
}

// AddStock adds delta to countInStock and returns the new count.
func (i *Instrument) AddStock(delta int) int {
	i.CountInStock += delta
	return i.CountInStock
}

func (i *Instrument) AppendImages(urls ...string) {
	i.Images = append(i.Images, urls...)
	if i.ImageURL == "" && len(i.Images) > 0 {
		i.ImageURL = i.Images[0]
	}
}

func (i *Instrument) Stamp(now time.Time) {
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now
}

func (i *Instrument) Normalize() {
	if len(i.Images) == 0 {
		i.Images = []string{}
		if i.ImageURL != "" {
			i.Images = []string{i.ImageURL}
		}
	}
	if i.Status == "" {
		i.Status = StatusPending
	}
}

func (i *Instrument) Validate() error {
	if strings.TrimSpace(i.Name) == "" || strings.TrimSpace(i.Brand) == "" ||
		strings.TrimSpace(i.Category) == "" || i.Price <= 0 {
		return errors.New("Name, brand, category, and price are required")
	}
	return nil
}
