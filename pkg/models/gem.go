package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Gem struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"_id" form:"-"`
	Name         string              `bson:"name" json:"name" form:"name"`
	Carat        float64             `bson:"carat" json:"carat" form:"carat"`
	Clarity      string              `bson:"clarity,omitempty" json:"clarity,omitempty" form:"clarity"`
	Origin       string              `bson:"origin,omitempty" json:"origin,omitempty" form:"origin"`
	PhoneNumber  string              `bson:"phoneNumber" json:"phoneNumber" form:"phoneNumber"`
	Price        float64             `bson:"price" json:"price" form:"price"`
	CountInStock int                 `bson:"countInStock" json:"countInStock" form:"countInStock"`
	Images       []string            `bson:"images" json:"images" form:"images"`
	ImageURL     string              `bson:"imageUrl,omitempty" json:"-" form:"imageUrl"`
	Description  string              `bson:"description,omitempty" json:"description,omitempty" form:"description"`
	Status       ModerationStatus    `bson:"status" json:"status" form:"-"`
	LegacyFlag   *bool               `bson:"isApproved,omitempty" json:"-" form:"-"`
	SellerID     *primitive.ObjectID `bson:"sellerId,omitempty" json:"sellerId,omitempty" form:"-"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt" form:"-"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt" form:"-"`
}

func (Gem) CollectionName() string {
	return "gems"
}

// MarshalJSON adds the derived isApproved flag older clients read.
func (g Gem) MarshalJSON() ([]byte, error) {
	type plain Gem
	return json.Marshal(struct {
		plain
		IsApproved bool `json:"isApproved"`
	}{plain(g), g.Status == StatusApproved})
}

func (g *Gem) Key() primitive.ObjectID          { return g.ID }
func (g *Gem) SetKey(id primitive.ObjectID)     { g.ID = id }
func (g *Gem) Kind() ProductKind                { return KindGem }
func (g *Gem) Moderation() ModerationStatus     { return g.Status }
func (g *Gem) SetModeration(s ModerationStatus) { g.Status = s }
func (g *Gem) Seller() *primitive.ObjectID      { return g.SellerID }
func (g *Gem) RequiresImage() bool              { return false }

// ImageCount counts stored images, falling back to the single imageUrl.
func (g *Gem) ImageCount() int {
	if len(g.Images) == 0 && g.ImageURL != "" {
		return 1
	}
	return len(g.Images)
}

func (g *Gem) AssignSeller(id primitive.ObjectID) {
	g.SellerID = &id
}

// AddStock adds delta to countInStock and returns the new count.
func (g *Gem) AddStock(delta int) int {
	g.CountInStock += delta
	return g.CountInStock
}

func (g *Gem) AppendImages(urls ...string) {
	g.Images = append(g.Images, urls...)
}

func (g *Gem) Stamp(now time.Time) {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
}

func (g *Gem) Normalize() {
	if len(g.Images) == 0 {
		g.Images = []string{}
		if g.ImageURL != "" {
			g.Images = []string{g.ImageURL}
		}
	}
	if g.Status == "" {
		g.Status = StatusPending
		if g.LegacyFlag != nil && *g.LegacyFlag {
			g.Status = StatusApproved
		}
	}
	g.LegacyFlag = nil
}

func (g *Gem) Validate() error {
	if strings.TrimSpace(g.Name) == "" || g.Carat <= 0 || strings.TrimSpace(g.PhoneNumber) == "" {
		return errors.New("Name, carat and phone number are required")
	}
	return nil
}
