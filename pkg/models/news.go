package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NewsStatus string

const (
	NewsPublished NewsStatus = "Published"
	NewsDraft     NewsStatus = "Draft"
	NewsArchived  NewsStatus = "Archived"
)

func ParseNewsStatus(s string) (NewsStatus, bool) {
	switch NewsStatus(s) {
	case NewsPublished, NewsDraft, NewsArchived:
		return NewsStatus(s), true
	}
	return "", false
}

type NewsPost struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title     string             `bson:"title" json:"title"`
	Excerpt   string             `bson:"excerpt" json:"excerpt"`
	Content   string             `bson:"content" json:"content"`
	Author    string             `bson:"author" json:"author"`
	Status    NewsStatus         `bson:"status" json:"status"`
	ImageURL  string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Tags      []string           `bson:"tags" json:"tags"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

func (NewsPost) CollectionName() string {
	return "newsposts"
}
