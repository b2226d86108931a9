package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BroadcastAudience string

const (
	BroadcastAudienceAll     BroadcastAudience = "all"
	BroadcastAudiencePremium BroadcastAudience = "premium"
	BroadcastAudienceFree    BroadcastAudience = "free"
)

type BroadcastStatus string

const (
	BroadcastStatusSending  BroadcastStatus = "sending"
	BroadcastStatusFinished BroadcastStatus = "finished"
)

type Broadcast struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Message   string             `json:"message" bson:"message" validate:"required"`
	Audience  BroadcastAudience  `json:"audience" bson:"audience" default:"all"`
	Status    BroadcastStatus    `json:"status" bson:"status"`
	SentCount int                `json:"sent_count" bson:"sent_count"`
	FailCount int                `json:"fail_count" bson:"fail_count"`
	SentBy    string             `json:"sent_by" bson:"sent_by"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}
