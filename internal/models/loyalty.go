package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LoyaltyReason string

const (
	LoyaltyReasonRedeemed LoyaltyReason = "redeemed"
	LoyaltyReasonEarned   LoyaltyReason = "earned"
	LoyaltyReasonRefunded LoyaltyReason = "refunded"
	LoyaltyReasonRevoked  LoyaltyReason = "revoked"
)

type LoyaltyTransaction struct {
	ID        uuid.UUID     `json:"id"`
	UserID    string        `json:"user_id"`
	OrderID   *uuid.UUID    `json:"order_id,omitempty"`
	Delta     int64         `json:"delta"`
	Reason    LoyaltyReason `json:"reason"`
	CreatedAt time.Time     `json:"created_at"`
}

type LoyaltyAccount struct {
	UserID  string               `json:"user_id"`
	Balance int64                `json:"balance"`
	History []LoyaltyTransaction `json:"history"`
}

type RedemptionQuote struct {
	Points int64           `json:"points"`
	Amount decimal.Decimal `json:"amount"`
}
