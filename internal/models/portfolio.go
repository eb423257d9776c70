package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Portfolio is the lookup record the analytics pipeline needs: who owns it,
// which benchmark it is measured against, and whether the nightly batch
// should include it. Position management lives in another service.
type Portfolio struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      int64              `bson:"user_id" json:"user_id"`
	Name        string             `bson:"name" json:"name"`
	BenchmarkID string             `bson:"benchmark_id,omitempty" json:"benchmark_id,omitempty"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Validate checks the fields the analytics pipeline depends on.
func (p *Portfolio) Validate() error {
	if p.UserID <= 0 {
		return fmt.Errorf("invalid user ID")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// HoldingSnapshot is the current-state view of one position. It is not
// historical: the holdings collection always reflects the latest refresh.
type HoldingSnapshot struct {
	PortfolioID  primitive.ObjectID `bson:"portfolio_id" json:"portfolio_id"`
	Symbol       string             `bson:"symbol" json:"symbol"`
	Name         string             `bson:"name,omitempty" json:"name,omitempty"`
	Sector       string             `bson:"sector,omitempty" json:"sector,omitempty"`
	CurrentValue decimal.Decimal    `bson:"current_value" json:"current_value"`
	Weight       float64            `bson:"weight,omitempty" json:"weight,omitempty"`
}
