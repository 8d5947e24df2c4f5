package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/afyadata/medsupply_backend/config"
	"bitbucket.org/afyadata/medsupply_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Tax struct {
	ID        int             `gorm:"primary_key" json:"id"`
	CompanyId string          `gorm:"index;not null" json:"company_id" binding:"required"`
	Name      string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Rate      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rate" binding:"required"`
	IsActive  *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetTaxRate resolves a tax id to its percentage rate, redis first, db on miss.
// Rates change rarely; mutations on taxes must call ClearTaxRateCache.
func GetTaxRate(ctx context.Context, db *gorm.DB, taxId int) (decimal.Decimal, error) {
	if taxId <= 0 {
		return decimal.Zero, errors.New("invalid tax id")
	}

	redisKey := "taxRate:" + fmt.Sprint(taxId)
	var cached decimal.Decimal
	exists, err := config.GetRedisObject(redisKey, &cached)
	if err != nil {
		return decimal.Zero, err
	}
	if exists {
		return cached, nil
	}

	var tax Tax
	if err := db.WithContext(ctx).First(&tax, taxId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, utils.ErrorRecordNotFound
		}
		return decimal.Zero, err
	}
	if err := config.SetRedisObject(redisKey, &tax.Rate, 0); err != nil {
		return decimal.Zero, err
	}
	return tax.Rate, nil
}

func ClearTaxRateCache(taxId int) error {
	return config.RemoveRedisKey("taxRate:" + fmt.Sprint(taxId))
}
