// Package repository implements the entitlement store's conditional writes.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/foundify/foundify/internal/entitlement/domain"
	"gorm.io/gorm"
)

type repository struct{}

// Provide constructs the gorm-backed repository.
func Provide() domain.Repository {
	return repository{}
}

func (repository) Find(ctx context.Context, db *gorm.DB, accountID string) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).
		Where("id = ?", accountID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (repository) FindByBillingRef(ctx context.Context, db *gorm.DB, customerRef string) (*domain.Account, error) {
	customerRef = strings.TrimSpace(customerRef)
	if customerRef == "" {
		return nil, nil
	}
	var account domain.Account
	err := db.WithContext(ctx).
		Where("billing_customer_ref = ?", customerRef).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (repository) Insert(ctx context.Context, db *gorm.DB, account *domain.Account) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO accounts (id, tier, email, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		account.ID,
		account.Tier,
		account.Email,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (repository) ClaimBillingRef(ctx context.Context, db *gorm.DB, accountID, customerRef string) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE accounts
		 SET billing_customer_ref = ?, updated_at = ?
		 WHERE id = ? AND billing_customer_ref IS NULL`,
		customerRef,
		time.Now().UTC(),
		accountID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (repository) UpdateTier(ctx context.Context, db *gorm.DB, accountID string, tier domain.Tier, asOf time.Time, customerRef string) (bool, error) {
	var refValue any
	if strings.TrimSpace(customerRef) != "" {
		refValue = customerRef
	}
	result := db.WithContext(ctx).Exec(
		`UPDATE accounts
		 SET tier = ?,
		     tier_updated_at = ?,
		     billing_customer_ref = COALESCE(billing_customer_ref, ?),
		     updated_at = ?
		 WHERE id = ?
		   AND (tier_updated_at IS NULL OR tier_updated_at <= ?)`,
		tier,
		asOf,
		refValue,
		time.Now().UTC(),
		accountID,
		asOf,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
