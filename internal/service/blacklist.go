package service

import (
	"CineVault/internal/apperr"
	"CineVault/internal/dto"
	"CineVault/internal/repo"
	"CineVault/model"
	"context"
	"errors"
	"log"
	"net"
	"time"

	"gorm.io/gorm"
)

// BlacklistIP adds or reactivates a blacklist entry. Expiring entries
// get a Redis TTL key so the expiry listener can deactivate them.
func BlacklistIP(ctx context.Context, req *dto.BlacklistAddRequest, addedBy *uint64) (*model.BlacklistedIP, error) {
	if net.ParseIP(req.IPAddress) == nil {
		return nil, apperr.Validation("invalid ip address")
	}
	var expiresAt *time.Time
	if req.DurationHours > 0 {
		at := time.Now().Add(time.Duration(req.DurationHours) * time.Hour)
		expiresAt = &at
	}

	var entry model.BlacklistedIP
	err := repo.Db.Where("ip_address = ?", req.IPAddress).First(&entry).Error
	if err == nil {
		entry.Reason = req.Reason
		entry.AddedBy = addedBy
		entry.ExpiresAt = expiresAt
		entry.IsActive = true
		if err := repo.Db.Save(&entry).Error; err != nil {
			return nil, err
		}
	} else {
		entry = model.BlacklistedIP{
			IPAddress: req.IPAddress,
			Reason:    req.Reason,
			AddedBy:   addedBy,
			ExpiresAt: expiresAt,
			IsActive:  true,
		}
		if err := repo.Db.Create(&entry).Error; err != nil {
			return nil, err
		}
	}

	if expiresAt != nil {
		if err := repo.TrackBlacklistExpiry(ctx, entry.ID, *expiresAt); err != nil {
			log.Printf("blacklist: expiry tracking for %s failed: %v", entry.IPAddress, err)
		}
	}
	return &entry, nil
}

// UnblacklistIP deactivates an entry.
func UnblacklistIP(entryID uint64) error {
	res := repo.Db.Model(&model.BlacklistedIP{}).
		Where("id = ? AND is_active = ?", entryID, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("blacklist entry %d not found", entryID)
	}
	return nil
}

// ListBlacklist returns active entries, newest first.
func ListBlacklist() ([]model.BlacklistedIP, error) {
	var entries []model.BlacklistedIP
	err := repo.Db.Where("is_active = ?", true).Order("created_at DESC").Find(&entries).Error
	return entries, err
}

// IsIPBlacklisted reports whether requests from an IP are blocked now.
func IsIPBlacklisted(ip string) (bool, error) {
	var entry model.BlacklistedIP
	err := repo.Db.Where("ip_address = ? AND is_active = ?", ip, true).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return entry.Blocks(time.Now()), nil
}
