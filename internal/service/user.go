package service

import (
	"CineVault/config"
	"CineVault/internal/apperr"
	"CineVault/internal/repo"
	"CineVault/model"
	"CineVault/utils"
	"errors"
	"time"
)

// CreateUser hashes the password and creates a user.
func CreateUser(user *model.User) error {
	user.Password = utils.GetPwd(user.Password)
	if err := repo.Db.Create(user).Error; err != nil {
		return err
	}
	return nil
}

// FindUserByName returns a user by username.
func FindUserByName(username string) (*model.User, error) {
	var user model.User
	if err := repo.Db.Model(&model.User{}).Where("user_name = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserNameById returns username by ID.
func FindUserNameById(userId uint64) (string, error) {
	var user model.User
	if err := repo.Db.Model(&model.User{}).Where("id = ?", userId).First(&user).Error; err != nil {
		return "", err
	}
	return user.UserName, nil
}

// IsEmailExist checks whether an email exists.
func IsEmailExist(email string) error {
	var user model.User
	if err := repo.Db.Model(&model.User{}).Where("email = ?", email).First(&user).Error; err != nil {
		return err
	}
	return nil
}

// CheckPassword verifies a user's password.
func CheckPassword(user *model.User, password string) error {
	if !utils.CheckPwd(password, user.Password) {
		return errors.New("password error")
	}
	return nil
}

// RecordLoginFailure increments the failure counter and locks the
// account once the threshold is reached. It returns true when this
// failure locked the account.
func RecordLoginFailure(user *model.User, now time.Time) (bool, error) {
	user.FailedLogins++
	updates := map[string]interface{}{"failed_logins": user.FailedLogins}
	locked := false
	if user.FailedLogins >= config.AppConfig.AccountLockThreshold {
		until := now.Add(config.AppConfig.AccountLockDuration)
		user.LockedUntil = &until
		updates["locked_until"] = &until
		locked = true
	}
	err := repo.Db.Model(&model.User{}).Where("id = ?", user.ID).Updates(updates).Error
	return locked, err
}

// ResetLoginFailures clears the failure counter after a successful
// login and stamps last_seen.
func ResetLoginFailures(user *model.User, now time.Time) error {
	user.FailedLogins = 0
	user.LockedUntil = nil
	user.LastSeen = &now
	return repo.Db.Model(&model.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"failed_logins": 0,
		"locked_until":  nil,
		"last_seen":     &now,
	}).Error
}

// RecordLoginAttempt appends a row to the login attempt log.
func RecordLoginAttempt(username, ip, userAgent string, success bool) error {
	attempt := &model.LoginAttempt{
		UserName:  username,
		IPAddress: ip,
		UserAgent: userAgent,
		Success:   success,
	}
	return repo.Db.Create(attempt).Error
}

// CountLockedAccounts counts accounts whose lockout window is open.
func CountLockedAccounts(now time.Time) (int64, error) {
	var count int64
	err := repo.Db.Model(&model.User{}).Where("locked_until > ?", now).Count(&count).Error
	return count, err
}

// ListUsers returns every account, newest first.
func ListUsers() ([]model.User, error) {
	var users []model.User
	err := repo.Db.Order("id DESC").Find(&users).Error
	return users, err
}

// LockUser locks an account for the configured lockout duration.
func LockUser(userID uint64, now time.Time) error {
	until := now.Add(config.AppConfig.AccountLockDuration)
	return updateUser(userID, map[string]interface{}{"locked_until": &until})
}

// UnlockUser clears the lockout window and the failure counter.
func UnlockUser(userID uint64) error {
	return updateUser(userID, map[string]interface{}{
		"locked_until":  nil,
		"failed_logins": 0,
	})
}

// SetUserAdmin grants or revokes the admin flag.
func SetUserAdmin(userID uint64, admin bool) error {
	return updateUser(userID, map[string]interface{}{"is_admin": admin})
}

func updateUser(userID uint64, updates map[string]interface{}) error {
	var count int64
	if err := repo.Db.Model(&model.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.NotFound("user %d not found", userID)
	}
	return repo.Db.Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error
}

// CountUsers returns user totals for the dashboard.
func CountUsers() (total int64, active int64, err error) {
	if err = repo.Db.Model(&model.User{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = repo.Db.Model(&model.User{}).Where("is_active = ?", true).Count(&active).Error
	return total, active, err
}
