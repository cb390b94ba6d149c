package security

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Alert levels for display. Alerts are derived, never persisted; two
// calls a second apart may legitimately differ.
const (
	AlertWarning  = "warning"
	AlertDanger   = "danger"
	AlertCritical = "critical"
)

// Common event type tags.
const (
	EventFailedLogin   = "failed_login"
	EventAccountLocked = "account_locked"
	EventLoginSuccess  = "login_success"
)

// Alert is one derived warning computed from current state.
type Alert struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Health is the result of one probe.
type Health struct {
	// Status is 0-100; below the configured threshold counts as
	// degraded.
	Status       int     `json:"status"`
	Message      string  `json:"message"`
	ResponseTime float64 `json:"response_time,omitempty"` // milliseconds
	Error        string  `json:"error,omitempty"`
}

// HealthProbe checks one dependency (database, cache, object storage).
type HealthProbe interface {
	Name() string
	Check(ctx context.Context) Health
}

// ComputeAlerts derives the current alert list. Rules, in order:
// IPs at or above the failed-login threshold in the trailing window,
// any currently locked accounts, storage usage over the configured
// percentage, and health probes below the degraded threshold.
func (a *Aggregator) ComputeAlerts(ctx context.Context) ([]Alert, error) {
	now := a.clock()
	alerts := make([]Alert, 0)

	byIP, err := a.store.FailedLoginsByIP(ctx, now.Add(-a.loginWindow))
	if err != nil {
		return nil, err
	}
	ips := make([]string, 0, len(byIP))
	for ip, count := range byIP {
		if count >= int64(a.loginThreshold) {
			ips = append(ips, ip)
		}
	}
	sort.Strings(ips)
	for _, ip := range ips {
		alerts = append(alerts, Alert{
			ID:        "failed_login_" + ip,
			Level:     AlertCritical,
			Title:     "Multiple Failed Login Attempts",
			Message:   fmt.Sprintf("%d failed login attempts from IP %s", byIP[ip], ip),
			Timestamp: now,
		})
	}

	if a.lockedAccounts != nil {
		locked, err := a.lockedAccounts(ctx, now)
		if err != nil {
			return nil, err
		}
		if locked > 0 {
			alerts = append(alerts, Alert{
				ID:        "locked_accounts",
				Level:     AlertWarning,
				Title:     "Locked User Accounts",
				Message:   fmt.Sprintf("%d user accounts are currently locked", locked),
				Timestamp: now,
			})
		}
	}

	if a.storageUsage != nil {
		usage, err := a.storageUsage(ctx)
		if err == nil && usage > a.storageAbove {
			alerts = append(alerts, Alert{
				ID:        "storage_warning",
				Level:     AlertWarning,
				Title:     "High Storage Usage",
				Message:   fmt.Sprintf("Storage usage is at %.1f%%", usage),
				Timestamp: now,
			})
		}
	}

	for _, probe := range a.probes {
		health := probe.Check(ctx)
		if health.Status < a.degradedBelow {
			alerts = append(alerts, Alert{
				ID:        probe.Name() + "_health",
				Level:     AlertDanger,
				Title:     fmt.Sprintf("%s Performance Issue", probeTitle(probe.Name())),
				Message:   healthMessage(probe.Name(), health),
				Timestamp: now,
			})
		}
	}

	return alerts, nil
}

// Overview bundles the security dashboard numbers.
type Overview struct {
	FailedLogins   int64             `json:"failed_logins"`
	LockedAccounts int64             `json:"locked_accounts"`
	SystemHealth   map[string]Health `json:"system_health"`
	Alerts         []Alert           `json:"alerts"`
}

// Overview computes the security dashboard payload.
func (a *Aggregator) Overview(ctx context.Context) (Overview, error) {
	now := a.clock()
	byIP, err := a.store.FailedLoginsByIP(ctx, now.Add(-a.loginWindow))
	if err != nil {
		return Overview{}, err
	}
	var failed int64
	for _, count := range byIP {
		failed += count
	}

	var locked int64
	if a.lockedAccounts != nil {
		if locked, err = a.lockedAccounts(ctx, now); err != nil {
			return Overview{}, err
		}
	}

	health := make(map[string]Health, len(a.probes))
	for _, probe := range a.probes {
		health[probe.Name()] = probe.Check(ctx)
	}

	alerts, err := a.ComputeAlerts(ctx)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		FailedLogins:   failed,
		LockedAccounts: locked,
		SystemHealth:   health,
		Alerts:         alerts,
	}, nil
}

func probeTitle(name string) string {
	switch name {
	case "database":
		return "Database"
	case "cache":
		return "Cache"
	case "storage":
		return "Storage"
	case "api":
		return "API"
	default:
		return name
	}
}

func healthMessage(name string, health Health) string {
	if health.Error != "" {
		return fmt.Sprintf("%s check failed: %s", name, health.Error)
	}
	if health.ResponseTime > 0 {
		return fmt.Sprintf("%s response time: %.2fms", name, health.ResponseTime)
	}
	return fmt.Sprintf("%s status: %d", name, health.Status)
}
