package security

import "CineVault/model"

// Features describe an event for severity classification.
type Features struct {
	EventType string
	// System is true for events not attributable to a user.
	System bool
}

// Classifier assigns a severity to an event that arrived without one.
type Classifier interface {
	Score(f Features) string
}

// RuleClassifier maps well-known event types to severities. Unknown
// types default to low.
type RuleClassifier struct{}

// Score implements Classifier.
func (RuleClassifier) Score(f Features) string {
	switch f.EventType {
	case EventFailedLogin:
		return model.SeverityMedium
	case EventAccountLocked, "ip_blacklisted", "suspicious_activity":
		return model.SeverityHigh
	case "ip_blacklist_expired", "unauthorized_access":
		return model.SeverityMedium
	case EventLoginSuccess, "logout", "registration":
		return model.SeverityLow
	default:
		if f.System {
			return model.SeverityMedium
		}
		return model.SeverityLow
	}
}
