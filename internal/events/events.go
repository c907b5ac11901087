// Package events stores notification triggers in a durable outbox. The
// external transactional-mail service drains the table; this side only
// guarantees each trigger is enqueued exactly once.
package events

// Notification kinds understood by the mail drainer.
const (
	KindWelcome    = "welcome"
	KindProUpgrade = "pro_upgrade"
)

// WelcomeDedupeKey keys the one-time welcome notification for an account.
func WelcomeDedupeKey(accountID string) string {
	return "welcome:" + accountID
}

// ProUpgradeDedupeKey keys the upgrade notification to the billing event
// that caused it, so webhook redelivery cannot enqueue twice.
func ProUpgradeDedupeKey(accountID, eventID string) string {
	return "pro_upgrade:" + accountID + ":" + eventID
}
