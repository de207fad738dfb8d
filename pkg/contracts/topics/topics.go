package topics

const (
	// Wagers
	WagerSubmitted = "wager_submitted"
	WagerSettled   = "wager_settled"
	WagerRejected  = "wager_rejected"

	// DLQs
	WagerSubmittedDLQ = "wager_submitted_dlq"

	// Redis Pub/Sub
	SettledBroadcast = "wager_settled_broadcast"
)
