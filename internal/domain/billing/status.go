package billing

// PaymentStatus covers both payments and refunds. Payments move
// PENDING→PROCESSING→{COMPLETED,FAILED}, with a single further hop
// COMPLETED→REFUNDED; refunds move PENDING→{COMPLETED,FAILED}.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

type PaymentMethodType string

const (
	MethodTypeCard   PaymentMethodType = "card"
	MethodTypeBank   PaymentMethodType = "bank"
	MethodTypeWallet PaymentMethodType = "wallet"
	MethodTypeCrypto PaymentMethodType = "crypto"
)

func (t PaymentMethodType) Valid() bool {
	switch t {
	case MethodTypeCard, MethodTypeBank, MethodTypeWallet, MethodTypeCrypto:
		return true
	}
	return false
}

type BillingInterval string

const (
	IntervalDaily   BillingInterval = "daily"
	IntervalWeekly  BillingInterval = "weekly"
	IntervalMonthly BillingInterval = "monthly"
	IntervalYearly  BillingInterval = "yearly"
)

func (i BillingInterval) Valid() bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return true
	}
	return false
}
