package redis

import "fmt"

// Key layout shared by every component that touches Redis.

func TokenKey(userID string) string {
	return fmt.Sprintf("user:%s:token", userID)
}

func PayoutLockKey(userID string) string {
	return fmt.Sprintf("user:%s:payout-lock", userID)
}

func EarningsKey(userID string) string {
	return fmt.Sprintf("earnings:%s", userID)
}

func VerificationCodeKey(meetupID string) string {
	return fmt.Sprintf("meetup:%s:code", meetupID)
}

func PaymentRequestKey(buyerID, requestID string) string {
	return fmt.Sprintf("payment-intent:%s:%s", buyerID, requestID)
}

func PaymentHoldKey(intentID string) string {
	return fmt.Sprintf("payments:hold:%s", intentID)
}
