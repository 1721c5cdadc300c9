package user

import "github.com/tilak5758/barber-salon-backend/utils"

// OTPSender delivers and checks mobile verification codes.
type OTPSender interface {
	Initiate(userID, mobile string) error
	Verify(userID, code string) error
}

// RedisOTP sends codes through the redis-backed helpers in utils.
type RedisOTP struct{}

func (RedisOTP) Initiate(userID, mobile string) error {
	return utils.InitiateMobileOTP(userID, mobile)
}

func (RedisOTP) Verify(userID, code string) error {
	return utils.VerifyMobileOTPRecord(userID, code)
}
