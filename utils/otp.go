package utils

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const otpTTL = 5 * time.Minute

// generateSecureOTP generates a secure random OTP of the specified length.
// It returns a base32 encoded string (without padding) truncated to the desired length.
func generateSecureOTP(length int) (string, error) {
	numBytes := (length*5 + 7) / 8
	randomBytes := make([]byte, numBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	otp := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	if len(otp) > length {
		otp = otp[:length]
	}
	return otp, nil
}

// SendSMSMessage sends an SMS to the given mobile number. Replace the body of
// this function with the actual SMS gateway integration. For now it logs the
// outgoing message.
func SendSMSMessage(mobile, message string) error {
	GetLogger().Sugar().Infof("Sending SMS to %s: %s", mobile, message)
	return nil
}

// InitiateMobileOTP generates a one-time code, stores it in Redis with a
// 5-minute TTL, and sends it to the user's mobile number.
func InitiateMobileOTP(userID, mobile string) error {
	otp, err := generateSecureOTP(6)
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}
	otpKey := fmt.Sprintf("otp:%s", userID)

	ctx := context.Background()
	client := GetOTPCacheClient()
	if err := client.Set(ctx, otpKey, otp, otpTTL).Err(); err != nil {
		GetLogger().Error("Failed to cache OTP", zap.Error(err))
		return fmt.Errorf("failed to initiate mobile OTP")
	}

	message := fmt.Sprintf("Your verification code is: %s. It expires in 5 minutes.", otp)
	if err := SendSMSMessage(mobile, message); err != nil {
		GetLogger().Error("Failed to send OTP", zap.Error(err))
		return fmt.Errorf("failed to send OTP")
	}
	return nil
}

// VerifyMobileOTPRecord retrieves the stored code from Redis and compares it
// to the provided one. If they match, it deletes the code from the cache.
func VerifyMobileOTPRecord(userID, providedOTP string) error {
	otpKey := fmt.Sprintf("otp:%s", userID)
	ctx := context.Background()
	client := GetOTPCacheClient()

	storedOTP, err := client.Get(ctx, otpKey).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("OTP not found or expired")
		}
		return fmt.Errorf("failed to retrieve OTP: %w", err)
	}

	if storedOTP != providedOTP {
		return fmt.Errorf("OTP does not match")
	}

	if err := client.Del(ctx, otpKey).Err(); err != nil {
		GetLogger().Error("Failed to delete OTP after verification", zap.Error(err))
	}
	return nil
}
