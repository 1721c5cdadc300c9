package utils

import (
	"context"

	"github.com/tilak5758/barber-salon-backend/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
	"go.uber.org/zap"
)

var messagingClient *messaging.Client

// FirebaseInit initializes the Firebase app used for FCM push delivery.
// Push is optional: when no credentials are configured the messaging client
// stays nil and notifications fall back to the inbox only.
func FirebaseInit() {
	credPath := config.AppConfig.FirebaseCredentials
	if credPath == "" {
		GetLogger().Info("Firebase credentials not configured, push delivery disabled")
		return
	}

	ctx := context.Background()
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credPath))
	if err != nil {
		GetLogger().Error("Failed to initialize Firebase app", zap.Error(err))
		return
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		GetLogger().Error("Failed to initialize FCM client", zap.Error(err))
		return
	}
	messagingClient = client
}

// GetMessagingClient returns the FCM client, or nil when push is disabled.
func GetMessagingClient() *messaging.Client {
	return messagingClient
}
