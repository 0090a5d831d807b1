// services/notifier.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// WelcomeNotifier delivers the in-app welcome ping after an enrollment.
// Delivery is fire-and-forget: callers log failures and move on.
type WelcomeNotifier interface {
	SendWelcomeNotification(userID, campID, campName string) error
}

// NotificationServiceClient relays welcome notifications to the platform's
// notification service over HTTP.
type NotificationServiceClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewNotificationServiceClient(baseURL, token string) *NotificationServiceClient {
	return &NotificationServiceClient{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendWelcomeNotification calls /notifications/welcome on the notification service
func (c *NotificationServiceClient) SendWelcomeNotification(userID, campID, campName string) error {
	url := fmt.Sprintf("%s/notifications/welcome", c.BaseURL)

	reqBody := map[string]interface{}{
		"user_id":   userID,
		"camp_id":   campID,
		"camp_name": campName,
	}
	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		log.Printf("NotificationService /welcome returned %d: %s", resp.StatusCode, string(body))
		return fmt.Errorf("welcome notification failed: %d", resp.StatusCode)
	}

	return nil
}
