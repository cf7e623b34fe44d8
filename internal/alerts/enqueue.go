package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// ensureClient returns a usable client instance
func ensureClient() *asynq.Client {
	if client == nil {
		Init()
	}
	return client
}

// EnqueueWelcomeEmail schedules a welcome email to the user
func EnqueueWelcomeEmail(userID, email, name string) error {
	base := os.Getenv("APP_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	base = strings.TrimRight(base, "/")

	subject := fmt.Sprintf("Welcome, %s!", name)
	body := fmt.Sprintf("Hi %s, thanks for joining.\n\nBrowse listings: %s\n\nIf the link doesn't work, copy and paste the URL above.", name, base)

	env := EmailEnvelope{
		To:      email,
		Subject: subject,
		Body:    body,
	}
	payload := WelcomeEmailPayload{UserID: userID, Name: name, Email: email, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskWelcomeEmail, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueMessageNew notifies the receiver of a new message in a thread
func EnqueueMessageNew(serviceID, senderID, receiverEmail, receiverID, content string) error {
	preview := content
	if len(preview) > 120 {
		preview = preview[:120] + "..."
	}

	env := EmailEnvelope{
		To:      receiverEmail,
		Subject: "You have a new message",
		Body:    fmt.Sprintf("New message about one of your listings:\n\n%s", preview),
	}
	payload := MessageNewPayload{
		ServiceID:  serviceID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Email:      receiverEmail,
		Preview:    preview,
		Envelope:   env,
		SentAt:     time.Now(),
	}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskMessageNew, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}
