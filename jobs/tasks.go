package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeOTPEmail is the task type for delivering one-time codes.
	TaskTypeOTPEmail = "mail:otp"
)

// OTPEmailPayload describes the information required to deliver a code.
type OTPEmailPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// NewOTPEmailTask constructs an Asynq task.
func NewOTPEmailTask(payload OTPEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeOTPEmail, data), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// SendOTP enqueues a code-delivery task. Delivery itself happens in the
// worker; enqueue failure is the only error the caller sees.
func (c *Client) SendOTP(ctx context.Context, email, code string) error {
	task, err := NewOTPEmailTask(OTPEmailPayload{Email: email, Code: code})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
