package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"marketplace/internal/logger"
	"marketplace/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey  = "notifications"
	failedKey = "notifications:failed"
)

type Job struct {
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Type    string    `json:"type"` // payment_receipt, withdrawal_decision, refund_notice
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// Service queues outgoing notifications in a redis list and drains it in a
// background worker. Sending is best effort: the money paths never wait on
// SMTP.
type Service struct {
	redis    *redis.Client
	from     string
	fromName string
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
}

func New(fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass, redisAddr string) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		from:     fromEmail,
		fromName: fromName,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
	}
}

func (s *Service) Send(ctx context.Context, to, name, notifType, subject, body string) error {
	job := Job{
		To:      to,
		Name:    name,
		Type:    notifType,
		Subject: subject,
		Body:    body,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal notification job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Errorf("Failed to queue notification to %s: %v", to, err)
		metrics.RecordNotification(notifType, "queue_error")
		return err
	}

	logger.Infof("Notification queued: %s to %s", subject, to)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("notification worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("notification worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad notification data: %v", err)
		return
	}

	job.Tries++
	if err := s.sendNow(job); err != nil {
		logger.Errorf("Failed to send notification to %s: %v", job.To, err)

		if job.Tries < 3 {
			time.Sleep(5 * time.Second)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
		} else {
			logger.Errorf("Notification to %s failed after 3 attempts", job.To)
			metrics.RecordNotification(job.Type, "failed")
			s.saveFailed(job, err)
		}
		return
	}

	metrics.RecordNotification(job.Type, "sent")
	logger.Infof("Notification sent to %s", job.To)
}

func (s *Service) sendNow(job Job) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtpUser != "" && s.smtpPass != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	addr := s.smtpHost + ":" + s.smtpPort
	return smtp.SendMail(addr, auth, s.from, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job Job, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedKey, data)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.NotificationQueueLength.Set(float64(length))
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

// rubles formats a cent amount for human-facing mail.
func rubles(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func (s *Service) SendPaymentReceipt(ctx context.Context, email, name string, orderID int, amountCents int64) error {
	subject := fmt.Sprintf("Payment received for order #%d", orderID)
	body := fmt.Sprintf(`Hi %s,

We received your payment of %s RUB for order #%d.
The seller has been notified and will start processing your order.

- Marketplace Team`, name, rubles(amountCents), orderID)

	return s.Send(ctx, email, name, "payment_receipt", subject, body)
}

func (s *Service) SendWithdrawalDecision(ctx context.Context, email, name string, approved bool, amountCents, feeCents int64) error {
	if approved {
		subject := "Withdrawal approved"
		body := fmt.Sprintf(`Hi %s,

Your withdrawal of %s RUB has been approved.
Fee: %s RUB. Net payout: %s RUB.

- Marketplace Team`, name, rubles(amountCents), rubles(feeCents), rubles(amountCents-feeCents))
		return s.Send(ctx, email, name, "withdrawal_decision", subject, body)
	}

	subject := "Withdrawal rejected"
	body := fmt.Sprintf(`Hi %s,

Your withdrawal of %s RUB has been rejected.
The amount has been returned to your shop balance.

- Marketplace Team`, name, rubles(amountCents))
	return s.Send(ctx, email, name, "withdrawal_decision", subject, body)
}

func (s *Service) SendRefundNotice(ctx context.Context, email, name string, orderID int, amountCents int64, reason string) error {
	subject := fmt.Sprintf("Refund issued for order #%d", orderID)
	body := fmt.Sprintf(`Hi %s,

A refund of %s RUB has been issued for your order #%d.
Reason: %s

- Marketplace Team`, name, rubles(amountCents), orderID, reason)

	return s.Send(ctx, email, name, "refund_notice", subject, body)
}
