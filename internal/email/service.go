package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"kestiv/internal/logger"
	"kestiv/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
	maxTries       = 3

	TypeGeneric          = "generic"
	TypeExpiryReminder   = "expiry_reminder"
	TypePlanConfirmation = "plan_confirmation"
)

type EmailJob struct {
	Type    string    `json:"type"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Config struct {
	From      string
	FromName  string
	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	RedisAddr string
}

type Service struct {
	redis      *redis.Client
	from       string
	fromName   string
	smtpHost   string
	smtpPort   string
	smtpUser   string
	smtpPass   string
	retryDelay time.Duration
	sendMail   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg Config) *Service {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg)
}

// NewWithClient builds a Service on an existing redis client.
func NewWithClient(client *redis.Client, cfg Config) *Service {
	return &Service{
		redis:      client,
		from:       cfg.From,
		fromName:   cfg.FromName,
		smtpHost:   cfg.SMTPHost,
		smtpPort:   cfg.SMTPPort,
		smtpUser:   cfg.SMTPUser,
		smtpPass:   cfg.SMTPPass,
		retryDelay: 5 * time.Second,
		sendMail:   smtp.SendMail,
	}
}

func (s *Service) Send(ctx context.Context, to, name, subject, body string) error {
	return s.enqueue(ctx, EmailJob{
		Type:    TypeGeneric,
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Created: time.Now(),
	})
}

func (s *Service) enqueue(ctx context.Context, job EmailJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		logger.Error("Failed to marshal email job", "error", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Error("Failed to queue email", "to", job.To, "error", err)
		metrics.RecordEmail(job.Type, "queue_failed")
		return err
	}

	metrics.RecordEmail(job.Type, "queued")
	logger.Info("Email queued", "type", job.Type, "to", job.To)
	return nil
}

// Start consumes the queue until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("Email service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email service stopped")
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

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Error("Bad email data", "error", err)
		return
	}

	s.deliver(ctx, job)
	metrics.EmailQueueLength.Set(float64(s.QueueLength(ctx)))
}

func (s *Service) deliver(ctx context.Context, job EmailJob) {
	job.Tries++
	logger.Debug("Sending email", "to", job.To, "attempt", job.Tries)

	if err := s.sendNow(job); err != nil {
		logger.Error("Failed to send email", "to", job.To, "attempt", job.Tries, "error", err)

		if job.Tries < maxTries {
			select {
			case <-ctx.Done():
			case <-time.After(s.retryDelay):
			}
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
			metrics.RecordEmail(job.Type, "retried")
		} else {
			s.saveFailed(job, err)
			metrics.RecordEmail(job.Type, "failed")
		}
		return
	}

	metrics.RecordEmail(job.Type, "sent")
	logger.Info("Email sent", "type", job.Type, "to", job.To)
}

func (s *Service) sendNow(job EmailJob) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtpUser != "" && s.smtpPass != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	addr := s.smtpHost + ":" + s.smtpPort
	return s.sendMail(addr, auth, s.from, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job EmailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, data)
	logger.Error("Email moved to failed queue", "to", job.To, "attempts", job.Tries)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

func formatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// SendExpiryReminder tells a member their subscription ends soon.
func (s *Service) SendExpiryReminder(ctx context.Context, to, name, businessName, planName string, expiresAt time.Time, daysLeft int) error {
	subject := fmt.Sprintf("Your %s membership expires in %d day(s)", planName, daysLeft)
	body := fmt.Sprintf(`Hi %s,

Your %s plan at %s expires on %s (%d day(s) left).

Visit us to renew and keep your access uninterrupted.

- %s`, name, planName, businessName, formatDate(expiresAt), daysLeft, businessName)

	return s.enqueue(ctx, EmailJob{
		Type:    TypeExpiryReminder,
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Created: time.Now(),
	})
}

// SendPlanConfirmation confirms a plan purchase or renewal. A nil expiresAt
// means the plan is not time bounded.
func (s *Service) SendPlanConfirmation(ctx context.Context, to, name, planName string, expiresAt *time.Time) error {
	validity := "no expiry date"
	if expiresAt != nil {
		validity = "valid until " + formatDate(*expiresAt)
	}
	subject := "Plan confirmed - " + planName
	body := fmt.Sprintf(`Hi %s,

Your %s plan is active (%s).

See you soon!`, name, planName, validity)

	return s.enqueue(ctx, EmailJob{
		Type:    TypePlanConfirmation,
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Created: time.Now(),
	})
}
