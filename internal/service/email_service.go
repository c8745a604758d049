package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// EmailService отправляет транзакционные письма
type EmailService interface {
	SendPasswordReset(ctx context.Context, toEmail, resetLink, idempotencyKey string) error
}

// NoopEmailService используется, когда ключ Resend не задан (локальная разработка)
type NoopEmailService struct{}

// SendPasswordReset только пишет в лог
func (s *NoopEmailService) SendPasswordReset(ctx context.Context, toEmail, resetLink, idempotencyKey string) error {
	log.Printf("[EmailService] noop send password reset to=%s", toEmail)
	return nil
}

// ResendEmailService отправляет письма через REST API Resend
type ResendEmailService struct {
	from   string
	client *resend.Client
}

// NewResendEmailService создает отправителя писем через Resend
func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

// buildPasswordResetEmail формирует письмо со ссылкой сброса пароля
func buildPasswordResetEmail(from, toEmail, resetLink string) *resend.SendEmailRequest {
	return &resend.SendEmailRequest{
		From:    from,
		To:      []string{toEmail},
		Subject: "Reset your password",
		Text: fmt.Sprintf("We received a request to reset your password.\n\nOpen this link to choose a new one: %s\n\n"+
			"The link expires in 1 hour. If you did not request a reset, ignore this email.", resetLink),
		Html: fmt.Sprintf("<p>We received a request to reset your password.</p>"+
			"<p><a href=\"%s\">Choose a new password</a></p>"+
			"<p>The link expires in 1 hour. If you did not request a reset, ignore this email.</p>", html.EscapeString(resetLink)),
	}
}

// SendPasswordReset отправляет ссылку сброса пароля. Повторяет попытку только
// при rate limit и временных сетевых ошибках.
func (s *ResendEmailService) SendPasswordReset(ctx context.Context, toEmail, resetLink, idempotencyKey string) error {
	if toEmail == "" || resetLink == "" {
		return fmt.Errorf("toEmail and resetLink are required")
	}

	params := buildPasswordResetEmail(s.from, toEmail, resetLink)
	options := &resend.SendEmailOptions{}
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		options.IdempotencyKey = key
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}
		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
