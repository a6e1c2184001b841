package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// AlertService notifies operators about alert-worthy failures via Amazon
// SES. A failed rotation must be loud; the alternative is a day with no
// puzzle and nobody knowing
type AlertService struct {
	client    *sesv2.Client
	fromEmail string
	toEmail   string
	enabled   bool
}

// NewAlertService creates an alert service. With no recipient configured the
// service is disabled and alerts only reach the log
func NewAlertService(awsRegion, fromEmail, toEmail string) (*AlertService, error) {
	if fromEmail == "" || toEmail == "" {
		log.Println("Alert emails disabled: ALERT_FROM_EMAIL/ALERT_TO_EMAIL not configured")
		return &AlertService{enabled: false}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AlertService{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		toEmail:   toEmail,
		enabled:   true,
	}, nil
}

// RotationFailed reports a rotation that exhausted its retry budget. Always
// logs; emails when enabled. Alert delivery failures are logged, never
// propagated
func (s *AlertService) RotationFailed(ctx context.Context, puzzleDate string, cause error) {
	log.Printf("ALERT: rotation failed for %s: %v", puzzleDate, cause)

	if !s.enabled {
		return
	}

	subject := fmt.Sprintf("Figurdle rotation failed for %s", puzzleDate)
	body := fmt.Sprintf(
		"The daily puzzle rotation for %s failed and no puzzle was committed.\n\nError: %v\n\nThe previous day's puzzle is untouched. Retry via POST /admin/rotate or the rotate CLI.\n",
		puzzleDate, cause)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{s.toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		log.Printf("Failed to send rotation failure alert: %v", err)
	}
}
