package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Mailer sends the account emails
type Mailer interface {
	IsEnabled() bool
	SendWelcomeEmail(ctx context.Context, toEmail, toName string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error
}

// EmailService sends email through Amazon SES. Without a sender address it
// is disabled and every send is a logged no-op.
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{debug: debug, appBaseURL: appBaseURL}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing SES email service: region=%s from=%s base=%s", awsRegion, fromEmail, appBaseURL)
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)
	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		enabled:    true,
		debug:      debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendPasswordResetEmail sends a password reset link
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): password reset to %s", toEmail)
		return nil
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.appBaseURL, resetToken)
	paragraphs := []string{
		"We received a request to reset the password of your Actuarial Hub account.",
		"This link expires in 1 hour. If you did not ask for a reset you can ignore this email.",
	}
	html, text := renderEmail("Password Reset Request", toName, paragraphs, "Reset Password", resetLink)
	return s.sendEmail(ctx, toEmail, "Reset Your Actuarial Hub Password", html, text)
}

// SendWelcomeEmail greets a newly registered user
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): welcome to %s", toEmail)
		return nil
	}

	paragraphs := []string{
		"Welcome to Actuarial Hub! Your first pricing quest is waiting.",
		"Complete quests to earn Risk Coins, test your premiums in the sandbox and meet other students on the community board.",
	}
	html, text := renderEmail("Welcome to Actuarial Hub!", toName, paragraphs, "Start Learning", s.appBaseURL+"/quests")
	return s.sendEmail(ctx, toEmail, "Welcome to Actuarial Hub!", html, text)
}

// renderEmail builds matching HTML and plain text bodies
func renderEmail(heading, toName string, paragraphs []string, buttonLabel, link string) (string, string) {
	var html, text strings.Builder

	html.WriteString(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #1f2937; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #1e3a8a; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f8fafc; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #f59e0b; color: white; text-decoration: none; border-radius: 5px; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #6b7280; }
	</style>
</head>
<body>
	<div class="container">
`)
	fmt.Fprintf(&html, "\t\t<div class=\"header\"><h1>%s</h1></div>\n\t\t<div class=\"content\">\n\t\t\t<p>Hi %s,</p>\n", heading, toName)
	fmt.Fprintf(&text, "Hi %s,\n\n", toName)

	for _, p := range paragraphs {
		fmt.Fprintf(&html, "\t\t\t<p>%s</p>\n", p)
		fmt.Fprintf(&text, "%s\n\n", p)
	}

	fmt.Fprintf(&html, "\t\t\t<p style=\"text-align: center;\"><a href=\"%s\" class=\"button\">%s</a></p>\n", link, buttonLabel)
	fmt.Fprintf(&html, "\t\t\t<p style=\"word-break: break-all; font-size: 12px;\">%s</p>\n\t\t</div>\n", link)
	html.WriteString("\t\t<div class=\"footer\"><p>This is an automated email from Actuarial Hub. Please do not reply.</p></div>\n\t</div>\n</body>\n</html>\n")

	fmt.Fprintf(&text, "%s: %s\n\n---\nThis is an automated email from Actuarial Hub. Please do not reply.\n", buttonLabel, link)
	return html.String(), text.String()
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	if s.debug {
		log.Printf("[DEBUG] Sending email: from=%s to=%s subject=%s html=%d bytes", fromAddress, toEmail, subject, len(htmlBody))
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] SES message ID: %s", *result.MessageId)
	}
	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
