package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/mailsentry/internal/allowlist"
	"github.com/mikey/mailsentry/internal/core"
	"github.com/mikey/mailsentry/internal/engine"
)

// PostfixFilter implements a Postfix content filter. Mail arrives over SMTP,
// gets analyzed, and is reinjected to Postfix with verdict headers attached.
type PostfixFilter struct {
	service        *engine.AnalysisService
	allowlist      *allowlist.Checker
	logger         *zap.Logger
	listenAddr     string
	server         *smtp.Server
	blockSpam      bool
	spamHeader     string
	scoreHeader    string
	reasonHeader   string
	postfixAddr    string
	postfixPort    int
	postfixEnabled bool
	subjectPrefix  string
	modifySubject  bool
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(
	service *engine.AnalysisService,
	allowlist *allowlist.Checker,
	logger *zap.Logger,
	listenAddr string,
	blockSpam bool,
	spamHeader string,
	scoreHeader string,
	reasonHeader string,
	postfixAddr string,
	postfixPort int,
	postfixEnabled bool,
	subjectPrefix string,
	modifySubject bool,
) *PostfixFilter {
	// If subject prefix is not set but modify subject is enabled, use default prefix
	if subjectPrefix == "" && modifySubject {
		subjectPrefix = "[**SPAM**] "
	}

	return &PostfixFilter{
		service:        service,
		allowlist:      allowlist,
		logger:         logger,
		listenAddr:     listenAddr,
		blockSpam:      blockSpam,
		spamHeader:     spamHeader,
		scoreHeader:    scoreHeader,
		reasonHeader:   reasonHeader,
		postfixAddr:    postfixAddr,
		postfixPort:    postfixPort,
		postfixEnabled: postfixEnabled,
		subjectPrefix:  subjectPrefix,
		modifySubject:  modifySubject,
	}
}

// Start starts the Postfix filter service
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("Postfix filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the Postfix filter service
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail analyzes an email directly, bypassing the SMTP path.
// This is mainly used for testing or direct API calls.
func (f *PostfixFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.AnalysisReport, error) {
	return f.service.Analyze(ctx, email.Body, email.RawHeaders), nil
}

// sendToPostfix sends the processed email back to Postfix on the configured port
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := fmt.Sprintf("%s:%d", f.postfixAddr, f.postfixPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			// Continue with other recipients even if one fails
		} else {
			recipientOK = true
		}
	}

	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	_, err = wc.Write(emailData)
	if err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
		// Not returning an error here as the email has already been sent
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (not needed for our filter)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data analyzes the message and reinjects it to Postfix with verdict headers
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	headerBlock, _ := splitRawMessage(rawData)

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.filter.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	textContent, err := extractTextFromMessage(msg)
	if err != nil {
		s.filter.logger.Error("Failed to extract text content", zap.Error(err))
		return err
	}

	domain := senderDomain(s.sender)

	// Allowlisted senders bypass analysis entirely and are forwarded as is
	if s.filter.allowlist != nil && s.filter.allowlist.IsAllowlisted(s.sender) {
		s.filter.logger.Info("Sender domain allowlisted, bypassing analysis",
			zap.String("sender", s.sender),
			zap.String("sender_domain", domain))
		return s.forward(rawData)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	report := s.filter.service.Analyze(ctx, textContent, headerBlock)
	isSpam := report.Verdict == core.VerdictSpam

	if isSpam && s.filter.blockSpam {
		s.filter.logger.Info("Rejecting spam email",
			zap.String("from", s.sender),
			zap.String("sender_domain", domain),
			zap.Float64("score", report.FinalScore),
			zap.String("reason", report.Explanation()))
		return fmt.Errorf("550 Rejected as spam (score: %.2f)", report.FinalScore)
	}

	// Prepend verdict headers, then the original headers and body
	var modifiedEmail bytes.Buffer

	fmt.Fprintf(&modifiedEmail, "%s: %t\r\n", s.filter.spamHeader, isSpam)
	fmt.Fprintf(&modifiedEmail, "%s: %.4f\r\n", s.filter.scoreHeader, report.FinalScore)
	fmt.Fprintf(&modifiedEmail, "%s: %s\r\n", s.filter.reasonHeader, report.Explanation())

	if report.ClassifierUnavailable {
		fmt.Fprintf(&modifiedEmail, "X-Spam-Analysis-Degraded: classifier unavailable\r\n")
	}

	s.writeHeaders(&modifiedEmail, msg, isSpam)

	fmt.Fprintf(&modifiedEmail, "\r\n")

	_, body := splitRawMessage(rawData)
	if body != nil {
		// Preserve all MIME parts and attachments
		modifiedEmail.Write(body)
	} else {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			s.filter.logger.Error("Failed to read message body", zap.Error(err))
			return err
		}
		modifiedEmail.Write(bodyBytes)
	}

	s.filter.logger.Info("Processed email",
		zap.String("from", s.sender),
		zap.String("sender_domain", domain),
		zap.String("processing_id", report.ProcessingID),
		zap.Bool("is_spam", isSpam),
		zap.Float64("score", report.FinalScore),
		zap.Float64("url_risk", report.URLRisk.Score))

	return s.forward(modifiedEmail.Bytes())
}

// writeHeaders copies the original headers, optionally tagging the subject
func (s *smtpSession) writeHeaders(buf *bytes.Buffer, msg *mail.Message, isSpam bool) {
	tagSubject := isSpam && s.filter.modifySubject && s.filter.subjectPrefix != ""

	if tagSubject {
		originalSubject := msg.Header.Get("Subject")

		decodedSubject, err := decodeEncodedHeader(originalSubject)
		if err != nil {
			decodedSubject = originalSubject
		}

		if !strings.HasPrefix(decodedSubject, s.filter.subjectPrefix) {
			fmt.Fprintf(buf, "Subject: %s%s\r\n", s.filter.subjectPrefix, decodedSubject)
		} else {
			fmt.Fprintf(buf, "Subject: %s\r\n", decodedSubject)
		}
	}

	for key, values := range msg.Header {
		if tagSubject && strings.EqualFold(key, "Subject") {
			continue
		}
		for _, value := range values {
			fmt.Fprintf(buf, "%s: %s\r\n", key, value)
		}
	}
}

// forward hands the message to Postfix when reinjection is enabled
func (s *smtpSession) forward(data []byte) error {
	if !s.filter.postfixEnabled {
		s.filter.logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
		return nil
	}

	if err := s.filter.sendToPostfix(s.sender, s.recipients, data); err != nil {
		s.filter.logger.Error("Failed to send email back to Postfix",
			zap.Error(err),
			zap.String("sender", s.sender))
		return err
	}
	return nil
}

// Logout handles SMTP logout (not needed for our filter)
func (s *smtpSession) Logout() error {
	return nil
}
