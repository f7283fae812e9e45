package filter

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/textproto"
	"time"

	"github.com/emersion/go-milter"
	"go.uber.org/zap"

	"github.com/mikey/mailsentry/internal/allowlist"
	"github.com/mikey/mailsentry/internal/core"
	"github.com/mikey/mailsentry/internal/engine"
)

// MilterFilter exposes the analysis engine over the milter protocol so an
// MTA can tag or reject mail inline.
type MilterFilter struct {
	service      *engine.AnalysisService
	allowlist    *allowlist.Checker
	logger       *zap.Logger
	listenAddr   string
	server       *milter.Server
	blockSpam    bool
	spamHeader   string
	scoreHeader  string
	reasonHeader string
}

// NewMilterFilter creates a new Milter filter
func NewMilterFilter(
	service *engine.AnalysisService,
	allowlist *allowlist.Checker,
	logger *zap.Logger,
	listenAddr string,
	blockSpam bool,
	spamHeader string,
	scoreHeader string,
	reasonHeader string,
) *MilterFilter {
	return &MilterFilter{
		service:      service,
		allowlist:    allowlist,
		logger:       logger,
		listenAddr:   listenAddr,
		blockSpam:    blockSpam,
		spamHeader:   spamHeader,
		scoreHeader:  scoreHeader,
		reasonHeader: reasonHeader,
	}
}

// Start starts the Milter filter service
func (f *MilterFilter) Start() error {
	f.server = &milter.Server{
		NewMilter: func() milter.Milter {
			return &milterSession{filter: f}
		},
		Actions: milter.OptAddHeader,
	}

	ln, err := net.Listen("tcp", f.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.listenAddr, err)
	}

	f.logger.Info("Milter filter started", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.Serve(ln); err != nil {
			f.logger.Error("Milter server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the Milter filter service
func (f *MilterFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail analyzes an email directly, bypassing the milter path.
// This is mainly used for testing or direct API calls.
func (f *MilterFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.AnalysisReport, error) {
	return f.service.Analyze(ctx, email.Body, email.RawHeaders), nil
}

// milterSession accumulates one message's headers and body. The milter
// library creates a fresh session per connection.
type milterSession struct {
	filter    *MilterFilter
	sender    string
	rawHeader bytes.Buffer
	body      bytes.Buffer
}

// Connect implements the milter.Milter interface
func (s *milterSession) Connect(host string, family string, port uint16, addr net.IP, m *milter.Modifier) (milter.Response, error) {
	return milter.RespContinue, nil
}

// Helo implements the milter.Milter interface
func (s *milterSession) Helo(name string, m *milter.Modifier) (milter.Response, error) {
	return milter.RespContinue, nil
}

// MailFrom records the envelope sender
func (s *milterSession) MailFrom(from string, m *milter.Modifier) (milter.Response, error) {
	s.sender = from
	return milter.RespContinue, nil
}

// RcptTo implements the milter.Milter interface
func (s *milterSession) RcptTo(rcptTo string, m *milter.Modifier) (milter.Response, error) {
	return milter.RespContinue, nil
}

// Header accumulates the raw header block for auth parsing
func (s *milterSession) Header(name string, value string, m *milter.Modifier) (milter.Response, error) {
	fmt.Fprintf(&s.rawHeader, "%s: %s\r\n", name, value)
	return milter.RespContinue, nil
}

// Headers implements the milter.Milter interface
func (s *milterSession) Headers(h textproto.MIMEHeader, m *milter.Modifier) (milter.Response, error) {
	return milter.RespContinue, nil
}

// BodyChunk accumulates the message body
func (s *milterSession) BodyChunk(chunk []byte, m *milter.Modifier) (milter.Response, error) {
	s.body.Write(chunk)
	return milter.RespContinue, nil
}

// Body runs the analysis at end of message and attaches verdict headers
func (s *milterSession) Body(m *milter.Modifier) (milter.Response, error) {
	domain := senderDomain(s.sender)

	if s.filter.allowlist != nil && s.filter.allowlist.IsAllowlisted(s.sender) {
		s.filter.logger.Info("Sender domain allowlisted, bypassing analysis",
			zap.String("sender", s.sender),
			zap.String("sender_domain", domain))
		return milter.RespAccept, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	report := s.filter.service.Analyze(ctx, s.body.String(), s.rawHeader.String())
	isSpam := report.Verdict == core.VerdictSpam

	s.filter.logger.Info("Processed email",
		zap.String("from", s.sender),
		zap.String("sender_domain", domain),
		zap.String("processing_id", report.ProcessingID),
		zap.Bool("is_spam", isSpam),
		zap.Float64("score", report.FinalScore),
		zap.Float64("url_risk", report.URLRisk.Score))

	if isSpam && s.filter.blockSpam {
		s.filter.logger.Info("Rejecting spam email",
			zap.String("from", s.sender),
			zap.String("sender_domain", domain),
			zap.Float64("score", report.FinalScore),
			zap.String("reason", report.Explanation()))
		return milter.RespReject, nil
	}

	if err := m.AddHeader(s.filter.spamHeader, fmt.Sprintf("%t", isSpam)); err != nil {
		return nil, err
	}
	if err := m.AddHeader(s.filter.scoreHeader, fmt.Sprintf("%.4f", report.FinalScore)); err != nil {
		return nil, err
	}
	if err := m.AddHeader(s.filter.reasonHeader, report.Explanation()); err != nil {
		return nil, err
	}

	return milter.RespAccept, nil
}
