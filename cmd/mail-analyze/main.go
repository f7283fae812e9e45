package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/mailsentry/internal/core"
	"github.com/mikey/mailsentry/internal/di"
	"github.com/mikey/mailsentry/internal/ports"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run reads one message, analyzes it, and prints the report
func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	emailFilter ports.EmailFilter,
	classifier core.Classifier,
) error {
	defer logger.Sync()

	email, err := readEmail(flags, logger)
	if err != nil {
		return err
	}

	report, err := emailFilter.ProcessEmail(context.Background(), email)
	if err != nil {
		return err
	}

	// Close any resources that need closing
	if closer, ok := classifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close classifier", zap.Error(err))
		}
	}

	// Nonzero exit for spam so shell pipelines can branch on the verdict
	if report.Verdict == core.VerdictSpam {
		os.Exit(1)
	}
	return nil
}

// readEmail parses the message from the input file or stdin
func readEmail(flags *di.CLIFlags, logger *zap.Logger) (*core.Email, error) {
	var emailReader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file %s: %w", flags.InputFile, err)
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	raw, err := io.ReadAll(bufio.NewReader(emailReader))
	if err != nil {
		return nil, fmt.Errorf("failed to read email: %w", err)
	}

	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	bodyBytes, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read email body: %w", err)
	}

	// Keep the unparsed header block so auth results survive folding
	rawHeaders := string(raw)
	if idx := strings.Index(rawHeaders, "\r\n\r\n"); idx != -1 {
		rawHeaders = rawHeaders[:idx]
	} else if idx := strings.Index(rawHeaders, "\n\n"); idx != -1 {
		rawHeaders = rawHeaders[:idx]
	}

	email := &core.Email{
		From:       msg.Header.Get("From"),
		To:         strings.Split(msg.Header.Get("To"), ","),
		Subject:    msg.Header.Get("Subject"),
		Body:       string(bodyBytes),
		RawHeaders: rawHeaders,
		Headers:    make(map[string][]string),
	}
	for k, v := range msg.Header {
		email.Headers[k] = v
	}

	return email, nil
}
