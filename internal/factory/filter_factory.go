package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/mailsentry/internal/adapters/filter"
	"github.com/mikey/mailsentry/internal/allowlist"
	"github.com/mikey/mailsentry/internal/config"
	"github.com/mikey/mailsentry/internal/engine"
	"github.com/mikey/mailsentry/internal/ports"
)

// FilterFactory creates email ingestion frontends based on configuration
type FilterFactory struct {
	cfg       *config.Config
	logger    *zap.Logger
	service   *engine.AnalysisService
	allowlist *allowlist.Checker
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *engine.AnalysisService, allowlist *allowlist.Checker) *FilterFactory {
	return &FilterFactory{
		cfg:       cfg,
		logger:    logger,
		service:   service,
		allowlist: allowlist,
	}
}

// CreateEmailFilter creates an email filter based on the configuration
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	filterType := f.cfg.GetString("server.filter_type")

	switch filterType {
	case "postfix":
		return filter.NewPostfixFilter(
			f.service,
			f.allowlist,
			f.logger,
			f.cfg.GetString("server.listen_address"),
			f.cfg.GetBool("server.block_spam"),
			f.cfg.GetString("server.headers.spam"),
			f.cfg.GetString("server.headers.score"),
			f.cfg.GetString("server.headers.reason"),
			f.cfg.GetString("server.postfix.address"),
			f.cfg.GetInt("server.postfix.port"),
			f.cfg.GetBool("server.postfix.enabled"),
			f.cfg.GetString("server.subject_prefix"),
			f.cfg.GetBool("server.modify_subject"),
		), nil
	case "milter":
		return filter.NewMilterFilter(
			f.service,
			f.allowlist,
			f.logger,
			f.cfg.GetString("server.listen_address"),
			f.cfg.GetBool("server.block_spam"),
			f.cfg.GetString("server.headers.spam"),
			f.cfg.GetString("server.headers.score"),
			f.cfg.GetString("server.headers.reason"),
		), nil
	case "cli":
		return filter.NewCliFilter(
			f.service,
			f.logger,
			f.cfg.GetBool("cli.verbose"),
		)
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}
