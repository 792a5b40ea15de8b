package records

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/store"
	"go.uber.org/zap"
)

var (
	errMissingID     = errors.New("record identifier is required")
	errMissingFields = errors.New("required fields are missing")
	noOpLogger       = zap.NewNop()
)

// ServiceError carries a stable machine code alongside the store failure.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the "records.<operation>.<reason>" identifier.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opListCases             = "records.list_cases"
	opCaseByTrackingCode    = "records.case_by_tracking_code"
	opCaseByID              = "records.case_by_id"
	opCreateCase            = "records.create_case"
	opUpdateCase            = "records.update_case"
	opListBlogPosts         = "records.list_blog_posts"
	opBlogPostByID          = "records.blog_post_by_id"
	opCreateBlogPost        = "records.create_blog_post"
	opUpdateBlogPost        = "records.update_blog_post"
	opDeleteBlogPost        = "records.delete_blog_post"
	opCreateContactInquiry  = "records.create_contact_inquiry"
	opListContactInquiries  = "records.list_contact_inquiries"
	opUpdateInquiryStatus   = "records.update_inquiry_status"
	opCreateTrademark       = "records.create_trademark_application"
	opListTrademarks        = "records.list_trademark_applications"
	opUpdateTrademarkStatus = "records.update_trademark_status"
	opCountRows             = "records.count_rows"
)

const (
	reasonQueryFailed   = "query_failed"
	reasonInsertFailed  = "insert_failed"
	reasonUpdateFailed  = "update_failed"
	reasonDeleteFailed  = "delete_failed"
	reasonMissingID     = "missing_id"
	reasonMissingFields = "missing_fields"
	reasonCountFailed   = "count_failed"
)

// IsInvalidInput reports whether err was caused by missing caller input
// rather than by the store.
func IsInvalidInput(err error) bool {
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		return false
	}
	return strings.HasSuffix(serviceErr.code, "."+reasonMissingFields) ||
		strings.HasSuffix(serviceErr.code, "."+reasonMissingID)
}

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: operation + "." + reason, err: cause}
}

// ServiceConfig describes the dependencies of the data-access layer. A nil
// Store selects degraded mode.
type ServiceConfig struct {
	Store      store.Store
	Clock      func() time.Time
	Logger     *zap.Logger
	BlogAuthor string
}

// Service exposes one operation per (entity, action) pair over the store.
type Service struct {
	store      store.Store
	clock      func() time.Time
	logger     *zap.Logger
	blogAuthor string
}

// NewService constructs the data-access layer.
func NewService(cfg ServiceConfig) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	service := &Service{
		store:      cfg.Store,
		clock:      clock,
		logger:     logger,
		blogAuthor: strings.TrimSpace(cfg.BlogAuthor),
	}
	if service.Degraded() {
		logger.Warn("data store not configured; serving empty results")
	}
	return service
}

// Degraded reports whether the service short-circuits every call.
func (s *Service) Degraded() bool {
	return s == nil || s.store == nil
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

func (s *Service) fail(operation, reason string, err error, fields ...zap.Field) error {
	s.logError(operation, reason, err, fields...)
	return newServiceError(operation, reason, err)
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("records service error", attrs...)
}

func normalizeID(raw string) (string, bool) {
	id := strings.TrimSpace(raw)
	return id, id != ""
}
