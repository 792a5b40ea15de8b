package site

import (
	"context"
	"time"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/records"
	"go.uber.org/zap"
)

// Visitor notices.
const (
	NoticeInquirySent       = "Thank you! Your message has been sent successfully."
	NoticeInquiryFailed     = "Something went wrong. Please try again."
	NoticeTrademarkSent     = "Trademark request submitted successfully! We will contact you soon."
	NoticeTrademarkFailed   = "Error submitting application. Please try again."
	NoticeCaseNotFound      = "No case matches that tracking ID. Please check the ID and try again."
	NoticeCaseLookupFailed  = "We could not look up your case right now. Please try again."
	NoticeTrackingCodeEmpty = "Please enter your case tracking ID."
	NoticeFormIncomplete    = "Please fill in all required fields."
)

// Intake event kinds.
const (
	IntakeInquiry   = "inquiry"
	IntakeTrademark = "trademark"
)

// Records is the slice of the data-access layer the public site uses.
type Records interface {
	CaseByTrackingCode(ctx context.Context, trackingCode string) (records.Case, bool, error)
	CreateContactInquiry(ctx context.Context, fields records.ContactInquiryFields) ([]records.ContactInquiry, error)
	CreateTrademarkApplication(ctx context.Context, fields records.TrademarkApplicationFields) ([]records.TrademarkApplication, error)
	ListBlogPosts(ctx context.Context, publishedOnly bool) ([]records.BlogPost, error)
	BlogPostByID(ctx context.Context, id string) (records.BlogPost, bool, error)
}

// Relay mirrors submitted forms to an inbox.
type Relay interface {
	Send(ctx context.Context, subject string, fields map[string]string) error
}

// IntakeEvent announces a new public submission to operators.
type IntakeEvent struct {
	Kind       string    `json:"kind"`
	RecordID   string    `json:"recordId"`
	Summary    string    `json:"summary"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// IntakeNotifier fans intake events out to listening operators.
type IntakeNotifier interface {
	PublishIntake(event IntakeEvent)
}

// ControllerConfig describes the dependencies of the public site.
type ControllerConfig struct {
	Records  Records
	Relay    Relay
	Notifier IntakeNotifier
	Logger   *zap.Logger
	Clock    func() time.Time
}

// Controller performs the public site's data operations.
type Controller struct {
	records  Records
	relay    Relay
	notifier IntakeNotifier
	logger   *zap.Logger
	clock    func() time.Time
}

// NewController constructs a Controller.
func NewController(cfg ControllerConfig) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Controller{
		records:  cfg.Records,
		relay:    cfg.Relay,
		notifier: cfg.Notifier,
		logger:   logger,
		clock:    clock,
	}
}

// LookupOutcome distinguishes the three terminal states of a case lookup.
type LookupOutcome int

const (
	LookupNone LookupOutcome = iota
	LookupFound
	LookupNotFound
	LookupFailed
)

// LookupResult is the outcome of one case lookup attempt.
type LookupResult struct {
	Outcome      LookupOutcome
	TrackingCode string
	Case         records.Case
	Notice       string
}

// Found reports whether a case was returned.
func (r LookupResult) Found() bool {
	return r.Outcome == LookupFound
}

// Failed reports whether the lookup should be retried.
func (r LookupResult) Failed() bool {
	return r.Outcome == LookupFailed
}

// LookupCase normalizes the tracking code and fetches the case in one round trip.
func (c *Controller) LookupCase(ctx context.Context, trackingCode string) LookupResult {
	code := records.NormalizeTrackingCode(trackingCode)
	if code == "" {
		return LookupResult{Outcome: LookupNone, Notice: NoticeTrackingCodeEmpty}
	}
	found, ok, err := c.records.CaseByTrackingCode(ctx, code)
	if err != nil {
		c.logger.Warn("case lookup failed", zap.String("tracking_code", code), zap.Error(err))
		return LookupResult{Outcome: LookupFailed, TrackingCode: code, Notice: NoticeCaseLookupFailed}
	}
	if !ok {
		return LookupResult{Outcome: LookupNotFound, TrackingCode: code, Notice: NoticeCaseNotFound}
	}
	return LookupResult{Outcome: LookupFound, TrackingCode: code, Case: found}
}

// SubmissionResult is the outcome of a form submission. Form holds the values
// to render next: the initial values after success, the submitted values
// after failure. Incomplete marks a rejection for blank required fields, as
// opposed to a store failure.
type SubmissionResult[F any] struct {
	Succeeded  bool
	Incomplete bool
	Notice     string
	Form       F
}

// SubmitInquiry stores the contact form.
func (c *Controller) SubmitInquiry(ctx context.Context, form InquiryForm) SubmissionResult[InquiryForm] {
	if isBot(form.Honey) {
		c.logger.Info("inquiry honeypot tripped")
		return SubmissionResult[InquiryForm]{Succeeded: true, Notice: NoticeInquirySent, Form: NewInquiryForm()}
	}
	created, err := c.records.CreateContactInquiry(ctx, form.fields())
	if err != nil {
		if records.IsInvalidInput(err) {
			return SubmissionResult[InquiryForm]{Incomplete: true, Notice: NoticeFormIncomplete, Form: form}
		}
		return SubmissionResult[InquiryForm]{Notice: NoticeInquiryFailed, Form: form}
	}
	c.mirror(ctx, InquirySubject, form.relayFields())
	if len(created) > 0 {
		c.announce(IntakeInquiry, created[0].ID, created[0].Name+" ("+created[0].Service+")")
	}
	return SubmissionResult[InquiryForm]{Succeeded: true, Notice: NoticeInquirySent, Form: NewInquiryForm()}
}

// SubmitTrademark stores the trademark application form.
func (c *Controller) SubmitTrademark(ctx context.Context, form TrademarkForm) SubmissionResult[TrademarkForm] {
	if isBot(form.Honey) {
		c.logger.Info("trademark honeypot tripped")
		return SubmissionResult[TrademarkForm]{Succeeded: true, Notice: NoticeTrademarkSent, Form: NewTrademarkForm()}
	}
	created, err := c.records.CreateTrademarkApplication(ctx, form.fields())
	if err != nil {
		if records.IsInvalidInput(err) {
			return SubmissionResult[TrademarkForm]{Incomplete: true, Notice: NoticeFormIncomplete, Form: form}
		}
		return SubmissionResult[TrademarkForm]{Notice: NoticeTrademarkFailed, Form: form}
	}
	c.mirror(ctx, TrademarkSubject, form.relayFields())
	if len(created) > 0 {
		c.announce(IntakeTrademark, created[0].ID, created[0].BrandName+" for "+created[0].CompanyName)
	}
	return SubmissionResult[TrademarkForm]{Succeeded: true, Notice: NoticeTrademarkSent, Form: NewTrademarkForm()}
}

// PublishedPosts lists published posts, newest first.
func (c *Controller) PublishedPosts(ctx context.Context) ([]records.BlogPost, error) {
	return c.records.ListBlogPosts(ctx, true)
}

// PublishedPost returns one post; drafts are reported as not found.
func (c *Controller) PublishedPost(ctx context.Context, id string) (records.BlogPost, bool, error) {
	post, found, err := c.records.BlogPostByID(ctx, id)
	if err != nil || !found || !post.IsPublished {
		return records.BlogPost{}, false, err
	}
	return post, true, nil
}

func (c *Controller) mirror(ctx context.Context, subject string, fields map[string]string) {
	if c.relay == nil {
		return
	}
	if err := c.relay.Send(ctx, subject, fields); err != nil {
		c.logger.Warn("form relay failed", zap.String("subject", subject), zap.Error(err))
	}
}

func (c *Controller) announce(kind, recordID, summary string) {
	if c.notifier == nil {
		return
	}
	c.notifier.PublishIntake(IntakeEvent{
		Kind:       kind,
		RecordID:   recordID,
		Summary:    summary,
		ReceivedAt: c.clock().UTC(),
	})
}
