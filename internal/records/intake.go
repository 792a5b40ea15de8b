package records

import (
	"context"
	"strings"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/store"
	"go.uber.org/zap"
)

// CreateContactInquiry stores a contact form submission with status New.
func (s *Service) CreateContactInquiry(ctx context.Context, fields ContactInquiryFields) ([]ContactInquiry, error) {
	if s.Degraded() {
		return nil, nil
	}
	name := strings.TrimSpace(fields.Name)
	email := strings.TrimSpace(fields.Email)
	message := strings.TrimSpace(fields.Message)
	if name == "" || email == "" || message == "" {
		return nil, s.fail(opCreateContactInquiry, reasonMissingFields, errMissingFields)
	}
	service := strings.TrimSpace(fields.Service)
	if service == "" {
		service = DefaultInquiryServiceType
	}
	values := map[string]any{
		"name":    name,
		"email":   email,
		"phone":   strings.TrimSpace(fields.Phone),
		"service": service,
		"message": message,
		"status":  InquiryStatusNew,
	}
	var created []ContactInquiry
	if err := s.store.Insert(ctx, store.TableContactInquiries, values, &created); err != nil {
		return nil, s.fail(opCreateContactInquiry, reasonInsertFailed, err)
	}
	return created, nil
}

// ListContactInquiries returns inquiries newest first.
func (s *Service) ListContactInquiries(ctx context.Context) ([]ContactInquiry, error) {
	if s.Degraded() {
		return []ContactInquiry{}, nil
	}
	var inquiries []ContactInquiry
	query := store.From(store.TableContactInquiries).OrderBy("created_at", true)
	if err := s.store.Select(ctx, query, &inquiries); err != nil {
		return nil, s.fail(opListContactInquiries, reasonQueryFailed, err)
	}
	return inquiries, nil
}

// UpdateInquiryStatus moves an inquiry to another status label.
func (s *Service) UpdateInquiryStatus(ctx context.Context, id, status string) ([]ContactInquiry, error) {
	if s.Degraded() {
		return nil, nil
	}
	inquiryID, ok := normalizeID(id)
	if !ok {
		return nil, s.fail(opUpdateInquiryStatus, reasonMissingID, errMissingID)
	}
	label := strings.TrimSpace(status)
	if label == "" {
		return nil, s.fail(opUpdateInquiryStatus, reasonMissingFields, errMissingFields)
	}
	var updated []ContactInquiry
	query := store.From(store.TableContactInquiries).Eq("id", inquiryID)
	if err := s.store.Update(ctx, query, map[string]any{"status": label}, &updated); err != nil {
		return nil, s.fail(opUpdateInquiryStatus, reasonUpdateFailed, err, zap.String("id", inquiryID))
	}
	return updated, nil
}

// CreateTrademarkApplication stores a trademark request with status Pending.
func (s *Service) CreateTrademarkApplication(ctx context.Context, fields TrademarkApplicationFields) ([]TrademarkApplication, error) {
	if s.Degraded() {
		return nil, nil
	}
	companyName := strings.TrimSpace(fields.CompanyName)
	brandName := strings.TrimSpace(fields.BrandName)
	email := strings.TrimSpace(fields.Email)
	if companyName == "" || brandName == "" || email == "" {
		return nil, s.fail(opCreateTrademark, reasonMissingFields, errMissingFields)
	}
	now := s.now()
	values := map[string]any{
		"company_name": companyName,
		"brand_name":   brandName,
		"category":     strings.TrimSpace(fields.Category),
		"email":        email,
		"phone":        strings.TrimSpace(fields.Phone),
		"description":  strings.TrimSpace(fields.Description),
		"status":       TrademarkStatusPending,
		"updated_at":   now,
	}
	var created []TrademarkApplication
	if err := s.store.Insert(ctx, store.TableTrademarkApplications, values, &created); err != nil {
		return nil, s.fail(opCreateTrademark, reasonInsertFailed, err)
	}
	return created, nil
}

// ListTrademarkApplications returns applications newest first.
func (s *Service) ListTrademarkApplications(ctx context.Context) ([]TrademarkApplication, error) {
	if s.Degraded() {
		return []TrademarkApplication{}, nil
	}
	var applications []TrademarkApplication
	query := store.From(store.TableTrademarkApplications).OrderBy("created_at", true)
	if err := s.store.Select(ctx, query, &applications); err != nil {
		return nil, s.fail(opListTrademarks, reasonQueryFailed, err)
	}
	return applications, nil
}

// UpdateTrademarkStatus moves an application to another status label and
// refreshes updated_at.
func (s *Service) UpdateTrademarkStatus(ctx context.Context, id, status string) ([]TrademarkApplication, error) {
	if s.Degraded() {
		return nil, nil
	}
	applicationID, ok := normalizeID(id)
	if !ok {
		return nil, s.fail(opUpdateTrademarkStatus, reasonMissingID, errMissingID)
	}
	label := strings.TrimSpace(status)
	if label == "" {
		return nil, s.fail(opUpdateTrademarkStatus, reasonMissingFields, errMissingFields)
	}
	values := map[string]any{"status": label, "updated_at": s.now()}
	var updated []TrademarkApplication
	query := store.From(store.TableTrademarkApplications).Eq("id", applicationID)
	if err := s.store.Update(ctx, query, values, &updated); err != nil {
		return nil, s.fail(opUpdateTrademarkStatus, reasonUpdateFailed, err, zap.String("id", applicationID))
	}
	return updated, nil
}
