package records

import (
	"context"
	"strings"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/store"
	"go.uber.org/zap"
)

// ListCases returns every case, newest first.
func (s *Service) ListCases(ctx context.Context) ([]Case, error) {
	if s.Degraded() {
		return []Case{}, nil
	}
	var cases []Case
	query := store.From(store.TableCases).OrderBy("created_at", true)
	if err := s.store.Select(ctx, query, &cases); err != nil {
		return nil, s.fail(opListCases, reasonQueryFailed, err)
	}
	return cases, nil
}

// CaseByTrackingCode looks a case up by its tracking code, ignoring case.
// found is false with a nil error when no case matches.
func (s *Service) CaseByTrackingCode(ctx context.Context, trackingCode string) (Case, bool, error) {
	code := NormalizeTrackingCode(trackingCode)
	if s.Degraded() || code == "" {
		return Case{}, false, nil
	}
	return s.singleCase(ctx, opCaseByTrackingCode, store.From(store.TableCases).Eq("case_id", code))
}

// CaseByID looks a case up by its store identifier.
func (s *Service) CaseByID(ctx context.Context, id string) (Case, bool, error) {
	caseID, ok := normalizeID(id)
	if s.Degraded() || !ok {
		return Case{}, false, nil
	}
	return s.singleCase(ctx, opCaseByID, store.From(store.TableCases).Eq("id", caseID))
}

func (s *Service) singleCase(ctx context.Context, operation string, query store.Query) (Case, bool, error) {
	var cases []Case
	if err := s.store.Select(ctx, query.Take(1), &cases); err != nil {
		return Case{}, false, s.fail(operation, reasonQueryFailed, err)
	}
	if len(cases) == 0 {
		return Case{}, false, nil
	}
	return cases[0], true, nil
}

// CreateCase inserts a case and returns the inserted row.
func (s *Service) CreateCase(ctx context.Context, fields CaseFields) ([]Case, error) {
	if s.Degraded() {
		return nil, nil
	}
	code := NormalizeTrackingCode(fields.CaseID)
	clientName := strings.TrimSpace(fields.ClientName)
	if code == "" || clientName == "" {
		return nil, s.fail(opCreateCase, reasonMissingFields, errMissingFields)
	}
	status := strings.TrimSpace(fields.Status)
	if status == "" {
		status = CaseStatusPending
	}
	now := s.now()
	values := map[string]any{
		"case_id":     code,
		"client_name": clientName,
		"case_type":   strings.TrimSpace(fields.CaseType),
		"status":      status,
		"progress":    clampProgress(fields.Progress),
		"last_update": now,
	}
	var created []Case
	if err := s.store.Insert(ctx, store.TableCases, values, &created); err != nil {
		return nil, s.fail(opCreateCase, reasonInsertFailed, err, zap.String("case_id", code))
	}
	return created, nil
}

// UpdateCase merges the changed columns with a fresh last_update and returns
// the updated rows. An unknown id yields an empty slice.
func (s *Service) UpdateCase(ctx context.Context, id string, update CaseUpdate) ([]Case, error) {
	if s.Degraded() {
		return nil, nil
	}
	caseID, ok := normalizeID(id)
	if !ok {
		return nil, s.fail(opUpdateCase, reasonMissingID, errMissingID)
	}
	values := map[string]any{"last_update": s.now()}
	if update.ClientName != nil {
		values["client_name"] = strings.TrimSpace(*update.ClientName)
	}
	if update.CaseType != nil {
		values["case_type"] = strings.TrimSpace(*update.CaseType)
	}
	if update.Status != nil {
		values["status"] = strings.TrimSpace(*update.Status)
	}
	if update.Progress != nil {
		values["progress"] = clampProgress(*update.Progress)
	}
	var updated []Case
	if err := s.store.Update(ctx, store.From(store.TableCases).Eq("id", caseID), values, &updated); err != nil {
		return nil, s.fail(opUpdateCase, reasonUpdateFailed, err, zap.String("id", caseID))
	}
	return updated, nil
}
