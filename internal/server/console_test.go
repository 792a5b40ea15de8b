package server

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/records"
)

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnvironment(t)

	recorder := env.postForm("/admin/login", url.Values{
		"email":    {testOperatorEmail},
		"password": {"not the password"},
	})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), noticeInvalidLogin) {
		t.Fatal("expected invalid login notice")
	}
	if !strings.Contains(recorder.Body.String(), `value="`+testOperatorEmail+`"`) {
		t.Fatal("expected email to be kept")
	}
	if env.consoles.Len() != 0 {
		t.Fatalf("expected no consoles, got %d", env.consoles.Len())
	}
}

func TestLoginDisabledInDegradedMode(t *testing.T) {
	env := buildTestEnvironment(t, environmentOptions{degraded: true})

	page := env.get("/admin")
	if page.Code != http.StatusOK || !strings.Contains(page.Body.String(), noticeSignInUnavailable) {
		t.Fatalf("expected disabled login form, got %d", page.Code)
	}

	recorder := env.postForm("/admin/login", url.Values{
		"email":    {testOperatorEmail},
		"password": {testOperatorPassword},
	})
	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", recorder.Code)
	}
	if len(recorder.Result().Cookies()) != 0 {
		t.Fatal("expected no session cookie in degraded mode")
	}
}

func TestConsoleRequiresOperator(t *testing.T) {
	env := newTestEnvironment(t)

	page := env.get("/admin")
	if page.Code != http.StatusOK || !strings.Contains(page.Body.String(), "Admin Login") {
		t.Fatalf("expected login form, got %d", page.Code)
	}

	action := env.postForm("/admin/tab/cases", url.Values{})
	if action.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", action.Code)
	}
	if location := action.Header().Get("Location"); location != consolePath {
		t.Fatalf("expected redirect to %s, got %s", consolePath, location)
	}
}

func TestConsoleDashboardAfterLogin(t *testing.T) {
	env := newTestEnvironment(t)
	seedCase(t, env.records, "CASE001")
	cookie := env.signIn(t)

	if env.consoles.Len() != 1 {
		t.Fatalf("expected console for the new session, got %d", env.consoles.Len())
	}
	body := env.get("/admin", cookie).Body.String()
	if !strings.Contains(body, "<h2>Total Cases</h2><p>1</p>") {
		t.Fatalf("expected dashboard counts, got %s", body)
	}
	if !strings.Contains(body, testOperatorEmail) {
		t.Fatal("expected operator email in sidebar")
	}
}

func TestConsoleCaseEditorSavesProgressAndStatus(t *testing.T) {
	env := newTestEnvironment(t)
	seeded := seedCase(t, env.records, "CASE001")
	cookie := env.signIn(t)

	steps := []struct {
		path string
		form url.Values
	}{
		{path: "/admin/tab/cases"},
		{path: "/admin/search", form: url.Values{"search": {"meera"}}},
		{path: "/admin/cases/open", form: url.Values{"id": {seeded.ID}}},
	}
	for _, step := range steps {
		if recorder := env.postForm(step.path, step.form, cookie); recorder.Code != http.StatusSeeOther {
			t.Fatalf("%s: expected redirect, got %d", step.path, recorder.Code)
		}
	}

	editor := env.get("/admin", cookie).Body.String()
	if !strings.Contains(editor, "Update CASE001") {
		t.Fatalf("expected case editor, got %s", editor)
	}

	saved := env.postForm("/admin/cases/save", url.Values{
		"progress": {"60"},
		"status":   {records.CaseStatusInProgress},
	}, cookie)
	if saved.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after save, got %d", saved.Code)
	}

	body := env.get("/admin", cookie).Body.String()
	if !strings.Contains(body, "Case updated successfully!") {
		t.Fatal("expected success notice")
	}
	if strings.Contains(body, "Update CASE001") {
		t.Fatal("expected editor to close after save")
	}
	if !strings.Contains(body, "<td>60%</td>") {
		t.Fatalf("expected refreshed progress, got %s", body)
	}

	stored, found, err := env.records.CaseByTrackingCode(context.Background(), "CASE001")
	if err != nil || !found {
		t.Fatalf("expected stored case: %v", err)
	}
	if stored.Progress != 60 || stored.Status != records.CaseStatusInProgress {
		t.Fatalf("unexpected stored case: %+v", stored)
	}
	if stored.ClientName != seeded.ClientName {
		t.Fatalf("expected client name untouched, got %s", stored.ClientName)
	}
}

func TestConsoleBlogLifecycle(t *testing.T) {
	env := newTestEnvironment(t)
	cookie := env.signIn(t)
	ctx := context.Background()

	env.postForm("/admin/tab/blogs", nil, cookie)
	env.postForm("/admin/blogs/new", nil, cookie)
	env.postForm("/admin/blogs/save", url.Values{
		"title":        {"Filing a recovery suit"},
		"excerpt":      {"A short guide"},
		"content":      {"Step one: gather invoices."},
		"is_published": {"true"},
	}, cookie)

	body := env.get("/admin", cookie).Body.String()
	if !strings.Contains(body, "Blog created successfully!") || !strings.Contains(body, "Filing a recovery suit") {
		t.Fatalf("expected created post in list, got %s", body)
	}

	posts, err := env.records.ListBlogPosts(ctx, true)
	if err != nil || len(posts) != 1 {
		t.Fatalf("expected one published post: %v", err)
	}
	postID := posts[0].ID
	if posts[0].Author != testSiteAuthor {
		t.Fatalf("expected default author, got %s", posts[0].Author)
	}

	env.postForm("/admin/blogs/delete", url.Values{"id": {postID}}, cookie)
	if body := env.get("/admin", cookie).Body.String(); !strings.Contains(body, "Delete this post?") {
		t.Fatal("expected delete confirmation")
	}
	env.postForm("/admin/blogs/delete/confirm", nil, cookie)
	if body := env.get("/admin", cookie).Body.String(); !strings.Contains(body, "Blog deleted successfully!") {
		t.Fatal("expected delete notice")
	}

	env.postForm("/admin/blogs/delete", url.Values{"id": {postID}}, cookie)
	env.postForm("/admin/blogs/delete/confirm", nil, cookie)
	if body := env.get("/admin", cookie).Body.String(); !strings.Contains(body, "Blog post not found") {
		t.Fatal("expected not found notice for the second delete")
	}
}

func TestConsoleStatusActions(t *testing.T) {
	env := newTestEnvironment(t)
	ctx := context.Background()
	inquiries, err := env.records.CreateContactInquiry(ctx, records.ContactInquiryFields{
		Name:    "Ravi",
		Email:   "ravi@example.test",
		Message: "Lease question",
	})
	if err != nil {
		t.Fatalf("failed to seed inquiry: %v", err)
	}
	cookie := env.signIn(t)

	env.postForm("/admin/tab/inquiries", nil, cookie)
	env.postForm("/admin/inquiries/status", url.Values{"id": {inquiries[0].ID}, "status": {"Contacted"}}, cookie)

	body := env.get("/admin", cookie).Body.String()
	if !strings.Contains(body, "Status updated successfully!") {
		t.Fatal("expected status notice")
	}
	if !strings.Contains(body, `<span class="status">Contacted</span>`) {
		t.Fatalf("expected refreshed status, got %s", body)
	}
}

func TestLogoutDropsConsoleAndSession(t *testing.T) {
	env := newTestEnvironment(t)
	cookie := env.signIn(t)

	recorder := env.postForm("/admin/logout", nil, cookie)
	if recorder.Code != http.StatusOK || !strings.Contains(recorder.Body.String(), noticeSignedOut) {
		t.Fatalf("expected signed out login form, got %d", recorder.Code)
	}
	cleared := false
	for _, result := range recorder.Result().Cookies() {
		if result.Name == testCookieName && result.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected session cookie to be cleared")
	}
	if env.consoles.Len() != 0 {
		t.Fatalf("expected console to be dropped, got %d", env.consoles.Len())
	}

	replay := env.get("/admin", cookie)
	if !strings.Contains(replay.Body.String(), "Admin Login") {
		t.Fatal("expected revoked cookie to land on the login form")
	}
}

func TestIntakeStreamDeliversSubmissions(t *testing.T) {
	env := newTestEnvironment(t)
	cookie := env.signIn(t)

	server := httptest.NewServer(env.handler)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/admin/events", http.NoBody)
	if err != nil {
		t.Fatalf("failed to build stream request: %v", err)
	}
	request.AddCookie(cookie)
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatalf("failed to open stream: %v", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("unexpected stream status: %d", response.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for env.intake.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected stream subscription")
		}
		time.Sleep(5 * time.Millisecond)
	}

	submission, err := http.PostForm(server.URL+"/contact", url.Values{
		"name":    {"Ravi"},
		"email":   {"ravi@example.test"},
		"service": {"civil"},
		"message": {"Property dispute"},
	})
	if err != nil {
		t.Fatalf("failed to submit inquiry: %v", err)
	}
	_ = submission.Body.Close()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(response.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	sawEvent := false
	timeout := time.After(2 * time.Second)
	for {
		select {
		case line, open := <-lines:
			if !open {
				t.Fatal("stream closed before the intake event")
			}
			if line == "event:"+intakeEventName {
				sawEvent = true
				continue
			}
			if sawEvent && strings.HasPrefix(line, "data:") {
				if !strings.Contains(line, `"kind":"inquiry"`) || !strings.Contains(line, "Ravi (civil)") {
					t.Fatalf("unexpected intake payload: %s", line)
				}
				cancel()
				for range lines {
				}
				return
			}
		case <-timeout:
			t.Fatal("expected intake event on the stream")
		}
	}
}

func TestLogoutEndsIntakeStream(t *testing.T) {
	env := newTestEnvironment(t)
	cookie := env.signIn(t)

	server := httptest.NewServer(env.handler)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/admin/events", http.NoBody)
	if err != nil {
		t.Fatalf("failed to build stream request: %v", err)
	}
	request.AddCookie(cookie)
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatalf("failed to open stream: %v", err)
	}
	defer response.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.intake.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected stream subscription")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if recorder := env.postForm("/admin/logout", nil, cookie); recorder.Code != http.StatusOK {
		t.Fatalf("expected logout to succeed, got %d", recorder.Code)
	}

	finished := make(chan error, 1)
	go func() {
		_, err := io.Copy(io.Discard, response.Body)
		finished <- err
	}()
	select {
	case err := <-finished:
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected the stream to end after logout")
	}
	if env.intake.Subscribers() != 0 {
		t.Fatalf("expected no subscribers after logout, got %d", env.intake.Subscribers())
	}
}

func TestIntakeStreamRejectsAnonymous(t *testing.T) {
	env := newTestEnvironment(t)

	recorder := env.get("/admin/events")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}
