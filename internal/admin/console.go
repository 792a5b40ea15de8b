// Package admin holds the per-operator console state: the active tab, the
// lists fetched for each tab, the case editor, the blog draft and the delete
// confirmation.
package admin

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/records"
	"go.uber.org/zap"
)

// Tab names a console tab.
type Tab string

const (
	TabDashboard  Tab = "dashboard"
	TabCases      Tab = "cases"
	TabBlogs      Tab = "blogs"
	TabInquiries  Tab = "inquiries"
	TabTrademarks Tab = "trademarks"
)

// Tabs lists the console tabs in display order.
var Tabs = []TabItem{
	{Tab: TabDashboard, Label: "Dashboard"},
	{Tab: TabCases, Label: "Cases"},
	{Tab: TabBlogs, Label: "Blog Posts"},
	{Tab: TabInquiries, Label: "Inquiries"},
	{Tab: TabTrademarks, Label: "Trademarks"},
}

// TabItem is one sidebar entry.
type TabItem struct {
	Tab   Tab
	Label string
}

// ParseTab maps a tab name to a Tab.
func ParseTab(name string) (Tab, bool) {
	for _, item := range Tabs {
		if string(item.Tab) == name {
			return item.Tab, true
		}
	}
	return "", false
}

// NewBlogSentinel marks the blog editor as composing a new post.
const NewBlogSentinel = "new"

// Operator notices.
const (
	NoticeCaseUpdated      = "Case updated successfully!"
	NoticeCaseUpdateFailed = "Error updating case"
	NoticeCaseNotFound     = "Case no longer exists"
	NoticeBlogCreated      = "Blog created successfully!"
	NoticeBlogUpdated      = "Blog updated successfully!"
	NoticeBlogSaveFailed   = "Error saving blog"
	NoticeBlogDeleted      = "Blog deleted successfully!"
	NoticeBlogDeleteFailed = "Error deleting blog"
	NoticeBlogNotFound     = "Blog post not found"
	NoticeStatusUpdated    = "Status updated successfully!"
	NoticeStatusFailed     = "Error updating status"
	NoticeLoadFailed       = "Error loading data"
)

var (
	// ErrUnknownTab is returned for a tab name outside Tabs.
	ErrUnknownTab = errors.New("admin: unknown tab")
	// ErrNoSelection is returned when an editor action has nothing selected.
	ErrNoSelection = errors.New("admin: nothing selected")
)

// Records is the slice of the data-access layer the console uses.
type Records interface {
	DashboardStats(ctx context.Context) records.DashboardStats
	ListCases(ctx context.Context) ([]records.Case, error)
	UpdateCase(ctx context.Context, id string, update records.CaseUpdate) ([]records.Case, error)
	ListBlogPosts(ctx context.Context, publishedOnly bool) ([]records.BlogPost, error)
	CreateBlogPost(ctx context.Context, fields records.BlogPostFields) ([]records.BlogPost, error)
	UpdateBlogPost(ctx context.Context, id string, update records.BlogPostUpdate) ([]records.BlogPost, error)
	DeleteBlogPost(ctx context.Context, id string) (bool, error)
	ListContactInquiries(ctx context.Context) ([]records.ContactInquiry, error)
	UpdateInquiryStatus(ctx context.Context, id, status string) ([]records.ContactInquiry, error)
	ListTrademarkApplications(ctx context.Context) ([]records.TrademarkApplication, error)
	UpdateTrademarkStatus(ctx context.Context, id, status string) ([]records.TrademarkApplication, error)
}

// NoticeKind separates confirmations from failures.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a one-shot acknowledgement shown after an action.
type Notice struct {
	Kind NoticeKind
	Text string
}

// BlogDraft is the blog editor's form.
type BlogDraft struct {
	Title       string `form:"title" json:"title" binding:"required"`
	Excerpt     string `form:"excerpt" json:"excerpt"`
	Content     string `form:"content" json:"content"`
	IsPublished bool   `form:"is_published" json:"is_published"`
}

// NewBlogDraft returns the editor's initial values.
func NewBlogDraft() BlogDraft {
	return BlogDraft{IsPublished: true}
}

// View is a snapshot of the console for rendering.
type View struct {
	Tab           Tab
	Stats         records.DashboardStats
	Cases         []records.Case
	Blogs         []records.BlogPost
	Inquiries     []records.ContactInquiry
	Trademarks    []records.TrademarkApplication
	Search        string
	SelectedCase  *records.Case
	EditingBlog   string
	Draft         BlogDraft
	PendingDelete string
	Notice        *Notice
}

// Console is one operator's console state. All methods are safe for
// concurrent use.
type Console struct {
	mu      sync.Mutex
	records Records
	logger  *zap.Logger
	clock   func() time.Time

	tab           Tab
	stats         records.DashboardStats
	cases         []records.Case
	blogs         []records.BlogPost
	inquiries     []records.ContactInquiry
	trademarks    []records.TrademarkApplication
	search        string
	selectedCase  *records.Case
	editingBlog   string
	draft         BlogDraft
	pendingDelete string
	notice        *Notice
	lastSeen      atomic.Int64
}

// NewConsole constructs a console on the dashboard tab with nothing fetched.
func NewConsole(recordsService Records, logger *zap.Logger, clock func() time.Time) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	console := &Console{
		records: recordsService,
		logger:  logger,
		clock:   clock,
		tab:     TabDashboard,
		draft:   NewBlogDraft(),
	}
	console.touch()
	return console
}

// View returns a snapshot and consumes the pending notice.
func (c *Console) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	view := View{
		Tab:           c.tab,
		Stats:         c.stats,
		Cases:         c.filteredCasesLocked(),
		Blogs:         append([]records.BlogPost(nil), c.blogs...),
		Inquiries:     append([]records.ContactInquiry(nil), c.inquiries...),
		Trademarks:    append([]records.TrademarkApplication(nil), c.trademarks...),
		Search:        c.search,
		EditingBlog:   c.editingBlog,
		Draft:         c.draft,
		PendingDelete: c.pendingDelete,
		Notice:        c.notice,
	}
	if c.selectedCase != nil {
		selected := *c.selectedCase
		view.SelectedCase = &selected
	}
	c.notice = nil
	return view
}

// ActivateTab selects tab and performs exactly one fetch for it. Data cached
// for other tabs is kept.
func (c *Console) ActivateTab(ctx context.Context, tab Tab) error {
	if _, ok := ParseTab(string(tab)); !ok {
		return ErrUnknownTab
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	c.tab = tab
	c.loadLocked(ctx, tab)
	return nil
}

// loadLocked replaces the tab's cached list wholesale. A failed fetch keeps
// the previous list and raises a notice.
func (c *Console) loadLocked(ctx context.Context, tab Tab) {
	var err error
	switch tab {
	case TabDashboard:
		c.stats = c.records.DashboardStats(ctx)
	case TabCases:
		var cases []records.Case
		if cases, err = c.records.ListCases(ctx); err == nil {
			c.cases = cases
		}
	case TabBlogs:
		var blogs []records.BlogPost
		if blogs, err = c.records.ListBlogPosts(ctx, false); err == nil {
			c.blogs = blogs
		}
	case TabInquiries:
		var inquiries []records.ContactInquiry
		if inquiries, err = c.records.ListContactInquiries(ctx); err == nil {
			c.inquiries = inquiries
		}
	case TabTrademarks:
		var trademarks []records.TrademarkApplication
		if trademarks, err = c.records.ListTrademarkApplications(ctx); err == nil {
			c.trademarks = trademarks
		}
	}
	if err != nil {
		c.logger.Warn("console fetch failed", zap.String("tab", string(tab)), zap.Error(err))
		c.notice = &Notice{Kind: NoticeError, Text: NoticeLoadFailed}
	}
}

// SetSearch sets the case filter. No fetch is made.
func (c *Console) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	c.search = term
}

// FilteredCases returns the cached cases whose tracking code or client name
// contains the search term, ignoring case.
func (c *Console) FilteredCases() []records.Case {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filteredCasesLocked()
}

func (c *Console) filteredCasesLocked() []records.Case {
	term := strings.ToLower(strings.TrimSpace(c.search))
	filtered := make([]records.Case, 0, len(c.cases))
	for _, item := range c.cases {
		if term == "" ||
			strings.Contains(strings.ToLower(item.CaseID), term) ||
			strings.Contains(strings.ToLower(item.ClientName), term) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// OpenCase binds the case editor to a cached case.
func (c *Console) OpenCase(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	for _, item := range c.cases {
		if item.ID == id {
			selected := item
			c.selectedCase = &selected
			return true
		}
	}
	return false
}

// CloseCase dismisses the case editor.
func (c *Console) CloseCase() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	c.selectedCase = nil
}

// SaveCase sends only progress and status for the selected case. Success
// closes the editor and re-fetches the list; failure keeps it open.
func (c *Console) SaveCase(ctx context.Context, progress int, status string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if c.selectedCase == nil {
		return ErrNoSelection
	}
	update := records.CaseUpdate{Progress: &progress, Status: &status}
	updated, err := c.records.UpdateCase(ctx, c.selectedCase.ID, update)
	if err != nil {
		c.notice = &Notice{Kind: NoticeError, Text: NoticeCaseUpdateFailed}
		return err
	}
	c.selectedCase = nil
	if len(updated) == 0 {
		c.notice = &Notice{Kind: NoticeError, Text: NoticeCaseNotFound}
	} else {
		c.notice = &Notice{Kind: NoticeSuccess, Text: NoticeCaseUpdated}
	}
	c.reloadLocked(ctx, TabCases)
	return nil
}

// NewBlog opens the editor on an empty draft.
func (c *Console) NewBlog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	c.editingBlog = NewBlogSentinel
	c.draft = NewBlogDraft()
}

// EditBlog opens the editor on a cached post.
func (c *Console) EditBlog(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	for _, post := range c.blogs {
		if post.ID == id {
			c.editingBlog = id
			c.draft = BlogDraft{
				Title:       post.Title,
				Excerpt:     post.Excerpt,
				Content:     post.Content,
				IsPublished: post.IsPublished,
			}
			return true
		}
	}
	return false
}

// CancelBlog closes the editor and discards the draft.
func (c *Console) CancelBlog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	c.resetDraftLocked()
}

// SaveBlog creates or updates depending on the editor slot. After either
// outcome the draft resets and the list re-fetches.
func (c *Console) SaveBlog(ctx context.Context, draft BlogDraft) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if c.editingBlog == "" {
		return ErrNoSelection
	}

	var err error
	successText := NoticeBlogCreated
	if c.editingBlog == NewBlogSentinel {
		_, err = c.records.CreateBlogPost(ctx, records.BlogPostFields{
			Title:       draft.Title,
			Excerpt:     draft.Excerpt,
			Content:     draft.Content,
			IsPublished: draft.IsPublished,
		})
	} else {
		successText = NoticeBlogUpdated
		_, err = c.records.UpdateBlogPost(ctx, c.editingBlog, records.BlogPostUpdate{
			Title:       &draft.Title,
			Excerpt:     &draft.Excerpt,
			Content:     &draft.Content,
			IsPublished: &draft.IsPublished,
		})
	}
	if err != nil {
		c.notice = &Notice{Kind: NoticeError, Text: NoticeBlogSaveFailed}
	} else {
		c.notice = &Notice{Kind: NoticeSuccess, Text: successText}
	}
	c.resetDraftLocked()
	c.reloadLocked(ctx, TabBlogs)
	return err
}

// RequestDelete asks for confirmation before deleting a post.
func (c *Console) RequestDelete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	c.pendingDelete = strings.TrimSpace(id)
}

// CancelDelete withdraws the pending deletion.
func (c *Console) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	c.pendingDelete = ""
}

// ConfirmDelete deletes the post awaiting confirmation. A post that no longer
// exists yields a not-found notice.
func (c *Console) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if c.pendingDelete == "" {
		return ErrNoSelection
	}
	id := c.pendingDelete
	c.pendingDelete = ""

	deleted, err := c.records.DeleteBlogPost(ctx, id)
	switch {
	case err != nil:
		c.notice = &Notice{Kind: NoticeError, Text: NoticeBlogDeleteFailed}
	case !deleted:
		c.notice = &Notice{Kind: NoticeError, Text: NoticeBlogNotFound}
	default:
		c.notice = &Notice{Kind: NoticeSuccess, Text: NoticeBlogDeleted}
	}
	if c.editingBlog == id {
		c.resetDraftLocked()
	}
	c.reloadLocked(ctx, TabBlogs)
	return err
}

// SetInquiryStatus relabels an inquiry and re-fetches the inquiries.
func (c *Console) SetInquiryStatus(ctx context.Context, id, status string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	_, err := c.records.UpdateInquiryStatus(ctx, id, status)
	c.statusNoticeLocked(err)
	c.reloadLocked(ctx, TabInquiries)
	return err
}

// SetTrademarkStatus relabels an application and re-fetches the applications.
func (c *Console) SetTrademarkStatus(ctx context.Context, id, status string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	_, err := c.records.UpdateTrademarkStatus(ctx, id, status)
	c.statusNoticeLocked(err)
	c.reloadLocked(ctx, TabTrademarks)
	return err
}

func (c *Console) statusNoticeLocked(err error) {
	if err != nil {
		c.notice = &Notice{Kind: NoticeError, Text: NoticeStatusFailed}
		return
	}
	c.notice = &Notice{Kind: NoticeSuccess, Text: NoticeStatusUpdated}
}

// reloadLocked re-fetches after a mutation without overwriting the
// mutation's own notice with a load notice.
func (c *Console) reloadLocked(ctx context.Context, tab Tab) {
	notice := c.notice
	c.loadLocked(ctx, tab)
	if notice != nil {
		c.notice = notice
	}
}

func (c *Console) resetDraftLocked() {
	c.editingBlog = ""
	c.draft = NewBlogDraft()
}

func (c *Console) touch() {
	c.lastSeen.Store(c.clock().UnixNano())
}

func (c *Console) idleSince() time.Time {
	return time.Unix(0, c.lastSeen.Load())
}
