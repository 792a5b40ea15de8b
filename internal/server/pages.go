package server

import (
	"net/http"
	"strings"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/records"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/site"
	"github.com/gin-gonic/gin"
)

const (
	menuQueryParam        = "menu"
	menuOpenValue         = "open"
	noticeFormIncomplete  = site.NoticeFormIncomplete
	noticeBlogUnavailable = "We could not load the blog right now. Please try again."
)

// Notice styles.
const (
	noticeKindSuccess = "success"
	noticeKindError   = "error"
)

type pageView struct {
	SiteName   string
	SiteAuthor string
	Year       int
	Page       site.Page
	Nav        []site.ActiveNavItem
	MenuOpen   bool
	MenuToggle string
	Notice     string
	NoticeKind string

	Highlights    []site.Highlight
	PracticeAreas []site.PracticeArea
	Office        site.Office

	Posts []records.BlogPost
	Post  records.BlogPost

	Lookup      site.LookupResult
	LookupFound bool

	Inquiry    site.InquiryForm
	Services   []site.ServiceOption
	Trademark  site.TrademarkForm
	Categories []site.ServiceOption
}

func (h *httpHandler) newPageView(c *gin.Context, page site.Page) pageView {
	nav := site.Navigate(page)
	if c.Query(menuQueryParam) == menuOpenValue {
		nav = nav.ToggleMenu()
	}
	toggle := page.Path()
	if !nav.MenuOpen {
		toggle += "?" + menuQueryParam + "=" + menuOpenValue
	}
	return pageView{
		SiteName:      h.siteName,
		SiteAuthor:    h.siteAuthor,
		Year:          h.clock().Year(),
		Page:          nav.Page,
		Nav:           nav.Items(),
		MenuOpen:      nav.MenuOpen,
		MenuToggle:    toggle,
		Highlights:    site.Highlights,
		PracticeAreas: site.PracticeAreas,
		Office:        site.DefaultOffice,
		Inquiry:       site.NewInquiryForm(),
		Services:      site.InquiryServices,
		Trademark:     site.NewTrademarkForm(),
		Categories:    site.TrademarkCategories,
	}
}

func (v *pageView) success(text string) {
	v.Notice = text
	v.NoticeKind = noticeKindSuccess
}

func (v *pageView) failure(text string) {
	v.Notice = text
	v.NoticeKind = noticeKindError
}

func (h *httpHandler) handleStaticPage(page site.Page, templateName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, templateName, h.newPageView(c, page))
	}
}

func (h *httpHandler) handleBlog(c *gin.Context) {
	view := h.newPageView(c, site.PageBlog)
	posts, err := h.site.PublishedPosts(c.Request.Context())
	if err != nil {
		view.failure(noticeBlogUnavailable)
		c.HTML(http.StatusServiceUnavailable, "blog", view)
		return
	}
	view.Posts = posts
	c.HTML(http.StatusOK, "blog", view)
}

func (h *httpHandler) handleBlogPost(c *gin.Context) {
	view := h.newPageView(c, site.PageBlog)
	post, found, err := h.site.PublishedPost(c.Request.Context(), c.Param("id"))
	switch {
	case err != nil:
		view.failure(noticeBlogUnavailable)
		c.HTML(http.StatusServiceUnavailable, "blog", view)
	case !found:
		c.HTML(http.StatusNotFound, "not_found", view)
	default:
		view.Post = post
		c.HTML(http.StatusOK, "blog_post", view)
	}
}

func (h *httpHandler) handleTrackForm(c *gin.Context) {
	c.HTML(http.StatusOK, "track", h.newPageView(c, site.PageCaseTracking))
}

func (h *httpHandler) handleTrackLookup(c *gin.Context) {
	view := h.newPageView(c, site.PageCaseTracking)
	result := h.site.LookupCase(c.Request.Context(), c.PostForm("tracking_code"))
	view.Lookup = result
	view.LookupFound = result.Found()
	status := http.StatusOK
	switch result.Outcome {
	case site.LookupFound:
	case site.LookupNotFound:
		view.failure(result.Notice)
		status = http.StatusNotFound
	case site.LookupFailed:
		view.failure(result.Notice)
		status = http.StatusServiceUnavailable
	default:
		view.failure(result.Notice)
		status = http.StatusBadRequest
	}
	c.HTML(status, "track", view)
}

func (h *httpHandler) handleTrademarkForm(c *gin.Context) {
	c.HTML(http.StatusOK, "trademark", h.newPageView(c, site.PageTrademark))
}

func (h *httpHandler) handleTrademarkSubmit(c *gin.Context) {
	view := h.newPageView(c, site.PageTrademark)
	var form site.TrademarkForm
	if err := c.ShouldBind(&form); err != nil {
		view.Trademark = form
		view.failure(noticeFormIncomplete)
		c.HTML(http.StatusBadRequest, "trademark", view)
		return
	}
	result := h.site.SubmitTrademark(c.Request.Context(), form)
	view.Trademark = result.Form
	if !result.Succeeded {
		view.failure(result.Notice)
		c.HTML(submissionFailureStatus(result.Incomplete), "trademark", view)
		return
	}
	view.success(result.Notice)
	c.HTML(http.StatusOK, "trademark", view)
}

func (h *httpHandler) handleContactForm(c *gin.Context) {
	view := h.newPageView(c, site.PageContact)
	if service := strings.TrimSpace(c.Query("service")); service != "" {
		view.Inquiry.Service = service
	}
	c.HTML(http.StatusOK, "contact", view)
}

func (h *httpHandler) handleContactSubmit(c *gin.Context) {
	view := h.newPageView(c, site.PageContact)
	var form site.InquiryForm
	if err := c.ShouldBind(&form); err != nil {
		view.Inquiry = form
		view.failure(noticeFormIncomplete)
		c.HTML(http.StatusBadRequest, "contact", view)
		return
	}
	result := h.site.SubmitInquiry(c.Request.Context(), form)
	view.Inquiry = result.Form
	if !result.Succeeded {
		view.failure(result.Notice)
		c.HTML(submissionFailureStatus(result.Incomplete), "contact", view)
		return
	}
	view.success(result.Notice)
	c.HTML(http.StatusOK, "contact", view)
}

func submissionFailureStatus(incomplete bool) int {
	if incomplete {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
