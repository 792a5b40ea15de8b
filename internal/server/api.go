package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/auth"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/records"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/site"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	apiErrorInvalidRequest = "invalid_request"
	apiErrorUnauthorized   = "unauthorized"
	apiErrorNotFound       = "not_found"
	apiErrorStoreFailed    = "store_failed"
)

type caseCreateRequest struct {
	CaseID     string `json:"case_id" binding:"required"`
	ClientName string `json:"client_name" binding:"required"`
	CaseType   string `json:"case_type"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
}

type caseUpdateRequest struct {
	ClientName *string `json:"client_name"`
	CaseType   *string `json:"case_type"`
	Status     *string `json:"status"`
	Progress   *int    `json:"progress"`
}

type postCreateRequest struct {
	Title         string    `json:"title" binding:"required"`
	Excerpt       string    `json:"excerpt"`
	Content       string    `json:"content"`
	IsPublished   bool      `json:"is_published"`
	PublishedDate time.Time `json:"published_date"`
	Author        string    `json:"author"`
}

type postUpdateRequest struct {
	Title       *string `json:"title"`
	Excerpt     *string `json:"excerpt"`
	Content     *string `json:"content"`
	IsPublished *bool   `json:"is_published"`
	Author      *string `json:"author"`
}

type statusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

// respondError writes {"error", "code"}. Input failures reported by the
// records service map to 400, everything else from the store to 502.
func (h *httpHandler) respondError(c *gin.Context, err error) {
	payload := gin.H{"error": apiErrorStoreFailed}
	status := http.StatusBadGateway
	if records.IsInvalidInput(err) {
		payload["error"] = apiErrorInvalidRequest
		status = http.StatusBadRequest
	}
	var serviceErr *records.ServiceError
	if errors.As(err, &serviceErr) {
		payload["code"] = serviceErr.Code()
	}
	c.JSON(status, payload)
}

func (h *httpHandler) requireOperatorAPI(c *gin.Context) {
	actor := h.sessions.Actor(c.Request)
	if actor == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apiErrorUnauthorized})
		return
	}
	c.Set(actorContextKey, actor)
	c.Next()
}

func actorScope(c *gin.Context) *auth.Actor {
	actor, _ := c.MustGet(actorContextKey).(*auth.Actor)
	return actor
}

func (h *httpHandler) handleAPIBlogList(c *gin.Context) {
	posts, err := h.site.PublishedPosts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": nonNil(posts)})
}

func (h *httpHandler) handleAPIBlogPost(c *gin.Context) {
	post, found, err := h.site.PublishedPost(c.Request.Context(), c.Param("id"))
	switch {
	case err != nil:
		h.respondError(c, err)
	case !found:
		c.JSON(http.StatusNotFound, gin.H{"error": apiErrorNotFound})
	default:
		c.JSON(http.StatusOK, post)
	}
}

func (h *httpHandler) handleAPICaseLookup(c *gin.Context) {
	result := h.site.LookupCase(c.Request.Context(), c.Param("code"))
	switch result.Outcome {
	case site.LookupFound:
		c.JSON(http.StatusOK, result.Case)
	case site.LookupNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": apiErrorNotFound, "message": result.Notice})
	case site.LookupFailed:
		c.JSON(http.StatusBadGateway, gin.H{"error": apiErrorStoreFailed, "message": result.Notice})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": apiErrorInvalidRequest, "message": result.Notice})
	}
}

func (h *httpHandler) handleAPIInquiry(c *gin.Context) {
	var form site.InquiryForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": apiErrorInvalidRequest})
		return
	}
	result := h.site.SubmitInquiry(c.Request.Context(), form)
	if result.Incomplete {
		c.JSON(http.StatusBadRequest, gin.H{"error": apiErrorInvalidRequest, "message": result.Notice})
		return
	}
	if !result.Succeeded {
		c.JSON(http.StatusBadGateway, gin.H{"error": apiErrorStoreFailed, "message": result.Notice})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": result.Notice})
}

func (h *httpHandler) handleAPITrademark(c *gin.Context) {
	var form site.TrademarkForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": apiErrorInvalidRequest})
		return
	}
	result := h.site.SubmitTrademark(c.Request.Context(), form)
	if result.Incomplete {
		c.JSON(http.StatusBadRequest, gin.H{"error": apiErrorInvalidRequest, "message": result.Notice})
		return
	}
	if !result.Succeeded {
		c.JSON(http.StatusBadGateway, gin.H{"error": apiErrorStoreFailed, "message": result.Notice})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": result.Notice})
}

func (h *httpHandler) handleAPIStats(c *gin.Context) {
	ctx := actorScope(c).Context(c.Request.Context())
	c.JSON(http.StatusOK, h.records.DashboardStats(ctx))
}

func (h *httpHandler) handleAPIListCases(c *gin.Context) {
	ctx := actorScope(c).Context(c.Request.Context())
	cases, err := h.records.ListCases(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": nonNil(cases)})
}

func (h *httpHandler) handleAPICreateCase(c *gin.Context) {
	var request caseCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": apiErrorInvalidRequest})
		return
	}
	ctx := actorScope(c).Context(c.Request.Context())
	created, err := h.records.CreateCase(ctx, records.CaseFields{
		CaseID:     request.CaseID,
		ClientName: request.ClientName,
		CaseType:   request.CaseType,
		Status:     request.Status,
		Progress:   request.Progress,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"cases": nonNil(created)})
}

func (h *httpHandler) handleAPIUpdateCase(c *gin.Context) {
	var request caseUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": apiErrorInvalidRequest})
		return
	}
	ctx := actorScope(c).Context(c.Request.Context())
	updated, err := h.records.UpdateCase(ctx, c.Param("id"), records.CaseUpdate{
		ClientName: request.ClientName,
		CaseType:   request.CaseType,
		Status:     request.Status,
		Progress:   request.Progress,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if len(updated) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": apiErrorNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": updated})
}

func (h *httpHandler) handleAPIListAllPosts(c *gin.Context) {
	ctx := actorScope(c).Context(c.Request.Context())
	posts, err := h.records.ListBlogPosts(ctx, false)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": nonNil(posts)})
}

func (h *httpHandler) handleAPICreatePost(c *gin.Context) {
	var request postCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": apiErrorInvalidRequest})
		return
	}
	ctx := actorScope(c).Context(c.Request.Context())
	created, err := h.records.CreateBlogPost(ctx, records.BlogPostFields{
		Title:         request.Title,
		Excerpt:       request.Excerpt,
		Content:       request.Content,
		IsPublished:   request.IsPublished,
		PublishedDate: request.PublishedDate,
		Author:        request.Author,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"posts": nonNil(created)})
}

func (h *httpHandler) handleAPIUpdatePost(c *gin.Context) {
	var request postUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": apiErrorInvalidRequest})
		return
	}
	ctx := actorScope(c).Context(c.Request.Context())
	updated, err := h.records.UpdateBlogPost(ctx, c.Param("id"), records.BlogPostUpdate{
		Title:       request.Title,
		Excerpt:     request.Excerpt,
		Content:     request.Content,
		IsPublished: request.IsPublished,
		Author:      request.Author,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if len(updated) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": apiErrorNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": updated})
}

func (h *httpHandler) handleAPIDeletePost(c *gin.Context) {
	ctx := actorScope(c).Context(c.Request.Context())
	deleted, err := h.records.DeleteBlogPost(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": apiErrorNotFound})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleAPIListInquiries(c *gin.Context) {
	ctx := actorScope(c).Context(c.Request.Context())
	inquiries, err := h.records.ListContactInquiries(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inquiries": nonNil(inquiries)})
}

func (h *httpHandler) handleAPIInquiryStatus(c *gin.Context) {
	var request statusUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": apiErrorInvalidRequest})
		return
	}
	ctx := actorScope(c).Context(c.Request.Context())
	updated, err := h.records.UpdateInquiryStatus(ctx, c.Param("id"), request.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if len(updated) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": apiErrorNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"inquiries": updated})
}

func (h *httpHandler) handleAPIListTrademarks(c *gin.Context) {
	ctx := actorScope(c).Context(c.Request.Context())
	applications, err := h.records.ListTrademarkApplications(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trademarks": nonNil(applications)})
}

func (h *httpHandler) handleAPITrademarkStatus(c *gin.Context) {
	var request statusUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": apiErrorInvalidRequest})
		return
	}
	actor := actorScope(c)
	updated, err := h.records.UpdateTrademarkStatus(actor.Context(c.Request.Context()), c.Param("id"), request.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if len(updated) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": apiErrorNotFound})
		return
	}
	h.logger.Info("trademark status changed",
		zap.String("application_id", updated[0].ID),
		zap.String("status", updated[0].Status),
		zap.String("actor_id", actor.ID))
	c.JSON(http.StatusOK, gin.H{"trademarks": updated})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
