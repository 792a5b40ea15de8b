package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/admin"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/auth"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/records"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	consolePath             = "/admin"
	noticeInvalidLogin      = "Invalid email or password."
	noticeSignInUnavailable = "Sign-in is not available right now."
	noticeSignInFailed      = "Sign-in failed. Please try again."
	noticeSignedOut         = "You have been signed out."
)

type loginView struct {
	SiteName   string
	Email      string
	Notice     string
	NoticeKind string
	Disabled   bool
}

type consoleView struct {
	admin.View
	SiteName          string
	OperatorEmail     string
	Tabs              []admin.TabItem
	CaseStatuses      []string
	InquiryStatuses   []string
	TrademarkStatuses []string
	NewBlogSentinel   string
}

type loginForm struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type caseSaveForm struct {
	Progress int    `form:"progress"`
	Status   string `form:"status" binding:"required"`
}

type statusForm struct {
	ID     string `form:"id" binding:"required"`
	Status string `form:"status" binding:"required"`
}

func (h *httpHandler) handleConsole(c *gin.Context) {
	actor := h.sessions.Actor(c.Request)
	if actor == nil {
		h.renderLogin(c, http.StatusOK, loginView{})
		return
	}
	console := h.consoleFor(c, actor)
	c.HTML(http.StatusOK, "console", consoleView{
		View:              console.View(),
		SiteName:          h.siteName,
		OperatorEmail:     actor.Email,
		Tabs:              admin.Tabs,
		CaseStatuses:      records.CaseStatuses,
		InquiryStatuses:   records.InquiryStatuses,
		TrademarkStatuses: records.TrademarkStatuses,
		NewBlogSentinel:   admin.NewBlogSentinel,
	})
}

func (h *httpHandler) renderLogin(c *gin.Context, status int, view loginView) {
	view.SiteName = h.siteName
	view.Disabled = h.sessions.Gate().Degraded()
	if view.Disabled && view.Notice == "" {
		view.Notice = noticeSignInUnavailable
		view.NoticeKind = noticeKindError
	}
	c.HTML(status, "login", view)
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderLogin(c, http.StatusBadRequest, loginView{
			Email:      form.Email,
			Notice:     noticeInvalidLogin,
			NoticeKind: noticeKindError,
		})
		return
	}
	session, err := h.sessions.SignIn(c.Request.Context(), c.Writer, form.Email, form.Password)
	switch {
	case errors.Is(err, store.ErrInvalidCredentials):
		h.renderLogin(c, http.StatusUnauthorized, loginView{
			Email:      form.Email,
			Notice:     noticeInvalidLogin,
			NoticeKind: noticeKindError,
		})
		return
	case err != nil:
		h.renderLogin(c, http.StatusBadGateway, loginView{
			Email:      form.Email,
			Notice:     noticeSignInFailed,
			NoticeKind: noticeKindError,
		})
		return
	case session.Token == "":
		h.renderLogin(c, http.StatusServiceUnavailable, loginView{Email: form.Email})
		return
	}
	h.consoleFor(c, &session.Actor)
	c.Redirect(http.StatusSeeOther, consolePath)
}

func (h *httpHandler) handleLogout(c *gin.Context) {
	if actor := h.sessions.Actor(c.Request); actor != nil {
		h.consoles.Drop(actor.SessionID)
		h.intake.DropSession(actor.SessionID)
	}
	if err := h.sessions.SignOut(c.Writer, c.Request); err != nil {
		h.logger.Warn("sign-out revocation failed", zap.Error(err))
	}
	h.renderLogin(c, http.StatusOK, loginView{Notice: noticeSignedOut, NoticeKind: noticeKindSuccess})
}

// requireOperator resolves the signed-in operator and their console, or
// sends the browser back to the login form.
func (h *httpHandler) requireOperator(c *gin.Context) {
	actor := h.sessions.Actor(c.Request)
	if actor == nil {
		c.Redirect(http.StatusSeeOther, consolePath)
		c.Abort()
		return
	}
	c.Set(actorContextKey, actor)
	c.Set(consoleContextKey, h.consoleFor(c, actor))
	c.Next()
}

func (h *httpHandler) consoleFor(c *gin.Context, actor *auth.Actor) *admin.Console {
	console, created := h.consoles.Console(actor.SessionID)
	if created {
		_ = console.ActivateTab(actor.Context(c.Request.Context()), admin.TabDashboard)
	}
	return console
}

// operatorScope returns what requireOperator bound to the request.
func operatorScope(c *gin.Context) (*admin.Console, *auth.Actor) {
	console, _ := c.MustGet(consoleContextKey).(*admin.Console)
	actor, _ := c.MustGet(actorContextKey).(*auth.Actor)
	return console, actor
}

func backToConsole(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, consolePath)
}

func (h *httpHandler) handleTab(c *gin.Context) {
	console, actor := operatorScope(c)
	tab, ok := admin.ParseTab(c.Param("tab"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	_ = console.ActivateTab(actor.Context(c.Request.Context()), tab)
	backToConsole(c)
}

func (h *httpHandler) handleSearch(c *gin.Context) {
	console, _ := operatorScope(c)
	console.SetSearch(c.PostForm("search"))
	backToConsole(c)
}

func (h *httpHandler) handleOpenCase(c *gin.Context) {
	console, _ := operatorScope(c)
	if !console.OpenCase(strings.TrimSpace(c.PostForm("id"))) {
		c.Status(http.StatusNotFound)
		return
	}
	backToConsole(c)
}

func (h *httpHandler) handleCloseCase(c *gin.Context) {
	console, _ := operatorScope(c)
	console.CloseCase()
	backToConsole(c)
}

func (h *httpHandler) handleSaveCase(c *gin.Context) {
	console, actor := operatorScope(c)
	var form caseSaveForm
	if err := c.ShouldBind(&form); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if err := console.SaveCase(actor.Context(c.Request.Context()), form.Progress, form.Status); err != nil {
		h.logger.Warn("case save failed", zap.String("session_id", actor.SessionID), zap.Error(err))
	}
	backToConsole(c)
}

func (h *httpHandler) handleNewBlog(c *gin.Context) {
	console, _ := operatorScope(c)
	console.NewBlog()
	backToConsole(c)
}

func (h *httpHandler) handleEditBlog(c *gin.Context) {
	console, _ := operatorScope(c)
	if !console.EditBlog(strings.TrimSpace(c.PostForm("id"))) {
		c.Status(http.StatusNotFound)
		return
	}
	backToConsole(c)
}

func (h *httpHandler) handleCancelBlog(c *gin.Context) {
	console, _ := operatorScope(c)
	console.CancelBlog()
	backToConsole(c)
}

func (h *httpHandler) handleSaveBlog(c *gin.Context) {
	console, actor := operatorScope(c)
	var draft admin.BlogDraft
	if err := c.ShouldBind(&draft); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if err := console.SaveBlog(actor.Context(c.Request.Context()), draft); err != nil {
		h.logger.Warn("blog save failed", zap.String("session_id", actor.SessionID), zap.Error(err))
	}
	backToConsole(c)
}

func (h *httpHandler) handleRequestDelete(c *gin.Context) {
	console, _ := operatorScope(c)
	console.RequestDelete(c.PostForm("id"))
	backToConsole(c)
}

func (h *httpHandler) handleCancelDelete(c *gin.Context) {
	console, _ := operatorScope(c)
	console.CancelDelete()
	backToConsole(c)
}

func (h *httpHandler) handleConfirmDelete(c *gin.Context) {
	console, actor := operatorScope(c)
	if err := console.ConfirmDelete(actor.Context(c.Request.Context())); err != nil && !errors.Is(err, admin.ErrNoSelection) {
		h.logger.Warn("blog delete failed", zap.String("session_id", actor.SessionID), zap.Error(err))
	}
	backToConsole(c)
}

func (h *httpHandler) handleInquiryStatus(c *gin.Context) {
	console, actor := operatorScope(c)
	var form statusForm
	if err := c.ShouldBind(&form); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if err := console.SetInquiryStatus(actor.Context(c.Request.Context()), form.ID, form.Status); err != nil {
		h.logger.Warn("inquiry status update failed", zap.String("inquiry_id", form.ID), zap.Error(err))
	}
	backToConsole(c)
}

func (h *httpHandler) handleTrademarkStatus(c *gin.Context) {
	console, actor := operatorScope(c)
	var form statusForm
	if err := c.ShouldBind(&form); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if err := console.SetTrademarkStatus(actor.Context(c.Request.Context()), form.ID, form.Status); err != nil {
		h.logger.Warn("trademark status update failed", zap.String("application_id", form.ID), zap.Error(err))
	}
	backToConsole(c)
}

func (h *httpHandler) handleIntakeStream(c *gin.Context) {
	actor, _ := c.MustGet(actorContextKey).(*auth.Actor)
	ctx := c.Request.Context()
	stream, cleanup := h.intake.Subscribe(ctx, actor.SessionID)
	defer cleanup()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(intakeHeartbeatEvery)
	defer heartbeat.Stop()

	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, open := <-stream:
			if !open {
				return false
			}
			c.SSEvent(intakeEventName, event)
			return true
		case tick := <-heartbeat.C:
			c.SSEvent(intakeHeartbeatName, strconv.FormatInt(tick.Unix(), 10))
			return true
		}
	})
}
