// Package server wires the public site, the admin console, the JSON API and
// the intake stream onto one gin engine.
package server

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/admin"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/auth"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/records"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/site"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	actorContextKey   = "advocate_actor"
	consoleContextKey = "advocate_console"
	displayDateLayout = "January 2, 2006"
)

var (
	errMissingRecords  = errors.New("records service dependency required")
	errMissingSite     = errors.New("site controller dependency required")
	errMissingSessions = errors.New("session context dependency required")
	errMissingConsoles = errors.New("console registry dependency required")
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Records        *records.Service
	Site           *site.Controller
	Sessions       *auth.SessionContext
	Consoles       *admin.Registry
	Intake         *IntakeDispatcher
	Logger         *zap.Logger
	AllowedOrigins []string
	SiteName       string
	SiteAuthor     string
	Clock          func() time.Time
}

// NewHTTPHandler builds the routed handler.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Records == nil {
		return nil, errMissingRecords
	}
	if deps.Site == nil {
		return nil, errMissingSite
	}
	if deps.Sessions == nil {
		return nil, errMissingSessions
	}
	if deps.Consoles == nil {
		return nil, errMissingConsoles
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	intake := deps.Intake
	if intake == nil {
		intake = NewIntakeDispatcher()
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	handler := &httpHandler{
		records:    deps.Records,
		site:       deps.Site,
		sessions:   deps.Sessions,
		consoles:   deps.Consoles,
		intake:     intake,
		logger:     logger,
		clock:      clock,
		siteName:   deps.SiteName,
		siteAuthor: deps.SiteAuthor,
	}

	router := gin.New()
	router.SetHTMLTemplate(templates)
	router.Use(gin.CustomRecovery(handler.recoverPanic))
	router.Use(handler.logRequest)

	router.GET("/healthz", handler.handleHealth)

	router.GET("/", handler.handleStaticPage(site.PageHome, "home"))
	router.GET("/about", handler.handleStaticPage(site.PageAbout, "about"))
	router.GET("/services", handler.handleStaticPage(site.PageServices, "services"))
	router.GET("/blog", handler.handleBlog)
	router.GET("/blog/:id", handler.handleBlogPost)
	router.GET("/track", handler.handleTrackForm)
	router.POST("/track", handler.handleTrackLookup)
	router.GET("/trademark", handler.handleTrademarkForm)
	router.POST("/trademark", handler.handleTrademarkSubmit)
	router.GET("/contact", handler.handleContactForm)
	router.POST("/contact", handler.handleContactSubmit)

	router.GET("/admin", handler.handleConsole)
	router.POST("/admin/login", handler.handleLogin)
	router.POST("/admin/logout", handler.handleLogout)
	router.GET("/admin/events", handler.requireOperatorAPI, handler.handleIntakeStream)

	console := router.Group("/admin")
	console.Use(handler.requireOperator)
	console.POST("/tab/:tab", handler.handleTab)
	console.POST("/search", handler.handleSearch)
	console.POST("/cases/open", handler.handleOpenCase)
	console.POST("/cases/close", handler.handleCloseCase)
	console.POST("/cases/save", handler.handleSaveCase)
	console.POST("/blogs/new", handler.handleNewBlog)
	console.POST("/blogs/edit", handler.handleEditBlog)
	console.POST("/blogs/cancel", handler.handleCancelBlog)
	console.POST("/blogs/save", handler.handleSaveBlog)
	console.POST("/blogs/delete", handler.handleRequestDelete)
	console.POST("/blogs/delete/cancel", handler.handleCancelDelete)
	console.POST("/blogs/delete/confirm", handler.handleConfirmDelete)
	console.POST("/inquiries/status", handler.handleInquiryStatus)
	console.POST("/trademarks/status", handler.handleTrademarkStatus)

	api := router.Group("/api/v1")
	api.Use(corsMiddleware(deps.AllowedOrigins))
	api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	api.GET("/blog", handler.handleAPIBlogList)
	api.GET("/blog/:id", handler.handleAPIBlogPost)
	api.GET("/cases/:code", handler.handleAPICaseLookup)
	api.POST("/inquiries", handler.handleAPIInquiry)
	api.POST("/trademarks", handler.handleAPITrademark)

	apiAdmin := api.Group("/admin")
	apiAdmin.Use(handler.requireOperatorAPI)
	apiAdmin.GET("/stats", handler.handleAPIStats)
	apiAdmin.GET("/cases", handler.handleAPIListCases)
	apiAdmin.POST("/cases", handler.handleAPICreateCase)
	apiAdmin.PATCH("/cases/:id", handler.handleAPIUpdateCase)
	apiAdmin.GET("/blog", handler.handleAPIListAllPosts)
	apiAdmin.POST("/blog", handler.handleAPICreatePost)
	apiAdmin.PATCH("/blog/:id", handler.handleAPIUpdatePost)
	apiAdmin.DELETE("/blog/:id", handler.handleAPIDeletePost)
	apiAdmin.GET("/inquiries", handler.handleAPIListInquiries)
	apiAdmin.PATCH("/inquiries/:id", handler.handleAPIInquiryStatus)
	apiAdmin.GET("/trademarks", handler.handleAPIListTrademarks)
	apiAdmin.PATCH("/trademarks/:id", handler.handleAPITrademarkStatus)

	router.NoRoute(handler.handleNotFound)

	return router, nil
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	// Credentials are only shared with origins that are named explicitly.
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowedOrigins
		config.AllowCredentials = true
	}
	return cors.New(config)
}

func parseTemplates() (*template.Template, error) {
	return template.New("site").Funcs(template.FuncMap{
		"displayDate": func(value time.Time) string {
			if value.IsZero() {
				return ""
			}
			return value.Format(displayDateLayout)
		},
	}).ParseFS(templateFS, "templates/*.tmpl")
}

type httpHandler struct {
	records    *records.Service
	site       *site.Controller
	sessions   *auth.SessionContext
	consoles   *admin.Registry
	intake     *IntakeDispatcher
	logger     *zap.Logger
	clock      func() time.Time
	siteName   string
	siteAuthor string
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"store":         storeMode(h.records.Degraded()),
		"sign_in":       storeMode(h.sessions.Gate().Degraded()),
		"consoles":      h.consoles.Len(),
		"intake_stream": h.intake.Subscribers(),
	})
}

func storeMode(degraded bool) string {
	if degraded {
		return "degraded"
	}
	return "configured"
}

func (h *httpHandler) logRequest(c *gin.Context) {
	start := h.clock()
	c.Next()
	h.logger.Debug("request served",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("elapsed", h.clock().Sub(start)))
}

func (h *httpHandler) recoverPanic(c *gin.Context, recovered any) {
	h.logger.Error("request panicked", zap.String("path", c.Request.URL.Path), zap.Any("panic", recovered))
	c.HTML(http.StatusInternalServerError, "error", h.newPageView(c, site.PageHome))
	c.Abort()
}

func (h *httpHandler) handleNotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "not_found", h.newPageView(c, site.PageHome))
}
