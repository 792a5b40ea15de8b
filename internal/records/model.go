package records

import (
	"strings"
	"time"
)

// Status labels used by the console and the public forms.
const (
	InquiryStatusNew          = "New"
	TrademarkStatusPending    = "Pending"
	CaseStatusPending         = "Pending"
	CaseStatusInProgress      = "In Progress"
	CaseStatusUnderReview     = "Under Review"
	CaseStatusCompleted       = "Completed"
	CaseStatusOnHold          = "On Hold"
	DefaultInquiryServiceType = "general"
)

// CaseStatuses lists the labels offered by the case editor, in display order.
var CaseStatuses = []string{
	CaseStatusPending,
	CaseStatusInProgress,
	CaseStatusUnderReview,
	CaseStatusCompleted,
	CaseStatusOnHold,
}

// InquiryStatuses lists the labels an operator can give an inquiry.
var InquiryStatuses = []string{InquiryStatusNew, "Contacted", "Closed"}

// TrademarkStatuses lists the labels an operator can give an application.
var TrademarkStatuses = []string{TrademarkStatusPending, "Filed", "Registered", "Rejected"}

// Case is a client matter tracked by an operator-assigned tracking code.
type Case struct {
	ID         string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	CaseID     string    `gorm:"column:case_id;size:64;not null;uniqueIndex" json:"case_id"`
	ClientName string    `gorm:"column:client_name;size:255;not null" json:"client_name"`
	CaseType   string    `gorm:"column:case_type;size:64" json:"case_type"`
	Status     string    `gorm:"column:status;size:64;not null" json:"status"`
	Progress   int       `gorm:"column:progress;not null;default:0" json:"progress"`
	LastUpdate time.Time `gorm:"column:last_update;not null" json:"last_update"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;index" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Case) TableName() string {
	return "cases"
}

// BlogPost is an article shown on the public blog once published.
type BlogPost struct {
	ID            string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	Title         string    `gorm:"column:title;size:255;not null" json:"title"`
	Excerpt       string    `gorm:"column:excerpt;type:text" json:"excerpt"`
	Content       string    `gorm:"column:content;type:text" json:"content"`
	IsPublished   bool      `gorm:"column:is_published;not null;default:false;index" json:"is_published"`
	PublishedDate time.Time `gorm:"column:published_date;not null;index" json:"published_date"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
	Author        string    `gorm:"column:author;size:255" json:"author"`
}

// TableName provides the explicit table binding for GORM.
func (BlogPost) TableName() string {
	return "blog_posts"
}

// ContactInquiry is a visitor message submitted through the contact form.
type ContactInquiry struct {
	ID        string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	Name      string    `gorm:"column:name;size:255;not null" json:"name"`
	Email     string    `gorm:"column:email;size:320;not null" json:"email"`
	Phone     string    `gorm:"column:phone;size:64" json:"phone"`
	Service   string    `gorm:"column:service;size:64" json:"service"`
	Message   string    `gorm:"column:message;type:text;not null" json:"message"`
	Status    string    `gorm:"column:status;size:64;not null" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (ContactInquiry) TableName() string {
	return "contact_inquiries"
}

// TrademarkApplication is a brand registration request from the public site.
type TrademarkApplication struct {
	ID          string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	CompanyName string    `gorm:"column:company_name;size:255;not null" json:"company_name"`
	BrandName   string    `gorm:"column:brand_name;size:255;not null" json:"brand_name"`
	Category    string    `gorm:"column:category;size:64" json:"category"`
	Email       string    `gorm:"column:email;size:320;not null" json:"email"`
	Phone       string    `gorm:"column:phone;size:64" json:"phone"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Status      string    `gorm:"column:status;size:64;not null" json:"status"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName provides the explicit table binding for GORM.
func (TrademarkApplication) TableName() string {
	return "trademark_applications"
}

// DashboardStats aggregates the row counts shown on the console dashboard.
type DashboardStats struct {
	TotalCases      int64 `json:"totalCases"`
	TotalInquiries  int64 `json:"totalInquiries"`
	TotalTrademarks int64 `json:"totalTrademarks"`
	TotalBlogs      int64 `json:"totalBlogs"`
}

// CaseFields are the writable columns of a new case.
type CaseFields struct {
	CaseID     string
	ClientName string
	CaseType   string
	Status     string
	Progress   int
}

// CaseUpdate carries the columns to change; nil fields are left untouched.
type CaseUpdate struct {
	ClientName *string
	CaseType   *string
	Status     *string
	Progress   *int
}

// BlogPostFields are the writable columns of a new blog post.
type BlogPostFields struct {
	Title         string
	Excerpt       string
	Content       string
	IsPublished   bool
	PublishedDate time.Time
	Author        string
}

// BlogPostUpdate carries the columns to change; nil fields are left untouched.
type BlogPostUpdate struct {
	Title       *string
	Excerpt     *string
	Content     *string
	IsPublished *bool
	Author      *string
}

// ContactInquiryFields are the writable columns of a new inquiry.
type ContactInquiryFields struct {
	Name    string
	Email   string
	Phone   string
	Service string
	Message string
}

// TrademarkApplicationFields are the writable columns of a new application.
type TrademarkApplicationFields struct {
	CompanyName string
	BrandName   string
	Category    string
	Email       string
	Phone       string
	Description string
}

// NormalizeTrackingCode returns the stored form of a tracking code.
func NormalizeTrackingCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func clampProgress(progress int) int {
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}
