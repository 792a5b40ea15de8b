package site

import (
	"strings"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/records"
)

// Relay subjects, as the inbox shows them.
const (
	InquirySubject   = "Website Inquiry"
	TrademarkSubject = "New Trademark Application"
)

// ServiceOption is one choice of the inquiry service select.
type ServiceOption struct {
	Value string
	Label string
}

// InquiryServices lists the inquiry service choices.
var InquiryServices = []ServiceOption{
	{Value: records.DefaultInquiryServiceType, Label: "General Inquiry"},
	{Value: "civil", Label: "Civil Case"},
	{Value: "criminal", Label: "Criminal Case"},
}

// TrademarkCategories lists the trademark category choices.
var TrademarkCategories = []ServiceOption{
	{Value: "tech", Label: "Technology"},
	{Value: "retail", Label: "Retail"},
	{Value: "services", Label: "Services"},
}

// InquiryForm is the contact form. Honey is a hidden field that only bots fill.
type InquiryForm struct {
	Name    string `form:"name" json:"name" binding:"required"`
	Email   string `form:"email" json:"email" binding:"required"`
	Phone   string `form:"phone" json:"phone"`
	Service string `form:"service" json:"service"`
	Message string `form:"message" json:"message" binding:"required"`
	Honey   string `form:"_honey" json:"_honey"`
}

// NewInquiryForm returns the form's initial values.
func NewInquiryForm() InquiryForm {
	return InquiryForm{Service: records.DefaultInquiryServiceType}
}

func (f InquiryForm) fields() records.ContactInquiryFields {
	return records.ContactInquiryFields{
		Name:    f.Name,
		Email:   f.Email,
		Phone:   f.Phone,
		Service: f.Service,
		Message: f.Message,
	}
}

func (f InquiryForm) relayFields() map[string]string {
	return map[string]string{
		"name":    f.Name,
		"email":   f.Email,
		"phone":   f.Phone,
		"service": f.Service,
		"message": f.Message,
	}
}

// TrademarkForm is the trademark application form.
type TrademarkForm struct {
	CompanyName string `form:"company_name" json:"companyName" binding:"required"`
	BrandName   string `form:"brand_name" json:"brandName" binding:"required"`
	Category    string `form:"category" json:"category" binding:"required"`
	Email       string `form:"email" json:"email" binding:"required"`
	Phone       string `form:"phone" json:"phone" binding:"required"`
	Description string `form:"description" json:"description" binding:"required"`
	Honey       string `form:"_honey" json:"_honey"`
}

// NewTrademarkForm returns the form's initial values.
func NewTrademarkForm() TrademarkForm {
	return TrademarkForm{}
}

func (f TrademarkForm) fields() records.TrademarkApplicationFields {
	return records.TrademarkApplicationFields{
		CompanyName: f.CompanyName,
		BrandName:   f.BrandName,
		Category:    f.Category,
		Email:       f.Email,
		Phone:       f.Phone,
		Description: f.Description,
	}
}

func (f TrademarkForm) relayFields() map[string]string {
	return map[string]string{
		"company_name": f.CompanyName,
		"brand_name":   f.BrandName,
		"category":     f.Category,
		"email":        f.Email,
		"phone":        f.Phone,
		"description":  f.Description,
	}
}

func isBot(honey string) bool {
	return strings.TrimSpace(honey) != ""
}
