package site

// Highlight is one card of the home page.
type Highlight struct {
	Title       string
	Description string
}

// Highlights lists the home page cards.
var Highlights = []Highlight{
	{Title: "Expert Legal Counsel", Description: "Expertise in various legal domains"},
	{Title: "Fair Representation", Description: "Committed to justice and ethical practice"},
	{Title: "Document Management", Description: "Comprehensive case documentation and tracking"},
}

// PracticeArea is one card of the services page.
type PracticeArea struct {
	Title    string
	Services []string
}

// PracticeAreas lists the services page cards.
var PracticeAreas = []PracticeArea{
	{Title: "Civil Litigation", Services: []string{"Property Disputes", "Contract Disputes", "Recovery Suits"}},
	{Title: "Criminal Defense", Services: []string{"Bail Applications", "Trial Defense", "Appeals"}},
	{Title: "Corporate Law", Services: []string{"Company Registration", "Compliance", "M&A"}},
	{Title: "Intellectual Property", Services: []string{"Trademark Registration", "Copyright Protection"}},
}

// Office holds the contact details shown on the contact page.
type Office struct {
	Address string
	Phone   string
	Email   string
}

// DefaultOffice is the practice's office.
var DefaultOffice = Office{
	Address: "Delhi High Court, New Delhi",
	Phone:   "+91 98765 43210",
	Email:   "contact@advprincegupta.in",
}
