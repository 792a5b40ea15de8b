// Package site holds the public site's page state, forms and submission
// outcomes, independent of how they are rendered.
package site

// Page names a public page.
type Page string

const (
	PageHome         Page = "home"
	PageAbout        Page = "about"
	PageServices     Page = "services"
	PageBlog         Page = "blog"
	PageCaseTracking Page = "caseTracking"
	PageTrademark    Page = "trademark"
	PageContact      Page = "contact"
)

// NavItem is one entry of the navigation bar.
type NavItem struct {
	Page  Page
	Label string
	Path  string
}

// NavItems lists the navigation bar in display order.
var NavItems = []NavItem{
	{Page: PageHome, Label: "Home", Path: "/"},
	{Page: PageAbout, Label: "About", Path: "/about"},
	{Page: PageServices, Label: "Services", Path: "/services"},
	{Page: PageBlog, Label: "Blog", Path: "/blog"},
	{Page: PageCaseTracking, Label: "Track Case", Path: "/track"},
	{Page: PageTrademark, Label: "Trademark", Path: "/trademark"},
	{Page: PageContact, Label: "Contact", Path: "/contact"},
}

// ParsePage maps a page name to a Page, falling back to home.
func ParsePage(name string) Page {
	for _, item := range NavItems {
		if string(item.Page) == name {
			return item.Page
		}
	}
	return PageHome
}

// Path returns the route serving the page.
func (p Page) Path() string {
	for _, item := range NavItems {
		if item.Page == p {
			return item.Path
		}
	}
	return "/"
}

// Navigation is the page-level view state.
type Navigation struct {
	Page     Page
	MenuOpen bool
	ScrollY  int
}

// Navigate moves to page from any state: scroll returns to the top and the
// mobile menu closes.
func Navigate(page Page) Navigation {
	return Navigation{Page: ParsePage(string(page))}
}

// ToggleMenu opens or closes the mobile menu without changing the page.
func (n Navigation) ToggleMenu() Navigation {
	n.MenuOpen = !n.MenuOpen
	return n
}

// Items returns the navigation bar with the active entry marked.
func (n Navigation) Items() []ActiveNavItem {
	items := make([]ActiveNavItem, 0, len(NavItems))
	for _, item := range NavItems {
		items = append(items, ActiveNavItem{NavItem: item, Active: item.Page == n.Page})
	}
	return items
}

// ActiveNavItem is a NavItem with its selection state.
type ActiveNavItem struct {
	NavItem
	Active bool
}
