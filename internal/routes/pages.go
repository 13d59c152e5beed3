package routes

// Meta is the static document metadata attached to a page.
type Meta struct {
	Title       string
	Description string
}

// Page binds a route to its metadata.
type Page struct {
	Path string
	Meta Meta
}

var portalPages = []Page{
	{Languages, Meta{
		Title:       "Languages - Healthcare Professional Registration",
		Description: "Select languages you speak",
	}},
	{MyShifts, Meta{
		Title:       "My Shifts - Healthcare Professional Portal",
		Description: "View and manage your pharmacy shifts",
	}},
	{BankAccount, Meta{
		Title:       "Bank Account - Profile",
		Description: "Manage your bank account information",
	}},
	{Profile, Meta{
		Title:       "Profile - Healthcare Professional Portal",
		Description: "View and manage your healthcare professional profile",
	}},
	{Settings, Meta{
		Title:       "Account Settings - Healthcare Professional Portal",
		Description: "Manage your account settings and preferences",
	}},
	{Software, Meta{
		Title:       "Software - Healthcare Professional Registration",
		Description: "Select software you are experienced with",
	}},
}

var otherPages = []Page{
	{Login, Meta{Title: "Sign In - Healthcare Professional Portal", Description: "Sign in to your healthcare professional account"}},
	{LoginTwoFactor, Meta{Title: "Two-Factor Verification - Healthcare Professional Portal", Description: "Enter the code from your authenticator app"}},
	{Register, Meta{Title: "Create Account - Healthcare Professional Registration", Description: "Register as a healthcare professional"}},
	{ForgotPassword, Meta{Title: "Forgot Password - Healthcare Professional Portal", Description: "Request a password reset link"}},
	{ResetPassword, Meta{Title: "Reset Password - Healthcare Professional Portal", Description: "Choose a new password"}},
	{Admin, Meta{Title: "Administration - Healthcare Professional Portal", Description: "Portal administration"}},
}

var metaByPath = func() map[string]Meta {
	m := make(map[string]Meta, len(portalPages)+len(otherPages))
	for _, p := range portalPages {
		m[p.Path] = p.Meta
	}
	for _, p := range otherPages {
		m[p.Path] = p.Meta
	}
	return m
}()

// Pages returns the portal pages in navigation order. The slice is a copy.
func Pages() []Page {
	out := make([]Page, len(portalPages))
	copy(out, portalPages)
	return out
}

// MetaFor returns the metadata registered for path.
func MetaFor(path string) (Meta, bool) {
	m, ok := metaByPath[path]
	return m, ok
}

// MustMeta is MetaFor for paths known at compile time.
func MustMeta(path string) Meta {
	m, ok := MetaFor(path)
	if !ok {
		panic("routes: no metadata registered for " + path)
	}
	return m
}
