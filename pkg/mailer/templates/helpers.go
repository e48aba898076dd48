package templates

// Branding is the sender identity shown in every email.
type Branding struct {
	AppName     string
	CompanyName string
	LogoURL     string
	SupportURL  string
}

func newData(b Branding, typ, name, email string) EmailData {
	return EmailData{
		Name:        name,
		Email:       email,
		Type:        typ,
		AppName:     b.AppName,
		CompanyName: b.CompanyName,
		LogoURL:     b.LogoURL,
		SupportURL:  b.SupportURL,
	}
}

func NewWelcomeData(b Branding, name, email string) map[string]any {
	return ToMap(newData(b, Welcome, name, email))
}

func NewCancellationData(b Branding, name, email string) map[string]any {
	return ToMap(newData(b, Cancellation, name, email))
}
