package model

// AppSettings holds server-wide mail configuration. It is stored encrypted.
type AppSettings struct {
	SMTPHost        string `json:"smtpHost"`
	SMTPPort        int    `json:"smtpPort"`
	SMTPUser        string `json:"smtpUser"`
	SMTPPass        string `json:"smtpPass"`
	SMTPFromAddress string `json:"smtpFromAddress"`
	SMTPFromName    string `json:"smtpFromName"`
}

// SMTPEnabled reports whether the server can send mail at all. Users cannot
// turn on email notifications while this is false.
func (s *AppSettings) SMTPEnabled() bool {
	return s != nil && s.SMTPHost != "" && s.SMTPFromAddress != ""
}

// Masked returns a copy safe to hand back to the browser.
func (s AppSettings) Masked() AppSettings {
	s.SMTPPass = ""
	return s
}
