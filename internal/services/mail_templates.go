package services

import (
	"fmt"
	"html"
	"time"
)

const (
	verificationSubject  = "userAuth - Email Verification"
	passwordResetSubject = "Password Reset"
)

func otpTemplate(code string, window time.Duration) string {
	return fmt.Sprintf(`
		<p>Your OTP for password reset is <strong>%s</strong> and it's valid for %d minutes.</p>
	`, html.EscapeString(code), int(window/time.Minute))
}

func emailVerificationTemplate(link string) string {
	return fmt.Sprintf(`
		<p>Please verify your account. Click <a href="%s" target="_blank">here</a>.</p>
	`, html.EscapeString(link))
}
