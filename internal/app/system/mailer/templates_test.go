package mailer

import (
	"strings"
	"testing"
)

func TestOTPCodeEmailLogin(t *testing.T) {
	text, html := OTPCodeEmail(OTPCodeEmailData{
		AppName:   "Wellspring",
		Code:      "123456",
		Purpose:   "login",
		ExpiryMin: 10,
	})

	if !strings.Contains(text, "123456") {
		t.Errorf("text body missing code: %q", text)
	}
	if !strings.Contains(html, "123456") {
		t.Error("html body missing code")
	}
	if strings.Contains(text, "reset-password") || strings.Contains(html, "reset-password") {
		t.Error("login code email should not carry a reset link")
	}
}

func TestOTPCodeEmailResetCarriesLink(t *testing.T) {
	resetURL := "http://localhost:8080/reset-password?token=tok-abc123"
	text, html := OTPCodeEmail(OTPCodeEmailData{
		AppName:   "Wellspring",
		Code:      "654321",
		Purpose:   "password_reset",
		ExpiryMin: 15,
		ResetURL:  resetURL,
	})

	if !strings.Contains(text, "654321") {
		t.Errorf("text body missing code: %q", text)
	}
	if !strings.Contains(text, resetURL) {
		t.Errorf("text body missing reset link: %q", text)
	}
	if !strings.Contains(html, `href="`+resetURL+`"`) {
		t.Error("html body missing clickable reset link")
	}
}
