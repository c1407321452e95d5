// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"html/template"
	"strconv"
)

// OTPCodeEmailData contains the data for a one-time code email.
// The same template serves login verification and password reset; the
// Purpose field selects the wording.
type OTPCodeEmailData struct {
	AppName   string
	Code      string
	Purpose   string // "login" or "password_reset"
	ExpiryMin int
	ResetURL  string // password reset link, set for password_reset only
}

// OTPCodeEmail generates both plain text and HTML versions of a one-time code email.
func OTPCodeEmail(data OTPCodeEmailData) (textBody, htmlBody string) {
	action := "log in to"
	if data.Purpose == "password_reset" {
		action = "reset the password for"
	}

	// Plain text version
	textBody = "Use this code to " + action + " your " + data.AppName + " account:\n\n" +
		data.Code + "\n\n"
	if data.ResetURL != "" {
		textBody += "Or reset your password directly using this link:\n" +
			data.ResetURL + "\n\n"
	}
	textBody += "This code will expire in " + strconv.Itoa(data.ExpiryMin) + " minutes.\n\n" +
		"If you did not request this, you can safely ignore this email."

	// HTML version
	var buf bytes.Buffer
	otpCodeHTMLTmpl.Execute(&buf, struct {
		OTPCodeEmailData
		Action string
	}{data, action})
	htmlBody = buf.String()

	return textBody, htmlBody
}

// PasswordChangedEmailData contains the data for a password changed confirmation email.
type PasswordChangedEmailData struct {
	AppName  string
	LoginURL string
}

// PasswordChangedEmail generates both plain text and HTML versions of a password changed confirmation email.
func PasswordChangedEmail(data PasswordChangedEmailData) (textBody, htmlBody string) {
	// Plain text version
	textBody = "Your " + data.AppName + " password has been changed.\n\n" +
		"If you made this change, you can safely ignore this email.\n\n" +
		"If you did NOT make this change, your account may have been compromised. " +
		"Please reset your password immediately by visiting:\n" + data.LoginURL

	// HTML version
	var buf bytes.Buffer
	passwordChangedHTMLTmpl.Execute(&buf, data)
	htmlBody = buf.String()

	return textBody, htmlBody
}

// WelcomeEmailData contains the data for a welcome email sent to new users.
type WelcomeEmailData struct {
	AppName  string
	UserName string
	LoginURL string
}

// WelcomeEmail generates both plain text and HTML versions of a welcome email.
func WelcomeEmail(data WelcomeEmailData) (textBody, htmlBody string) {
	// Plain text version
	textBody = "Welcome to " + data.AppName + ", " + data.UserName + "!\n\n" +
		"Your account has been created.\n\n" +
		"To get started, log in at:\n" + data.LoginURL + "\n\n" +
		"If you have any questions, reply to this email."

	// HTML version
	var buf bytes.Buffer
	welcomeHTMLTmpl.Execute(&buf, data)
	htmlBody = buf.String()

	return textBody, htmlBody
}

// MembershipRenewedEmailData contains the data for a membership confirmation email.
type MembershipRenewedEmailData struct {
	AppName   string
	UserName  string
	TierName  string
	Renewed   bool   // false for a first-time start
	ExpiresOn string // formatted date the membership runs until
}

// MembershipRenewedEmail generates both plain text and HTML versions of a
// membership started/renewed confirmation.
func MembershipRenewedEmail(data MembershipRenewedEmailData) (textBody, htmlBody string) {
	verb := "started"
	if data.Renewed {
		verb = "renewed"
	}

	// Plain text version
	textBody = "Hello " + data.UserName + ",\n\n" +
		"Your " + data.AppName + " membership (" + data.TierName + ") has been " + verb + ".\n\n" +
		"Your membership is active until " + data.ExpiresOn + ".\n\n" +
		"Thank you for being part of our community."

	// HTML version
	var buf bytes.Buffer
	membershipHTMLTmpl.Execute(&buf, struct {
		MembershipRenewedEmailData
		Verb string
	}{data, verb})
	htmlBody = buf.String()

	return textBody, htmlBody
}

// EventRegistrationEmailData contains the data for an event registration confirmation.
type EventRegistrationEmailData struct {
	AppName    string
	UserName   string
	EventTitle string
	StartsAt   string // formatted date/time
	Location   string
}

// EventRegistrationEmail generates both plain text and HTML versions of an
// event registration confirmation.
func EventRegistrationEmail(data EventRegistrationEmailData) (textBody, htmlBody string) {
	// Plain text version
	textBody = "Hello " + data.UserName + ",\n\n" +
		"You are registered for " + data.EventTitle + ".\n\n" +
		"When: " + data.StartsAt + "\n"
	if data.Location != "" {
		textBody += "Where: " + data.Location + "\n"
	}
	textBody += "\nWe look forward to seeing you there."

	// HTML version
	var buf bytes.Buffer
	eventRegHTMLTmpl.Execute(&buf, data)
	htmlBody = buf.String()

	return textBody, htmlBody
}

// AccountDisabledEmailData contains the data for an account disabled notification.
type AccountDisabledEmailData struct {
	AppName      string
	UserName     string
	ContactEmail string
}

// AccountDisabledEmail generates both plain text and HTML versions of an account disabled notification.
func AccountDisabledEmail(data AccountDisabledEmailData) (textBody, htmlBody string) {
	// Plain text version
	textBody = "Hello " + data.UserName + ",\n\n" +
		"Your " + data.AppName + " account has been disabled.\n\n" +
		"If you believe this was done in error, please contact us"
	if data.ContactEmail != "" {
		textBody += " at " + data.ContactEmail
	}
	textBody += "."

	// HTML version
	var buf bytes.Buffer
	accountDisabledHTMLTmpl.Execute(&buf, data)
	htmlBody = buf.String()

	return textBody, htmlBody
}

/* ------------------------------ HTML templates ----------------------------- */

// emailShell wraps the inner content in the shared card layout. The inner
// content is provided by each template's "content" block.
const emailShellTop = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f4f4f5;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f4f4f5;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 1px 3px rgba(0,0,0,0.1);">
          <tr>
            <td style="padding: 32px 32px 24px 32px; text-align: center; border-bottom: 1px solid #e4e4e7;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #18181b;">{{.AppName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
`

const emailShellBottom = `
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

var otpCodeHTMLTmpl = template.Must(template.New("otp_code").Parse(emailShellTop + `
              <h2 style="margin: 0 0 16px 0; font-size: 20px; font-weight: 600; color: #18181b;">Your Verification Code</h2>
              <p style="margin: 0 0 24px 0; font-size: 15px; line-height: 1.6; color: #52525b;">
                Use this code to {{.Action}} your account:
              </p>
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center" style="padding: 8px 0 24px 0;">
                    <span style="display: inline-block; padding: 14px 32px; background-color: #f4f4f5; color: #18181b; font-size: 28px; font-weight: 700; letter-spacing: 6px; border-radius: 6px;">{{.Code}}</span>
                  </td>
                </tr>
              </table>
              {{if .ResetURL}}
              <p style="margin: 0 0 24px 0; font-size: 14px; line-height: 1.6; color: #52525b;">
                Or reset your password directly:<br>
                <a href="{{.ResetURL}}" style="color: #4f46e5;">{{.ResetURL}}</a>
              </p>
              {{end}}
              <p style="margin: 0 0 16px 0; font-size: 14px; line-height: 1.6; color: #71717a;">
                This code will expire in <strong>{{.ExpiryMin}} minutes</strong>.
              </p>
              <p style="margin: 0; font-size: 14px; line-height: 1.6; color: #71717a;">
                If you didn't request this code, you can safely ignore this email.
              </p>
` + emailShellBottom))

var passwordChangedHTMLTmpl = template.Must(template.New("password_changed").Parse(emailShellTop + `
              <h2 style="margin: 0 0 16px 0; font-size: 20px; font-weight: 600; color: #18181b;">Password Changed</h2>
              <p style="margin: 0 0 24px 0; font-size: 15px; line-height: 1.6; color: #52525b;">
                Your password has been changed. If you made this change, no further action is needed.
              </p>
              <p style="margin: 0; font-size: 14px; line-height: 1.6; color: #71717a;">
                If you did NOT make this change, please reset your password immediately at
                <a href="{{.LoginURL}}" style="color: #4f46e5;">{{.LoginURL}}</a>.
              </p>
` + emailShellBottom))

var welcomeHTMLTmpl = template.Must(template.New("welcome").Parse(emailShellTop + `
              <h2 style="margin: 0 0 16px 0; font-size: 20px; font-weight: 600; color: #18181b;">Welcome, {{.UserName}}!</h2>
              <p style="margin: 0 0 24px 0; font-size: 15px; line-height: 1.6; color: #52525b;">
                Your account has been created. We're glad you're here.
              </p>
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center" style="padding: 8px 0 24px 0;">
                    <a href="{{.LoginURL}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 15px; font-weight: 600; border-radius: 6px;">Log In</a>
                  </td>
                </tr>
              </table>
` + emailShellBottom))

var membershipHTMLTmpl = template.Must(template.New("membership").Parse(emailShellTop + `
              <h2 style="margin: 0 0 16px 0; font-size: 20px; font-weight: 600; color: #18181b;">Membership {{if .Renewed}}Renewed{{else}}Started{{end}}</h2>
              <p style="margin: 0 0 24px 0; font-size: 15px; line-height: 1.6; color: #52525b;">
                Hello {{.UserName}}, your <strong>{{.TierName}}</strong> membership has been {{.Verb}}.
              </p>
              <p style="margin: 0; font-size: 14px; line-height: 1.6; color: #71717a;">
                Your membership is active until <strong>{{.ExpiresOn}}</strong>. Thank you for being part of our community.
              </p>
` + emailShellBottom))

var eventRegHTMLTmpl = template.Must(template.New("event_registration").Parse(emailShellTop + `
              <h2 style="margin: 0 0 16px 0; font-size: 20px; font-weight: 600; color: #18181b;">You're Registered</h2>
              <p style="margin: 0 0 24px 0; font-size: 15px; line-height: 1.6; color: #52525b;">
                Hello {{.UserName}}, you are registered for <strong>{{.EventTitle}}</strong>.
              </p>
              <p style="margin: 0 0 8px 0; font-size: 14px; line-height: 1.6; color: #71717a;">
                <strong>When:</strong> {{.StartsAt}}
              </p>
              {{if .Location}}
              <p style="margin: 0; font-size: 14px; line-height: 1.6; color: #71717a;">
                <strong>Where:</strong> {{.Location}}
              </p>
              {{end}}
` + emailShellBottom))

var accountDisabledHTMLTmpl = template.Must(template.New("account_disabled").Parse(emailShellTop + `
              <h2 style="margin: 0 0 16px 0; font-size: 20px; font-weight: 600; color: #18181b;">Account Disabled</h2>
              <p style="margin: 0 0 24px 0; font-size: 15px; line-height: 1.6; color: #52525b;">
                Hello {{.UserName}}, your account has been disabled.
              </p>
              <p style="margin: 0; font-size: 14px; line-height: 1.6; color: #71717a;">
                If you believe this was done in error, please contact us{{if .ContactEmail}} at <a href="mailto:{{.ContactEmail}}" style="color: #4f46e5;">{{.ContactEmail}}</a>{{end}}.
              </p>
` + emailShellBottom))
