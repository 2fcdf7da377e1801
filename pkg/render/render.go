package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// DefaultButtonLabel is used for call-to-action buttons when the caller
// does not supply a label of their own.
const DefaultButtonLabel = "Click here"

// urlRegex recognizes http://, https:// and bare www. tokens in message text.
var urlRegex = regexp.MustCompile(`(?:https?://|www\.)[^\s<>"]+`)

// Params carries the renderable parts of a notification.
type Params struct {
	Subject    string
	Message    string
	ButtonText string
}

// Button is a call-to-action control extracted from the message text.
type Button struct {
	Label string
	URL   string
}

// Email is the rendered output: a plain-text body, a self-contained HTML
// document and the buttons that were extracted from the message.
type Email struct {
	Text    string
	HTML    string
	Buttons []Button
}

// Render produces the plain-text and HTML representations of a message.
//
// Every URL-like token in the message is removed from the displayed text and
// rendered as a styled button instead. The first button uses ButtonText when
// provided, any further buttons get a numbered default label. The function is
// pure: the same input always yields byte-identical output.
func Render(p Params) Email {
	urls := urlRegex.FindAllString(p.Message, -1)

	buttons := make([]Button, 0, len(urls))
	for i, raw := range urls {
		href := raw
		if strings.HasPrefix(raw, "www.") {
			href = "https://" + raw
		}

		label := DefaultButtonLabel
		switch {
		case i == 0 && p.ButtonText != "":
			label = p.ButtonText
		case i > 0:
			label = fmt.Sprintf("%s (%d)", DefaultButtonLabel, i+1)
		}

		buttons = append(buttons, Button{Label: label, URL: href})
	}

	stripped := urlRegex.ReplaceAllString(p.Message, "")

	var paragraphs []string
	for _, line := range strings.Split(stripped, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		paragraphs = append(paragraphs, line)
	}

	return Email{
		Text:    p.Message,
		HTML:    buildDocument(p.Subject, paragraphs, buttons),
		Buttons: buttons,
	}
}

// buildDocument assembles the fixed email layout: branding header, one block
// per paragraph, one block per button and a footer. Styles are inlined for
// email client compatibility.
func buildDocument(subject string, paragraphs []string, buttons []Button) string {
	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString(`<html lang="en">` + "\n<head>\n")
	sb.WriteString(`<meta charset="utf-8">` + "\n")
	sb.WriteString("<title>")
	sb.WriteString(html.EscapeString(subject))
	sb.WriteString("</title>\n</head>\n")
	sb.WriteString(`<body style="margin:0;padding:0;background-color:#f4f4f7;font-family:Helvetica,Arial,sans-serif;">` + "\n")
	sb.WriteString(`<table role="presentation" width="100%" cellpadding="0" cellspacing="0"><tr><td align="center">` + "\n")
	sb.WriteString(`<table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background-color:#ffffff;margin:24px 0;border-radius:8px;overflow:hidden;">` + "\n")

	sb.WriteString(`<tr><td style="background-color:#1a2b4c;padding:24px 40px;">`)
	sb.WriteString(`<span style="color:#ffffff;font-size:20px;font-weight:bold;">`)
	sb.WriteString(html.EscapeString(subject))
	sb.WriteString("</span></td></tr>\n")

	sb.WriteString(`<tr><td style="padding:32px 40px;">` + "\n")
	for _, p := range paragraphs {
		sb.WriteString(`<p style="margin:0 0 16px 0;color:#333333;font-size:15px;line-height:1.6;">`)
		sb.WriteString(html.EscapeString(p))
		sb.WriteString("</p>\n")
	}
	for _, b := range buttons {
		sb.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" style="margin:24px 0;"><tr><td style="background-color:#2f6fed;border-radius:6px;">`)
		sb.WriteString(`<a href="`)
		sb.WriteString(html.EscapeString(b.URL))
		sb.WriteString(`" style="display:inline-block;padding:12px 28px;color:#ffffff;font-size:15px;font-weight:bold;text-decoration:none;">`)
		sb.WriteString(html.EscapeString(b.Label))
		sb.WriteString("</a></td></tr></table>\n")
	}
	sb.WriteString("</td></tr>\n")

	sb.WriteString(`<tr><td style="padding:24px 40px;border-top:1px solid #eeeeee;">`)
	sb.WriteString(`<p style="margin:0;color:#999999;font-size:12px;">This is an automated notification. Please do not reply to this email.</p>`)
	sb.WriteString("</td></tr>\n")

	sb.WriteString("</table>\n</td></tr></table>\n</body>\n</html>\n")

	return sb.String()
}
