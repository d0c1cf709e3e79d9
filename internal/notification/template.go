package notification

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/build"
)

// Fixed text wrapped around every notification body.
const (
	Preamble   = "This is a message from the Hawaii Smart Energy Project MSG Project notification system.\n\n"
	Postscript = "\n\nThis email account is not monitored. No replies will originate from this account." +
		"\n\nYou are receiving this message because you are on the recipient list for notifications " +
		"for the Hawaii Smart Energy Project."
	XMailer    = "Smart Energy Kit Notifier"
)

// attachment is a file read into memory before any network I/O.
type attachment struct {
	name string
	data []byte
}

// composeBody wraps body in the fixed preamble and postscript.
func composeBody(body string) string {
	var sb strings.Builder
	sb.Grow(len(Preamble) + len(body) + len(Postscript))
	sb.WriteString(Preamble)
	sb.WriteString(body)
	sb.WriteString(Postscript)
	return sb.String()
}

// envelope is the addressing and header content of one message.
type envelope struct {
	from    string
	to      string
	subject string
	date    time.Time
}

// buildMessage assembles the MIME message. Attachments are base64 encoded
// and named after the base name of their source file.
func buildMessage(env envelope, body string, files []attachment) (*mail.Msg, error) {
	m := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))
	if err := m.From(env.from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(env.to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", env.to, err)
	}
	m.Subject(env.subject)
	m.SetDateWithValue(env.date)
	m.SetMessageIDWithValue(uuid.NewString() + "@" + domainOf(env.from))
	m.SetUserAgent(build.Product(XMailer))
	m.SetBodyString(mail.TypeTextPlain, composeBody(body))

	for _, f := range files {
		if err := m.AttachReader(f.name, bytes.NewReader(f.data)); err != nil {
			return nil, fmt.Errorf("attaching %q: %w", f.name, err)
		}
	}
	return m, nil
}

func domainOf(addr string) string {
	if i := strings.LastIndexByte(addr, '@'); i >= 0 && i < len(addr)-1 {
		return strings.Trim(addr[i+1:], "<> ")
	}
	return "localhost"
}

func attachmentName(path string) string {
	return filepath.Base(path)
}
