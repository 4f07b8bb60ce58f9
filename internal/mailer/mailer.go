// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

// Package mailer turns emails sent to the log bot into entries and produces
// the reply that goes back to the sender over the local SMTP relay.
package mailer

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"klog/internal/journal"
	"klog/internal/logger"
)

// Result is the outcome of ingesting one email. Commit tells the caller
// whether the log gained an entry worth committing; Reply is always set and
// goes back to ReplyTo when a sender address is known.
type Result struct {
	Commit  bool
	ReplyTo string
	Subject string
	Reply   string
}

// Handle parses a raw RFC 5322 message and files it as a log entry: the
// subject becomes the topic, the date header the entry day, the first
// text/plain part the body, and attachments become media.
func Handle(lg *journal.Log, raw []byte) Result {
	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	if err != nil {
		return Result{Reply: fmt.Sprintf("Your email could not be parsed: %v", err)}
	}

	res := Result{Subject: "Re: your log entry"}
	if addr, err := mail.ParseAddress(msg.Header.Get("From")); err == nil {
		res.ReplyTo = addr.Address
	}

	dec := new(mime.WordDecoder)
	topic := msg.Header.Get("Subject")
	if decoded, err := dec.DecodeHeader(topic); err == nil {
		topic = decoded
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		res.Reply = "Your email has no subject; the subject becomes the entry topic. Entry not recorded."
		return res
	}
	res.Subject = "Re: " + topic

	date := time.Now()
	if d, err := msg.Header.Date(); err == nil {
		date = d
	}

	body, attachments, err := extractParts(msg)
	if err != nil {
		res.Reply = fmt.Sprintf("Your email could not be read: %v. Entry not recorded.", err)
		return res
	}
	body = strings.TrimSpace(body)
	if body == "" {
		res.Reply = "Your email has an empty body. Entry not recorded."
		return res
	}

	entry := lg.NewEntry(date)
	entry.Topic = topic
	entry.Content = body + "\n"
	entry.MarkDirty()

	var attached []string
	for _, a := range attachments {
		if err := entry.AttachMediaBytes(a.name, a.data); err != nil {
			logger.Warn("Skipping attachment", "name", a.name, "error", err)
			continue
		}
		attached = append(attached, a.name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Thanks! Your entry has been recorded:\n\n  %s\n", entry.Shortlog())
	if len(attached) > 0 {
		fmt.Fprintf(&b, "\nAttached media: %s\n", strings.Join(attached, ", "))
	}
	res.Commit = true
	res.Reply = b.String()
	return res
}

type attachment struct {
	name string
	data []byte
}

// extractParts returns the first text/plain body and any attachments
// carrying a file name. Non-multipart messages are their own body.
func extractParts(msg *mail.Message) (string, []attachment, error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", nil, fmt.Errorf("bad Content-Type: %w", err)
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		data, err := io.ReadAll(decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding")))
		if err != nil {
			return "", nil, err
		}
		return string(data), nil, nil
	}

	var body string
	var attachments []attachment
	mr := multipart.NewReader(msg.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, err
		}

		partType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		reader := decodeBody(part, part.Header.Get("Content-Transfer-Encoding"))

		if name := part.FileName(); name != "" {
			data, err := io.ReadAll(reader)
			if err != nil {
				return "", nil, err
			}
			attachments = append(attachments, attachment{name: name, data: data})
			continue
		}
		if body == "" && (partType == "text/plain" || partType == "") {
			data, err := io.ReadAll(reader)
			if err != nil {
				return "", nil, err
			}
			body = string(data)
		}
	}
	return body, attachments, nil
}

func decodeBody(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		// The base64 decoder skips the CR/LF that wraps encoded bodies.
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// SendReply delivers the reply through the SMTP relay at addr.
func SendReply(addr, from, to, subject, body string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	if err := smtp.SendMail(addr, nil, from, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to send reply via %s: %w", addr, err)
	}
	return nil
}
