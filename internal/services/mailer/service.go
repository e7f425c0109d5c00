package mailer

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/common"
)

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

// Subjects the platform uses on verification mails, checked
// case-insensitively
var verificationSubjects = []string{"認証", "確認コード", "verification", "code"}

// Service reads the login verification code from the user's mailbox.
// Used only when the login flow presents a code challenge.
type Service struct {
	config *common.MailerConfig
	logger arbor.ILogger
}

// NewService creates an IMAP mail service
func NewService(config *common.MailerConfig, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		logger: logger,
	}
}

// IsConfigured reports whether enough settings exist to connect
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Username != "" && s.config.Password != ""
}

// FetchCode polls the mailbox for the newest verification mail and
// extracts its 6-digit code. Polls for up to two minutes because the
// mail arrives with delay.
func (s *Service) FetchCode(ctx context.Context) (string, error) {
	if !s.IsConfigured() {
		return "", fmt.Errorf("IMAP mailer not configured")
	}

	deadline := time.Now().Add(2 * time.Minute)
	for {
		code, err := s.fetchLatestCode()
		if err != nil {
			s.logger.Warn().Err(err).Msg("Verification mail poll failed")
		} else if code != "" {
			s.logger.Info().Msg("Verification code retrieved from mailbox")
			return code, nil
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("no verification mail arrived within 2 minutes")
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(10 * time.Second):
		}
	}
}

func (s *Service) fetchLatestCode() (string, error) {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var c *client.Client
	var err error
	if s.config.UseTLS {
		c, err = client.DialTLS(addr, nil)
	} else {
		c, err = client.Dial(addr)
	}
	if err != nil {
		return "", fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	defer c.Logout()

	if err := c.Login(s.config.Username, s.config.Password); err != nil {
		return "", fmt.Errorf("IMAP login failed: %w", err)
	}

	mailbox := s.config.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	mbox, err := c.Select(mailbox, false)
	if err != nil {
		return "", fmt.Errorf("failed to select %s: %w", mailbox, err)
	}
	if mbox.Messages == 0 {
		return "", nil
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	seqNums, err := c.Search(criteria)
	if err != nil {
		return "", fmt.Errorf("failed to search for unseen messages: %w", err)
	}
	if len(seqNums) == 0 {
		return "", nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(seqNums...)

	messages := make(chan *imap.Message, len(seqNums))
	section := &imap.BodySectionName{}

	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}, messages)
	}()

	type candidate struct {
		date time.Time
		code string
	}
	var candidates []candidate

	for msg := range messages {
		if msg == nil || msg.Envelope == nil {
			continue
		}
		if !isVerificationSubject(msg.Envelope.Subject) {
			continue
		}

		body, err := parseMessageBody(msg, section)
		if err != nil {
			s.logger.Warn().Err(err).Int64("seq", int64(msg.SeqNum)).Msg("Failed to parse verification mail body")
			continue
		}

		if code := ExtractCode(msg.Envelope.Subject + "\n" + body); code != "" {
			candidates = append(candidates, candidate{date: msg.Envelope.Date, code: code})
		}
	}

	if err := <-done; err != nil {
		return "", fmt.Errorf("failed to fetch messages: %w", err)
	}

	if len(candidates) == 0 {
		return "", nil
	}

	// Newest mail wins: an old code may already be expired
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].date.After(candidates[j].date)
	})
	return candidates[0].code, nil
}

// ExtractCode finds the first 6-digit code in the text
func ExtractCode(text string) string {
	match := codePattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return match[1]
}

func isVerificationSubject(subject string) bool {
	lower := strings.ToLower(subject)
	for _, marker := range verificationSubjects {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// parseMessageBody extracts the text body from an IMAP message
func parseMessageBody(msg *imap.Message, section *imap.BodySectionName) (string, error) {
	r := msg.GetBody(section)
	if r == nil {
		return "", fmt.Errorf("no body section")
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to create mail reader: %w", err)
	}

	var body string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read next part: %w", err)
		}

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			if strings.HasPrefix(contentType, "text/plain") {
				b, err := io.ReadAll(p.Body)
				if err != nil {
					return "", fmt.Errorf("failed to read body: %w", err)
				}
				body = string(b)
			}
		}
	}

	return strings.TrimSpace(body), nil
}
