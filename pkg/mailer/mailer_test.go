package mailer

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/daisydays/daisydays-backend/pkg/config"
)

type stubSender struct {
	got  *mail.SGMailV3
	resp *rest.Response
	err  error
}

func (s *stubSender) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	s.got = email
	return s.resp, s.err
}

func TestSendBuildsMessageWithAttachment(t *testing.T) {
	stub := &stubSender{resp: &rest.Response{StatusCode: 202}}
	m := &SendGrid{client: stub, from: "orders@daisydays.shop", fromName: "Daisy Days"}

	err := m.Send(context.Background(), Message{
		To:      "lily@example.com",
		ToName:  "Lily",
		Subject: "Your order",
		Text:    "thanks",
		Attachments: []Attachment{{
			Filename:    "receipt.pdf",
			ContentType: "application/pdf",
			Content:     []byte("%PDF"),
		}},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if stub.got.From.Address != "orders@daisydays.shop" || stub.got.Subject != "Your order" {
		t.Fatalf("unexpected envelope %+v", stub.got)
	}
	if len(stub.got.Attachments) != 1 {
		t.Fatalf("expected one attachment, got %d", len(stub.got.Attachments))
	}
	att := stub.got.Attachments[0]
	if att.Content != base64.StdEncoding.EncodeToString([]byte("%PDF")) || att.Filename != "receipt.pdf" {
		t.Fatalf("unexpected attachment %+v", att)
	}
}

func TestSendReportsRejectedStatus(t *testing.T) {
	stub := &stubSender{resp: &rest.Response{StatusCode: 401, Body: "unauthorized"}}
	m := &SendGrid{client: stub}
	if err := m.Send(context.Background(), Message{To: "a@b.c", Subject: "s"}); err == nil {
		t.Fatal("expected error for 401")
	}
}

func TestSendPropagatesTransportError(t *testing.T) {
	boom := errors.New("dial")
	m := &SendGrid{client: &stubSender{err: boom}}
	if err := m.Send(context.Background(), Message{To: "a@b.c", Subject: "s"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestSendValidatesRecipient(t *testing.T) {
	m := &SendGrid{client: &stubSender{}}
	if err := m.Send(context.Background(), Message{Subject: "s"}); err == nil {
		t.Fatal("expected missing recipient error")
	}
}

func TestNewFallsBackToLogMailer(t *testing.T) {
	m := New(config.SendgridConfig{}, nil)
	if _, ok := m.(*LogMailer); !ok {
		t.Fatalf("expected LogMailer, got %T", m)
	}
	if err := m.Send(context.Background(), Message{To: "x@y.z"}); err != nil {
		t.Fatalf("log mailer send: %v", err)
	}
}
