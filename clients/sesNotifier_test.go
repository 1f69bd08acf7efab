package clients

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"

	"github.com/kindo-app/doorbell/testutil"
)

func TestPunycodeEmail(t *testing.T) {
	tests := []struct {
		InputEmail   string
		EncodedEmail string
	}{
		{"regular@email.com", "regular@email.com"},
		{"someone@mail.com", "someone@mail.com"},
		{"someone@måil.com", "someone@xn--mil-ula.com"},
		{`"funky@but@valid$email"@site.com`, `"funky@but@valid$email"@site.com`},
		{`silly\@email@g∞gl€.com`, `silly\@email@xn--ggl-m50au1g.com`},
	}

	for _, test := range tests {
		encoded, err := punycodeEmail(test.InputEmail)
		if err != nil {
			t.Errorf(`Error punycoding "%s": %v`, test.InputEmail, err)
			continue
		}
		if encoded != test.EncodedEmail {
			t.Errorf(`Expected "%s" to be encoded as "%s", got "%s"`, test.InputEmail, test.EncodedEmail, encoded)
		}
	}
}

type fakeSES struct {
	sesiface.SESAPI
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmailWithContext(ctx aws.Context, input *ses.SendEmailInput, opts ...request.Option) (*ses.SendEmailOutput, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSesNotifierSend(t *testing.T) {
	fake := &fakeSES{}
	notifier := &SesNotifier{
		Config: &SesNotifierConfig{From: "noreply@kindo.app", ConfigurationSet: "invites", DefaultTags: map[string]string{"app": "kindo", "empty": ""}},
		SES:    fake,
		logger: testutil.NewLogger(t),
	}

	status, details := notifier.Send(context.Background(), []string{"someone@måil.com"}, "subject", "<p>hi</p>")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, details)
	}
	if got := aws.StringValue(fake.input.Destination.ToAddresses[0]); got != "someone@xn--mil-ula.com" {
		t.Fatalf("recipient should be punycoded, got %s", got)
	}
	if aws.StringValue(fake.input.ConfigurationSetName) != "invites" {
		t.Fatal("configuration set should be passed through")
	}
	if len(fake.input.Tags) != 1 {
		t.Fatalf("empty tags should be dropped, got %v", fake.input.Tags)
	}

	fake.err = errors.New("throttled")
	if status, details = notifier.Send(context.Background(), []string{"a@b.com"}, "subject", "body"); status != http.StatusInternalServerError || details != "throttled" {
		t.Fatalf("unexpected failure result %d %s", status, details)
	}
}
