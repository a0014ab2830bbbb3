package notify

import (
	"context"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"nursehub-api/internal/config"
)

type TwilioTexter struct {
	client *twilio.RestClient
	from   string
	log    *zap.Logger
}

// NewTwilioTexter returns a texter that logs instead of sending when any
// credential is missing.
func NewTwilioTexter(cfg config.Twilio, log *zap.Logger) *TwilioTexter {
	t := &TwilioTexter{from: cfg.From, log: log.Named("twilio")}
	if cfg.Configured() {
		t.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		})
	}
	return t
}

func (t *TwilioTexter) SendText(ctx context.Context, to, body string) error {
	if t.client == nil {
		t.log.Info("twilio not configured, sms not sent", zap.String("to", to), zap.String("message", body))
		return ErrNotConfigured
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	return bounded(ctx, func() error {
		resp, err := t.client.Api.CreateMessage(params)
		if err != nil {
			return err
		}
		if resp.Sid != nil {
			t.log.Info("sms queued", zap.String("sid", *resp.Sid))
		}
		return nil
	})
}
