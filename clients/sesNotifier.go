package clients

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/endpoints"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"golang.org/x/net/idna"
)

const (
	// CharSet The character encoding for the email.
	CharSet = "UTF-8"

	// DefaultTextMessage will be sent to non-HTML email clients that receive our messages
	DefaultTextMessage = "You need an HTML client to read this email."
)

type (
	// SesNotifier contains all information needed to send Amazon SES messages
	SesNotifier struct {
		Config *SesNotifierConfig
		SES    sesiface.SESAPI
		logger *zap.SugaredLogger
	}

	// SesNotifierConfig contains the static configuration for the Amazon SES service
	// Credentials come from the environment and are not passed in via configuration variables.
	SesNotifierConfig struct {
		From             string            `envconfig:"SES_FROM" default:"noreply@kindo.app"`
		Region           string            `envconfig:"SES_REGION" default:"us-east-1"`
		Endpoint         string            `envconfig:"SES_ENDPOINT"`
		ConfigurationSet string            `envconfig:"SES_CONFIGURATION_SET"`
		DefaultTags      map[string]string `envconfig:"SES_DEFAULT_TAGS"`
	}
)

// NewSesNotifier creates a new Amazon SES notifier
func NewSesNotifier(cfg *SesNotifierConfig, logger *zap.SugaredLogger) (*SesNotifier, error) {

	// For SES, if there is a serverEndpoint specified in config, AWS' default is overriden
	myCustomResolver := func(service, region string, optFns ...func(*endpoints.Options)) (endpoints.ResolvedEndpoint, error) {
		if service == endpoints.EmailServiceID && cfg.Endpoint != "" {
			return endpoints.ResolvedEndpoint{
				URL:           cfg.Endpoint,
				SigningRegion: "custom-signing-region",
			}, nil
		}

		return endpoints.DefaultResolver().EndpointFor(service, region, optFns...)
	}

	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(cfg.Region),
		EndpointResolver: endpoints.ResolverFunc(myCustomResolver),
	})
	if err != nil {
		return nil, err
	}

	// Credentials are looked up in the environment, the shared profile, then the instance role.
	// Their validity is not checked here.
	if creds, err := sess.Config.Credentials.Get(); err != nil {
		logger.With(zap.Error(err)).Warn("no AWS credentials were found, email will not be sent")
	} else {
		logger.With(zap.String("provider", creds.ProviderName)).Info("AWS credentials found")
	}

	return &SesNotifier{
		Config: cfg,
		SES:    ses.New(sess),
		logger: logger,
	}, nil
}

// Returns SES Message tags based on default tags in config
func (c *SesNotifier) getSesTags() []*ses.MessageTag {
	var sesTags = make([]*ses.MessageTag, 0, len(c.Config.DefaultTags))
	for tagName, tagValue := range c.Config.DefaultTags {
		if tagName != "" && tagValue != "" {
			sesTags = append(sesTags, &ses.MessageTag{Name: aws.String(tagName), Value: aws.String(tagValue)})
		}
	}
	return sesTags
}

// Send a message to a list of recipients with a given subject
func (c *SesNotifier) Send(ctx context.Context, to []string, subject string, msg string) (int, string) {
	var toAwsAddress = make([]*string, len(to))
	for i, x := range to {
		encoded, err := punycodeEmail(x)
		if err != nil {
			return http.StatusBadRequest, err.Error()
		}
		toAwsAddress[i] = aws.String(encoded)
	}
	var confSetName *string
	if c.Config.ConfigurationSet != "" {
		confSetName = aws.String(c.Config.ConfigurationSet)
	}

	input := &ses.SendEmailInput{
		Destination: &ses.Destination{
			CcAddresses: []*string{},
			ToAddresses: toAwsAddress,
		},
		Message: &ses.Message{
			Body: &ses.Body{
				Html: &ses.Content{
					Charset: aws.String(CharSet),
					Data:    aws.String(msg),
				},
				Text: &ses.Content{
					Charset: aws.String(CharSet),
					Data:    aws.String(DefaultTextMessage),
				},
			},
			Subject: &ses.Content{
				Charset: aws.String(CharSet),
				Data:    aws.String(subject),
			},
		},
		Source:               aws.String(c.Config.From),
		ConfigurationSetName: confSetName,
		Tags:                 c.getSesTags(),
	}

	result, err := c.SES.SendEmailWithContext(ctx, input)

	// Return error messages if they occur. They are traced in the caller function
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			return http.StatusInternalServerError, aerr.Error()
		}
		return http.StatusInternalServerError, err.Error()
	}
	c.logger.With(zap.String("subject", subject)).Debug("SES email sent")
	return http.StatusOK, result.String()
}

// punycodeEmail encodes the domain part of an address; SES rejects unicode domains
func punycodeEmail(email string) (string, error) {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email, nil
	}
	domain, err := idna.ToASCII(email[at+1:])
	if err != nil {
		return "", err
	}
	return email[:at+1] + domain, nil
}

func SesNotifierConfigProvider() (*SesNotifierConfig, error) {
	var config SesNotifierConfig
	if err := envconfig.Process("", &config); err != nil {
		return nil, err
	}
	return &config, nil
}
