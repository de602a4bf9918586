// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"context"
	"net/url"

	"github.com/IBM/sarama"
	"github.com/mcslender97/textjson/internal/util/secure"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/oauth2/clientcredentials"
)

const defaultKafkaBatchSize = 100

// KafkaConfig contains the options used when the topic is a kafka://
// identifier.
type KafkaConfig struct {
	TLS secure.Config

	BatchSize int // How many messages to accumulate before sending.

	// SASL
	saslClientID     string
	saslClientSecret string
	saslGrantType    string
	saslMechanism    string
	saslScopes       []string
	saslTokenURL     string
	saslUser         string
	saslPassword     string
}

// Bind adds flags to the set.
func (c *KafkaConfig) Bind(f *pflag.FlagSet) {
	c.TLS.Bind(f)

	f.IntVar(&c.BatchSize, "kafkaBatchSize", defaultKafkaBatchSize,
		"messages to accumulate before sending them to the Kafka brokers")

	// SASL
	f.StringVar(&c.saslClientID, "saslClientId", "", "client ID for OAuth authentication from a third-party provider")
	f.StringVar(&c.saslClientSecret, "saslClientSecret", "", "Client secret for OAuth authentication from a third-party provider")
	f.StringVar(&c.saslGrantType, "saslGrantType", "", "Override the default OAuth client credentials grant type for other implementations")
	f.StringVar(&c.saslMechanism, "saslMechanism", "", "Can be set to OAUTHBEARER, SCRAM-SHA-256, SCRAM-SHA-512, or PLAIN")
	f.StringArrayVar(&c.saslScopes, "saslScope", nil, "Scopes that the OAuth token should have access for.")
	f.StringVar(&c.saslTokenURL, "saslTokenURL", "", "Client token URL for OAuth authentication from a third-party provider")
	f.StringVar(&c.saslUser, "saslUser", "", "SASL username")
	f.StringVar(&c.saslPassword, "saslPassword", "", "SASL password")
}

// Preflight updates the configuration with sane defaults or returns an
// error if there are missing options for which a default cannot be
// provided.
func (c *KafkaConfig) Preflight() error {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultKafkaBatchSize
	}
	if err := c.TLS.Preflight(); err != nil {
		return err
	}
	switch c.saslMechanism {
	case "", sarama.SASLTypePlaintext, sarama.SASLTypeSCRAMSHA256, sarama.SASLTypeSCRAMSHA512:
	case sarama.SASLTypeOAuth:
		if _, err := c.tokenConfig(); err != nil {
			return err
		}
	default:
		return errors.Errorf("unrecognized SASL mechanism: %s", c.saslMechanism)
	}
	return nil
}

// saramaConfig builds the producer configuration. Preflight must have
// been called.
func (c *KafkaConfig) saramaConfig(ctx context.Context) (*sarama.Config, error) {
	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.Idempotent = false

	sc.Net.TLS.Config = c.TLS.AsTLSConfig()
	sc.Net.TLS.Enable = sc.Net.TLS.Config != nil
	// if saslMechanism is not null, then authentication is done via SASL.
	if c.saslMechanism != "" {
		sc.Net.SASL.Enable = true
		switch c.saslMechanism {
		case sarama.SASLTypeSCRAMSHA512:
			sc.Net.SASL.SCRAMClientGeneratorFunc = sha512ClientGenerator
		case sarama.SASLTypeSCRAMSHA256:
			sc.Net.SASL.SCRAMClientGeneratorFunc = sha256ClientGenerator
		case sarama.SASLTypeOAuth:
			cfg, err := c.tokenConfig()
			if err != nil {
				return nil, err
			}
			sc.Net.SASL.TokenProvider = &tokenProvider{tokenSource: cfg.TokenSource(ctx)}
		}
		sc.Net.SASL.Mechanism = sarama.SASLMechanism(c.saslMechanism)
		sc.Net.SASL.User = c.saslUser
		sc.Net.SASL.Password = c.saslPassword
		log.Infof("Using SASL %s", c.saslMechanism)
	}
	return sc, errors.WithStack(sc.Validate())
}

func (c *KafkaConfig) tokenConfig() (*clientcredentials.Config, error) {
	// Non-compliant auth servers may want a grant type other than
	// client_credentials.
	var endpointParams url.Values
	if c.saslGrantType != `` {
		endpointParams = url.Values{"grant_type": {c.saslGrantType}}
	}
	if c.saslTokenURL == "" {
		return nil, errors.New("OAUTH2 requires a token URL")
	}
	tokenURL, err := url.Parse(c.saslTokenURL)
	if err != nil {
		return nil, errors.Wrap(err, "malformed token url")
	}
	if c.saslClientID == "" {
		return nil, errors.New("OAUTH2 requires a client id")
	}
	if c.saslClientSecret == "" {
		return nil, errors.New("OAUTH2 requires a client secret")
	}
	return &clientcredentials.Config{
		ClientID:       c.saslClientID,
		ClientSecret:   c.saslClientSecret,
		TokenURL:       tokenURL.String(),
		Scopes:         c.saslScopes,
		EndpointParams: endpointParams,
	}, nil
}
