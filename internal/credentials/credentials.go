// Package credentials loads the TS Digital login identity from the
// environment (optionally seeded by a dotenv file), a YAML file, or AWS
// Secrets Manager.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/sdi-invoice-sender/internal/config"
)

// Environment variables read by FromEnv.
const (
	EnvEmail     = "TS_EMAIL"
	EnvPassword  = "TS_PASSWORD"
	EnvVATNumber = "TS_VAT_NUMBER"
)

// ErrIncomplete is returned when a source lacks one of the required fields.
var ErrIncomplete = errors.New("credentials are incomplete")

// Credentials identify the company on TS Digital.
type Credentials struct {
	Email    string `json:"email" yaml:"email"`
	Password string `json:"password" yaml:"password"`

	// VATNumber is the company's Partita IVA, used as transmitter and sender.
	VATNumber string `json:"vat_number" yaml:"vat_number"`
}

// Validate checks that every field is set.
func (c Credentials) Validate() error {
	var missing []string
	if c.Email == "" {
		missing = append(missing, "email")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if c.VATNumber == "" {
		missing = append(missing, "vat_number")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", ErrIncomplete, missing)
	}
	return nil
}

// Load reads credentials from the source selected in cfg.
func Load(ctx context.Context, cfg config.CredentialsConfig) (Credentials, error) {
	switch cfg.Source {
	case config.CredentialsFromEnv:
		return FromEnv(cfg.EnvFile)
	case config.CredentialsFromFile:
		return FromFile(cfg.File)
	case config.CredentialsFromAWS:
		api, err := NewSecretsManagerAPI(ctx, cfg.AWSRegion)
		if err != nil {
			return Credentials{}, err
		}
		return FromSecretsManager(ctx, api, cfg.AWSSecretID)
	default:
		return Credentials{}, fmt.Errorf("unknown credentials source %q", cfg.Source)
	}
}

// FromEnv reads TS_EMAIL, TS_PASSWORD and TS_VAT_NUMBER. If envFile exists it
// is loaded first; variables already set in the environment win.
func FromEnv(envFile string) (Credentials, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Credentials{}, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	creds := Credentials{
		Email:     os.Getenv(EnvEmail),
		Password:  os.Getenv(EnvPassword),
		VATNumber: os.Getenv(EnvVATNumber),
	}
	if err := creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// FromFile reads credentials from a YAML file.
func FromFile(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if err := creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// SecretsManagerAPI is the part of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// NewSecretsManagerAPI builds a Secrets Manager client from the default AWS
// configuration chain.
func NewSecretsManagerAPI(ctx context.Context, region string) (*secretsmanager.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return secretsmanager.NewFromConfig(awsCfg), nil
}

// FromSecretsManager reads a JSON secret shaped like
// {"email": ..., "password": ..., "vat_number": ...}.
func FromSecretsManager(ctx context.Context, api SecretsManagerAPI, secretID string) (Credentials, error) {
	out, err := api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to get secret %s: %w", secretID, err)
	}
	if out.SecretString == nil {
		return Credentials{}, fmt.Errorf("secret %s has no string value", secretID)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &creds); err != nil {
		return Credentials{}, fmt.Errorf("failed to parse secret %s: %w", secretID, err)
	}
	if err := creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}
