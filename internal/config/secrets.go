package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsAPI is the subset of the Secrets Manager client used here.
type SecretsAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerFetcher returns a SecretFetcher backed by api.
func SecretsManagerFetcher(api SecretsAPI) SecretFetcher {
	return func(ctx context.Context, id string) (string, error) {
		out, err := api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(id),
		})
		if err != nil {
			return "", fmt.Errorf("get secret %s: %w", id, err)
		}
		if out.SecretString == nil || *out.SecretString == "" {
			return "", errors.New("secret " + id + " has no string value")
		}
		return *out.SecretString, nil
	}
}

// DefaultSecretFetcher builds a Secrets Manager client from the default AWS
// credential chain. The client is only created on first use.
func DefaultSecretFetcher(region string) SecretFetcher {
	return func(ctx context.Context, id string) (string, error) {
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return "", fmt.Errorf("load aws config: %w", err)
		}
		return SecretsManagerFetcher(secretsmanager.NewFromConfig(cfg))(ctx, id)
	}
}
