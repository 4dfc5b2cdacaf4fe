package aws

import (
	"context"
	"errors"
	"testing"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets struct {
	value *string
	err   error
	calls int
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, _ *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: f.value}, nil
}

func TestGetSecretMap_DecodesAndCaches(t *testing.T) {
	api := &fakeSecrets{value: sdkaws.String(`{"SOULMARK_SECRET":"s3cret","STRIPE_SECRET_KEY":"sk_test"}`)}
	client := NewSecretsClientWithAPI(api)

	values, err := client.GetSecretMap(context.Background(), "soulsystem/APP_SECRETS")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", values["SOULMARK_SECRET"])

	_, err = client.GetSecretMap(context.Background(), "soulsystem/APP_SECRETS")
	require.NoError(t, err)
	assert.Equal(t, 1, api.calls)
}

func TestGetSecretMap_Errors(t *testing.T) {
	_, err := NewSecretsClientWithAPI(&fakeSecrets{err: errors.New("denied")}).GetSecretMap(context.Background(), "x")
	assert.Error(t, err)

	_, err = NewSecretsClientWithAPI(&fakeSecrets{value: sdkaws.String("not-json")}).GetSecretMap(context.Background(), "x")
	assert.Error(t, err)

	_, err = NewSecretsClientWithAPI(&fakeSecrets{}).GetSecret(context.Background(), "x")
	assert.Error(t, err)
}
