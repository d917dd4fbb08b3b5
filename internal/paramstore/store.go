// Package paramstore persists trigger state in AWS Systems Manager Parameter Store.
package paramstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"andrewsaputra/pipeline-trigger-lambda/internal/infra"
	"andrewsaputra/pipeline-trigger-lambda/internal/trigger"
)

const (
	statusDescription    = "infra status (set by pipeline-trigger)"
	timestampDescription = "pipeline trigger timestamp (set by pipeline-trigger)"
)

// ErrTimestampNotFound is returned when no trigger timestamp has been stored.
var ErrTimestampNotFound = errors.New("trigger timestamp parameter not found")

// SSMAPI is the subset of the SSM client used by Store.
type SSMAPI interface {
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Store reads and writes the status and trigger timestamp parameters.
// Writes overwrite unconditionally, so concurrent writers race and the last
// one wins.
type Store struct {
	client SSMAPI
}

// New wraps an SSM client.
func New(client SSMAPI) *Store {
	return &Store{client: client}
}

// PutStatus writes the infra status. SDK errors are returned as-is.
func (s *Store) PutStatus(ctx context.Context, name string, status infra.Status) error {
	return s.put(ctx, name, string(status), statusDescription)
}

// PutTriggerTimestamp writes t as fractional Unix seconds.
func (s *Store) PutTriggerTimestamp(ctx context.Context, name string, t time.Time) error {
	return s.put(ctx, name, trigger.FormatTimestamp(t), timestampDescription)
}

func (s *Store) put(ctx context.Context, name, value, description string) error {
	_, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:        aws.String(name),
		Value:       aws.String(value),
		Type:        ssmtypes.ParameterTypeString,
		Overwrite:   aws.Bool(true),
		Description: aws.String(description),
	})
	return err
}

// GetStatus returns the stored infra status, or infra.DefaultStatus when the
// parameter does not exist.
func (s *Store) GetStatus(ctx context.Context, name string) (infra.Status, error) {
	value, found, err := s.get(ctx, name)
	if err != nil {
		return "", err
	}
	if !found {
		return infra.DefaultStatus, nil
	}
	status, ok := infra.ParseStatus(value)
	if !ok {
		return "", fmt.Errorf("parameter %s holds invalid status %q", name, value)
	}
	return status, nil
}

// GetTriggerTimestamp returns the stored trigger timestamp in Unix seconds.
func (s *Store) GetTriggerTimestamp(ctx context.Context, name string) (float64, error) {
	value, found, err := s.get(ctx, name)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrTimestampNotFound
	}
	return trigger.ParseTimestamp(value)
}

func (s *Store) get(ctx context.Context, name string) (string, bool, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(name),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("getting parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", false, nil
	}
	return *out.Parameter.Value, true, nil
}
