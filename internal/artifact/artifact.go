// Package artifact writes the trigger classification into a CodePipeline
// output artifact so later actions can read it from their workspace.
package artifact

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	cptypes "github.com/aws/aws-sdk-go-v2/service/codepipeline/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"andrewsaputra/pipeline-trigger-lambda/internal/trigger"
)

// FileName is the entry written inside the artifact zip.
const FileName = "trigger.env"

// S3API is the subset of the S3 client used to upload artifacts.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ClientFactory builds an S3 client from the job's temporary credentials.
type ClientFactory func(ctx context.Context, creds *cptypes.AWSSessionCredentials, region string) (S3API, error)

// NewS3Client is the production ClientFactory.
func NewS3Client(ctx context.Context, creds *cptypes.AWSSessionCredentials, region string) (S3API, error) {
	if creds == nil {
		return nil, errors.New("job carries no artifact credentials")
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				aws.ToString(creds.AccessKeyId),
				aws.ToString(creds.SecretAccessKey),
				aws.ToString(creds.SessionToken),
			),
		),
	}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading artifact credentials: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Writer uploads trigger artifacts.
type Writer struct {
	newClient ClientFactory
	region    string
}

// NewWriter creates a Writer that builds clients with newClient.
func NewWriter(newClient ClientFactory, region string) *Writer {
	return &Writer{newClient: newClient, region: region}
}

// Write uploads a zip holding trigger.env to the job's first output artifact.
// It reports false when the job declares no output artifact.
func (w *Writer) Write(ctx context.Context, data *cptypes.JobData, source trigger.Source) (bool, error) {
	if data == nil || len(data.OutputArtifacts) == 0 {
		return false, nil
	}
	out := data.OutputArtifacts[0]
	if out.Location == nil || out.Location.S3Location == nil {
		return false, fmt.Errorf("output artifact %s has no S3 location", aws.ToString(out.Name))
	}

	body, err := Zip(source)
	if err != nil {
		return false, err
	}

	client, err := w.newClient(ctx, data.ArtifactCredentials, w.region)
	if err != nil {
		return false, err
	}

	in := &s3.PutObjectInput{
		Bucket: out.Location.S3Location.BucketName,
		Key:    out.Location.S3Location.ObjectKey,
		Body:   bytes.NewReader(body),
	}
	if key := data.EncryptionKey; key != nil && key.Type == cptypes.EncryptionKeyTypeKms {
		in.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
		in.SSEKMSKeyId = key.Id
	}

	if _, err := client.PutObject(ctx, in); err != nil {
		return false, fmt.Errorf("uploading artifact %s: %w", aws.ToString(out.Name), err)
	}
	return true, nil
}

// Zip returns a zip archive with a single trigger.env entry.
func Zip(source trigger.Source) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	f, err := zw.Create(FileName)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(f, "TRIGGER=%s\n", source); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
