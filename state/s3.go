package state

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Store keeps the state document as a single S3 object.
type S3Store struct {
	Client s3iface.S3API
	Bucket string
	Key    string
}

// NewS3Store builds an S3Store with a session reading credentials from the
// environment. endpoint may be empty.
func NewS3Store(region, endpoint, bucket, key string) (*S3Store, error) {
	cfg := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("error making new session: %w", err)
	}

	return &S3Store{Client: s3.New(sess), Bucket: bucket, Key: key}, nil
}

func (s *S3Store) Load(ctx context.Context) (SyncState, error) {
	out, err := s.Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return SyncState{}, nil
		}
		return SyncState{}, fmt.Errorf("error reading s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return SyncState{}, fmt.Errorf("error reading s3 body: %w", err)
	}

	return Decode(data)
}

func (s *S3Store) Save(ctx context.Context, st SyncState) error {
	data, err := Encode(st)
	if err != nil {
		return err
	}

	_, err = s.Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(s.Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("error writing s3://%s/%s: %w", s.Bucket, s.Key, err)
	}

	return nil
}
