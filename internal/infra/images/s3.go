package images

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

// S3Store uploads option images to a bucket and returns the object URL.
type S3Store struct {
	uploader s3manageriface.UploaderAPI
	bucket   string
}

// NewS3Store builds an uploader from the default credential chain.
func NewS3Store(region, bucket string) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return NewS3StoreWithUploader(s3manager.NewUploader(sess), bucket), nil
}

func NewS3StoreWithUploader(uploader s3manageriface.UploaderAPI, bucket string) *S3Store {
	return &S3Store{uploader: uploader, bucket: bucket}
}

func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return out.Location, nil
}
