package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DeleteObject removes a replaced or orphaned cover.
func (s *S3Client) DeleteObject(ctx context.Context, objectKey string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("s3: delete object %s: %w", objectKey, err)
	}
	return nil
}

// CoverKey builds the object key for an owner's book cover.
func CoverKey(ownerID, bookID, ext string, unix int64) string {
	return fmt.Sprintf("covers/%s/%s-%d%s", ownerID, bookID, unix, ext)
}
