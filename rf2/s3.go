package rf2

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// parseS3URI splits "s3://bucket/key/prefix" into its bucket and key-prefix parts.
func parseS3URI(uri string) (bucket, prefix string, err error) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	if trimmed == uri {
		return "", "", &ConfigError{Reason: fmt.Sprintf("not an s3:// uri: %s", uri)}
	}
	parts := strings.SplitN(trimmed, "/", 2)
	bucket = parts[0]
	if bucket == "" {
		return "", "", &ConfigError{Reason: fmt.Sprintf("missing bucket in uri: %s", uri)}
	}
	if len(parts) == 2 {
		prefix = parts[1]
	}
	return bucket, prefix, nil
}

// downloadS3Prefix downloads every object under an s3:// prefix into a fresh
// temporary directory (created under parentDir, or the OS default if empty),
// preserving the object keys' relative structure under the prefix, and returns
// that directory's path.
func downloadS3Prefix(ctx context.Context, uri string, parentDir string) (string, error) {
	bucket, prefix, err := parseS3URI(uri)
	if err != nil {
		return "", err
	}
	localDir, err := os.MkdirTemp(parentDir, "rf2-s3-*")
	if err != nil {
		return "", err
	}
	sess, err := session.NewSession(aws.NewConfig())
	if err != nil {
		return "", err
	}
	client := s3.New(sess)
	downloader := s3manager.NewDownloaderWithClient(client)

	var listErr error
	err = client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			rel := strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
			dest := filepath.Join(localDir, rel)
			if mkErr := os.MkdirAll(filepath.Dir(dest), 0o755); mkErr != nil {
				listErr = mkErr
				return false
			}
			f, openErr := os.Create(dest)
			if openErr != nil {
				listErr = openErr
				return false
			}
			_, dlErr := downloader.DownloadWithContext(ctx, f, &s3.GetObjectInput{
				Bucket: aws.String(bucket),
				Key:    aws.String(key),
			})
			f.Close()
			if dlErr != nil {
				listErr = dlErr
				return false
			}
		}
		return true
	})
	if err != nil {
		return "", err
	}
	if listErr != nil {
		return "", listErr
	}
	return localDir, nil
}
