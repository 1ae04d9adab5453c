package storage

import (
	"alcyxob/gym-manager/internal/config"
	"bytes"
	"context"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const reportKeyPrefix = "reports/"

// s3Storage keeps exported reports in an S3-compatible bucket.
type s3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewS3Storage connects report storage to cfg.BucketName. A custom endpoint
// (MinIO, Spaces) switches to path-style addressing; without a scheme it gets
// https or http according to UseSSL.
func NewS3Storage(cfg config.S3Config) (ReportStorage, error) {
	opts := []func(*awsCfg.LoadOptions) error{awsCfg.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	sdkConfig, err := awsCfg.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		log.Printf("ERROR: Failed to load AWS SDK config for report storage: %v", err)
		return nil, err
	}

	endpoint := endpointURL(cfg.Endpoint, cfg.UseSSL)
	client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	log.Printf("INFO: S3 report storage ready (bucket %s, endpoint %q)", cfg.BucketName, endpoint)
	return &s3Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.BucketName,
	}, nil
}

func endpointURL(endpoint string, useSSL bool) string {
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

// reportObjectKey prefixes the file name with a random id so repeated exports never collide.
func reportObjectKey(fileName string) string {
	return reportKeyPrefix + uuid.NewString() + "-" + fileName
}

// PutReport uploads the CSV table and returns its object key.
func (s *s3Storage) PutReport(ctx context.Context, name string, headers []string, rows [][]string) (string, error) {
	fileName, err := reportFileName(name)
	if err != nil {
		return "", err
	}
	data, err := encodeCSV(headers, rows)
	if err != nil {
		return "", err
	}

	key := reportObjectKey(fileName)
	if _, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(data),
		ContentType:        aws.String("text/csv"),
		ContentDisposition: aws.String(`attachment; filename="` + fileName + `"`),
	}); err != nil {
		log.Printf("ERROR: Failed to upload report %s to bucket %s: %v", key, s.bucket, err)
		return "", err
	}

	log.Printf("INFO: Report exported to s3://%s/%s", s.bucket, key)
	return key, nil
}

// ReportURL presigns a GET for the object key returned by PutReport.
func (s *s3Storage) ReportURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		log.Printf("ERROR: Failed to presign report %s: %v", key, err)
		return "", err
	}
	return req.URL, nil
}
