package services

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ReceiptService stores operator-uploaded payment receipt documents. Payments
// themselves are recorded manually; the receipt file is supporting evidence.
type ReceiptService interface {
	UploadReceipt(ctx context.Context, objectName string, reader io.Reader, objectSize int64, contentType string) error
	GetPresignedURL(objectName string, expiry time.Duration) (string, error)
	DeleteReceipt(ctx context.Context, objectName string) error
	EnsureBucketExists(ctx context.Context) error
}

const receiptBucket = "plangate-receipts"

type receiptService struct {
	client *minio.Client
}

func NewReceiptService(endpoint, accessKey, secretKey string, useSSL bool) (ReceiptService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &receiptService{client: client}, nil
}

func (s *receiptService) UploadReceipt(ctx context.Context, objectName string, reader io.Reader, objectSize int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, receiptBucket, objectName, reader, objectSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *receiptService) GetPresignedURL(objectName string, expiry time.Duration) (string, error) {
	url, err := s.client.PresignedGetObject(context.Background(), receiptBucket, objectName, expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (s *receiptService) DeleteReceipt(ctx context.Context, objectName string) error {
	return s.client.RemoveObject(ctx, receiptBucket, objectName, minio.RemoveObjectOptions{})
}

func (s *receiptService) EnsureBucketExists(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, receiptBucket)
	if err != nil {
		return err
	}
	if !found {
		return s.client.MakeBucket(ctx, receiptBucket, minio.MakeBucketOptions{})
	}
	return nil
}
