package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client stays nil when object storage is not configured; uploads are then
// skipped and parse responses carry no pdf_url.
var Client *minio.Client

// BucketName holds the originals bucket, default "documentos".
var BucketName string

const presignTTL = 24 * time.Hour

// Init connects to MinIO and provisions the originals bucket when missing.
func Init() error {
	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	if accessKey == "" || secretKey == "" {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required")
	}

	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "minio:9000"
	}
	BucketName = os.Getenv("MINIO_BUCKET")
	if BucketName == "" {
		BucketName = "documentos"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: os.Getenv("MINIO_USE_SSL") == "true",
	})
	if err != nil {
		return fmt.Errorf("creating MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, BucketName)
	if err != nil {
		return fmt.Errorf("checking bucket %q: %w", BucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, BucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("creating bucket %q: %w", BucketName, err)
		}
		log.Printf("[Storage] created bucket %q", BucketName)
	}

	Client = client
	return nil
}

// UploadDocument stores an original PDF under {kind}/YYYY/MM/{filename} and
// returns the bucket-qualified path persisted alongside the extraction.
func UploadDocument(ctx context.Context, kind, filename string, reader io.Reader, size int64) (string, error) {
	now := time.Now()
	objectName := fmt.Sprintf("%s/%04d/%02d/%s", kind, now.Year(), now.Month(), filename)

	_, err := Client.PutObject(ctx, BucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", objectName, err)
	}
	return BucketName + "/" + objectName, nil
}

// objectKey strips the bucket prefix stored paths carry.
func objectKey(objectPath string) string {
	return strings.TrimPrefix(objectPath, BucketName+"/")
}

// GetPresignedURL returns a time-limited download link for a stored PDF.
func GetPresignedURL(ctx context.Context, objectPath string) (string, error) {
	url, err := Client.PresignedGetObject(ctx, BucketName, objectKey(objectPath), presignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("presigning %s: %w", objectPath, err)
	}
	return url.String(), nil
}

// DeleteDocument removes a stored PDF.
func DeleteDocument(ctx context.Context, objectPath string) error {
	return Client.RemoveObject(ctx, BucketName, objectKey(objectPath), minio.RemoveObjectOptions{})
}
