package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Options struct {
	Bucket          string
	Region          string
	Prefix          string
	Endpoint        string
	PublicBaseURL   string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Store keeps images in an S3 compatible bucket. Object URLs are built from
// PublicBaseURL, so the bucket (or a CDN in front of it) must allow reads.
type S3Store struct {
	uploader      objectUploader
	deleter       objectDeleter
	bucket        string
	prefix        string
	publicBaseURL string
}

func NewS3Store(ctx context.Context, options S3Options) (*S3Store, error) {
	if strings.TrimSpace(options.Bucket) == "" {
		return nil, errors.New("s3 storage requires a bucket")
	}

	loaders := []func(*awsconfig.LoadOptions) error{}
	if options.Region != "" {
		loaders = append(loaders, awsconfig.WithRegion(options.Region))
	}
	if options.AccessKeyID != "" && options.SecretAccessKey != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(options.AccessKeyID, options.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if options.Endpoint != "" {
			o.BaseEndpoint = aws.String(options.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicBaseURL := options.PublicBaseURL
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", options.Bucket, awsCfg.Region)
	}
	return newS3Store(manager.NewUploader(client), client, options.Bucket, options.Prefix, publicBaseURL), nil
}

func newS3Store(uploader objectUploader, deleter objectDeleter, bucket string, prefix string, publicBaseURL string) *S3Store {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Store{
		uploader:      uploader,
		deleter:       deleter,
		bucket:        bucket,
		prefix:        prefix,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}
}

func (store *S3Store) Save(ctx context.Context, userID uint, upload Upload) (Object, error) {
	extension, err := ValidateUpload(upload)
	if err != nil {
		return Object{}, err
	}

	key := store.prefix + NewObjectKey(userID, extension)
	_, err = store.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(store.bucket),
		Key:         aws.String(key),
		Body:        newLimitedBody(upload.Body),
		ContentType: aws.String(allowedImageExtensions[extension]),
	})
	if err != nil {
		if errors.Is(err, ErrImageTooLarge) {
			return Object{}, ErrImageTooLarge
		}
		return Object{}, fmt.Errorf("upload image to s3: %w", err)
	}

	return Object{Key: key, URL: store.publicBaseURL + "/" + key}, nil
}

func (store *S3Store) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := store.deleter.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete image %s from s3: %w", key, err)
	}
	return nil
}

var _ Store = (*S3Store)(nil)
