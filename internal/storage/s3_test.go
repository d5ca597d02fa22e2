package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeUploader struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (fake *fakeUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	fake.input = input
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	fake.body = string(data)
	if fake.err != nil {
		return nil, fake.err
	}
	return &manager.UploadOutput{}, nil
}

type fakeDeleter struct {
	deletedKey string
	err        error
}

func (fake *fakeDeleter) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	fake.deletedKey = aws.ToString(input.Key)
	if fake.err != nil {
		return nil, fake.err
	}
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoreSaveUsesPrefixAndPublicURL(t *testing.T) {
	uploader := &fakeUploader{}
	store := newS3Store(uploader, &fakeDeleter{}, "medicine-images", "/images/", "https://cdn.example.com/")

	object, err := store.Save(context.Background(), 3, Upload{
		Filename:    "pill.gif",
		ContentType: "image/gif",
		Size:        4,
		Body:        strings.NewReader("GIF8"),
	})
	if err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	if !strings.HasPrefix(object.Key, "images/3/") || !strings.HasSuffix(object.Key, ".gif") {
		t.Fatalf("unexpected object key %q", object.Key)
	}
	if object.URL != "https://cdn.example.com/"+object.Key {
		t.Fatalf("unexpected object URL %q", object.URL)
	}
	if aws.ToString(uploader.input.Bucket) != "medicine-images" {
		t.Fatalf("unexpected bucket %q", aws.ToString(uploader.input.Bucket))
	}
	if aws.ToString(uploader.input.ContentType) != "image/gif" {
		t.Fatalf("unexpected content type %q", aws.ToString(uploader.input.ContentType))
	}
	if uploader.body != "GIF8" {
		t.Fatalf("unexpected uploaded body %q", uploader.body)
	}
}

func TestS3StoreSaveWrapsUploadFailure(t *testing.T) {
	uploadErr := errors.New("bucket unreachable")
	store := newS3Store(&fakeUploader{err: uploadErr}, &fakeDeleter{}, "bucket", "", "https://cdn.example.com")

	_, err := store.Save(context.Background(), 3, Upload{
		Filename:    "pill.png",
		ContentType: "image/png",
		Size:        1,
		Body:        strings.NewReader("x"),
	})
	if !errors.Is(err, uploadErr) {
		t.Fatalf("expected wrapped upload error, got %v", err)
	}
}

func TestS3StoreDelete(t *testing.T) {
	deleter := &fakeDeleter{}
	store := newS3Store(&fakeUploader{}, deleter, "bucket", "", "https://cdn.example.com")

	if err := store.Delete(context.Background(), "3/abc.png"); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if deleter.deletedKey != "3/abc.png" {
		t.Fatalf("unexpected deleted key %q", deleter.deletedKey)
	}
	if err := store.Delete(context.Background(), "../escape.png"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
