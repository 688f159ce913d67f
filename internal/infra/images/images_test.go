package images

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

func TestFSStoreWritesUnderBase(t *testing.T) {
	dir := t.TempDir()
	store := NewFSStore(dir, "http://localhost:8080/assets/")

	url, err := store.Put(context.Background(), "quiz-images/u1/a.png", strings.NewReader("png"), "image/png")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != "http://localhost:8080/assets/quiz-images/u1/a.png" {
		t.Fatalf("unexpected url %q", url)
	}
	data, err := os.ReadFile(filepath.Join(dir, "quiz-images", "u1", "a.png"))
	if err != nil || string(data) != "png" {
		t.Fatalf("unexpected file %q %v", data, err)
	}
}

func TestFSStoreKeepsTraversalInsideBase(t *testing.T) {
	dir := t.TempDir()
	store := NewFSStore(filepath.Join(dir, "root"), "/assets")

	if _, err := store.Put(context.Background(), "../../escape.png", strings.NewReader("x"), "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "root", "escape.png")); err != nil {
		t.Fatalf("expected file inside base: %v", err)
	}
}

func TestS3StoreUploads(t *testing.T) {
	fake := &fakeUploader{location: "https://bucket.s3.amazonaws.com/quiz-images/u1/a.png"}
	store := NewS3StoreWithUploader(fake, "bucket")

	url, err := store.Put(context.Background(), "quiz-images/u1/a.png", strings.NewReader("png"), "image/png")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != fake.location {
		t.Fatalf("unexpected url %q", url)
	}
	if aws.StringValue(fake.input.Bucket) != "bucket" || aws.StringValue(fake.input.ContentType) != "image/png" {
		t.Fatalf("unexpected input %+v", fake.input)
	}
	if fake.body != "png" {
		t.Fatalf("unexpected body %q", fake.body)
	}

	fake.err = errors.New("denied")
	if _, err := store.Put(context.Background(), "k", strings.NewReader(""), "image/png"); err == nil {
		t.Fatalf("expected upload error")
	}
}

type fakeUploader struct {
	s3manageriface.UploaderAPI
	location string
	err      error
	input    *s3manager.UploadInput
	body     string
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	f.input = in
	data, _ := io.ReadAll(in.Body)
	f.body = string(data)
	if f.err != nil {
		return nil, f.err
	}
	return &s3manager.UploadOutput{Location: f.location}, nil
}
