package repository_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/mansoorceksport/hutraz/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 keeps objects in a map, enough for the calls the store makes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := *in.Bucket + "/" + *in.Key
	f.objects[key] = data
	f.types[key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(context.Context, *s3.CreateBucketInput, ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	return &s3.CreateBucketOutput{}, nil
}

func TestS3Store(t *testing.T) {
	fake := newFakeS3()
	store := repository.NewS3StoreWithClient(fake, "hutraz", "state/")
	exerciseStore(t, store)

	assert.Contains(t, fake.objects, "hutraz/state/history.json")
	assert.Equal(t, "application/json", fake.types["hutraz/state/history.json"])
}

func TestS3StoreUploadError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("503 slow down")
	store := repository.NewS3StoreWithClient(fake, "hutraz", "")

	err := store.Save(context.Background(), "history", []byte(`[]`))
	require.Error(t, err)
	assert.ErrorIs(t, err, fake.putErr)
}
